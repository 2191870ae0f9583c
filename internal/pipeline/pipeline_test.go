package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BG-NOAA/sar-drift-converter/internal/domain"
	"github.com/BG-NOAA/sar-drift-converter/internal/drift"
	"github.com/BG-NOAA/sar-drift-converter/internal/observability"
	"github.com/BG-NOAA/sar-drift-converter/internal/outlier"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testFile(path string, n int) *drift.File {
	f := &drift.File{Path: path}
	for i := 0; i < n; i++ {
		o := domain.Observation{
			Index: i,
			File1: "S1A_a.tif", File2: "S1B_b.tif",
			Sat1: "S1A", Sat2: "S1B",
			Date1: time.Date(2022, 3, 1, 4, 0, 0, 0, time.UTC),
			Date2: time.Date(2022, 3, 2, 18, 0, 0, 0, time.UTC),
			X1:    float64(i) * 1000, Y1: 0,
			DistanceKm: 10,
		}
		o.SetBearing(45)
		o.ResetClassification()
		f.Observations = append(f.Observations, o)
	}
	return f
}

type fakeExtractor struct {
	files map[string]*drift.File
	err   error
}

func (e *fakeExtractor) ReadFile(path string) (*drift.File, error) {
	if e.err != nil {
		return nil, e.err
	}
	f, ok := e.files[path]
	if !ok {
		return nil, fmt.Errorf("unexpected path %s", path)
	}
	return f, nil
}

type fakeLoader struct {
	products []*Product
	err      error
	finished int
}

func (l *fakeLoader) Load(_ context.Context, p *Product) error {
	l.products = append(l.products, p)
	return l.err
}

func (l *fakeLoader) FinishBatch(_ context.Context) error {
	l.finished++
	return nil
}

// fakeScreener flags the first observation and reports a fixed run.
type fakeScreener struct {
	calls int
}

func (s *fakeScreener) Screen(obs []domain.Observation) outlier.Result {
	s.calls++
	domain.PartitionScenes(obs)
	if len(obs) > 0 {
		obs[0].Category = domain.Category{Reason: domain.ReasonDistance, Confidence: domain.HighConfidence}
	}
	return outlier.Result{State: outlier.Converged, Iterations: 2, InlierCounts: []int{len(obs), len(obs) - 1, len(obs) - 1}}
}

func TestProcessFile(t *testing.T) {
	ex := &fakeExtractor{files: map[string]*drift.File{"/in/a.txt": testFile("/in/a.txt", 4)}}
	sc := &fakeScreener{}
	ld := &fakeLoader{}
	m := observability.NewMetricsForTesting()
	p := New(ex, sc, []Loader{ld}, discardLogger(), m, 0)

	ok, err := p.ProcessFile(context.Background(), "/in/a.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 1, sc.calls)
	require.Len(t, ld.products, 1)
	product := ld.products[0]
	assert.Equal(t, "SIVelocity_SAR_20220301_040000_20220302_180000_v0", product.Name)
	assert.True(t, product.Screened)
	assert.Equal(t, outlier.Converged, product.Run.State)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesProcessed))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.RowsLoaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Outliers.WithLabelValues("distance")))
}

func TestProcessFileSkipsUnderThreshold(t *testing.T) {
	ex := &fakeExtractor{files: map[string]*drift.File{"/in/a.txt": testFile("/in/a.txt", 3)}}
	ld := &fakeLoader{}
	m := observability.NewMetricsForTesting()
	p := New(ex, &fakeScreener{}, []Loader{ld}, discardLogger(), m, 5)

	ok, err := p.ProcessFile(context.Background(), "/in/a.txt")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, ld.products)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesSkipped))
}

func TestProcessFileExtractError(t *testing.T) {
	ex := &fakeExtractor{err: errors.New("missing column")}
	ld := &fakeLoader{}
	m := observability.NewMetricsForTesting()
	p := New(ex, nil, []Loader{ld}, discardLogger(), m, 0)

	_, err := p.ProcessFile(context.Background(), "/in/a.txt")
	require.Error(t, err)
	assert.Empty(t, ld.products)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesFailed))
}

func TestProcessFileLoaderError(t *testing.T) {
	ex := &fakeExtractor{files: map[string]*drift.File{"/in/a.txt": testFile("/in/a.txt", 2)}}
	bad := &fakeLoader{err: errors.New("disk full")}
	good := &fakeLoader{}
	m := observability.NewMetricsForTesting()
	p := New(ex, nil, []Loader{bad, good}, discardLogger(), m, 0)

	_, err := p.ProcessFile(context.Background(), "/in/a.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	// A failing loader does not starve the others.
	assert.Len(t, good.products, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesFailed))
}

func TestProcessFileWithoutScreener(t *testing.T) {
	f := testFile("/in/a.txt", 3)
	ex := &fakeExtractor{files: map[string]*drift.File{"/in/a.txt": f}}
	ld := &fakeLoader{}
	p := New(ex, nil, []Loader{ld}, discardLogger(), observability.NewMetricsForTesting(), 0)

	ok, err := p.ProcessFile(context.Background(), "/in/a.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, ld.products, 1)
	assert.False(t, ld.products[0].Screened)
	// Scene ids are assigned even without screening.
	for i := range f.Observations {
		assert.Equal(t, 1, f.Observations[i].SceneID)
	}
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.txt")
	pathB := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(pathA, []byte("placeholder"), 0o644))
	require.NoError(t, os.WriteFile(pathB, []byte("placeholder"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0o644))

	ex := &fakeExtractor{files: map[string]*drift.File{
		pathA: testFile(pathA, 2),
		pathB: testFile(pathB, 3),
	}}
	ld := &fakeLoader{}
	p := New(ex, nil, []Loader{ld}, discardLogger(), observability.NewMetricsForTesting(), 0)

	require.NoError(t, p.RunBatch(context.Background(), dir))

	require.Len(t, ld.products, 2)
	assert.Equal(t, pathA, ld.products[0].File.Path)
	assert.Equal(t, pathB, ld.products[1].File.Path)
	assert.Equal(t, 1, ld.finished)
}

func TestRunBatchContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.txt")
	pathB := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(pathA, []byte("placeholder"), 0o644))
	require.NoError(t, os.WriteFile(pathB, []byte("placeholder"), 0o644))

	// Only b.txt is known to the extractor; a.txt fails.
	ex := &fakeExtractor{files: map[string]*drift.File{pathB: testFile(pathB, 2)}}
	ld := &fakeLoader{}
	p := New(ex, nil, []Loader{ld}, discardLogger(), observability.NewMetricsForTesting(), 0)

	err := p.RunBatch(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), pathA)
	require.Len(t, ld.products, 1)
	assert.Equal(t, pathB, ld.products[0].File.Path)
}

func TestScreenFuncAdapter(t *testing.T) {
	obs := testFile("/in/a.txt", 3).Observations
	s := ScreenFunc(func(obs []domain.Observation) outlier.Result {
		return outlier.Screen(obs, outlier.Config{RadiusKm: 25, MinNeighbors: 1, IterCount: 2, Precision: 3})
	})

	res := s.Screen(obs)
	assert.NotZero(t, res.Iterations)
	for i := range obs {
		assert.NotZero(t, obs[i].SceneID)
	}
}
