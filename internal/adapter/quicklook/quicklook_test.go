package quicklook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BG-NOAA/sar-drift-converter/internal/domain"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func requirePNG(t *testing.T, path string) {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(raw), len(pngMagic))
	assert.Equal(t, pngMagic, raw[:len(pngMagic)])
}

func plotObservations() []domain.Observation {
	obs := make([]domain.Observation, 0, 6)
	for i := 0; i < 6; i++ {
		o := domain.Observation{
			Index:  i,
			X1:     float64(i) * 10000,
			Y1:     float64(i) * -5000,
			UKmDay: 5 + float64(i),
			VKmDay: -2,
		}
		o.Category = domain.InitialCategory
		obs = append(obs, o)
	}
	obs[4].Category = domain.Category{Reason: domain.ReasonDistance, Confidence: domain.HighConfidence}
	return obs
}

func TestWriteScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.png")
	require.NoError(t, WriteScene(path, "drift 2022-03-01", plotObservations(), 1))
	requirePNG(t, path)
}

func TestWriteSceneStride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.png")
	require.NoError(t, WriteScene(path, "strided", plotObservations(), 3))
	requirePNG(t, path)
}

func TestOverview(t *testing.T) {
	ov := NewOverview(2)
	require.True(t, ov.Empty())

	ov.Add(plotObservations())
	ov.Add(plotObservations())
	require.False(t, ov.Empty())

	path := filepath.Join(t.TempDir(), "all_inliers.png")
	require.NoError(t, ov.Save(path))
	requirePNG(t, path)
}

func TestOverviewSkipsOutliers(t *testing.T) {
	obs := plotObservations()
	for i := range obs {
		obs[i].Category = domain.Category{Reason: domain.ReasonBoth, Confidence: domain.HighConfidence}
	}

	ov := NewOverview(1)
	ov.Add(obs)
	assert.True(t, ov.Empty())
}
