package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	out := t.TempDir()
	path := writeConfig(t, `{
		"input": "/data/drift",
		"batch_process": true,
		"output_dir": "`+out+`",
		"detect_outliers": true
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ",", cfg.Delimiter)
	assert.Equal(t, 3, cfg.Precision)
	assert.Equal(t, 25.0, cfg.RadiusKm)
	assert.Equal(t, 8, cfg.MinNeighbors)
	assert.Equal(t, 2, cfg.IterCount)
	assert.Equal(t, 3.0, cfg.ZThreshold)
	assert.Equal(t, 1, cfg.VectorStride)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.WatchInterval)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.KafkaEnabled())

	// The output tree is created on load.
	for _, dir := range []string{cfg.FormattedDir(), cfg.GpkgDir(), cfg.NetCDFDir(), cfg.PngDir()} {
		info, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir())
	}
}

func TestLoadExplicitValues(t *testing.T) {
	out := t.TempDir()
	path := writeConfig(t, `{
		"input": "/data/drift",
		"batch_process": true,
		"output_dir": "`+out+`",
		"delimiter": ";",
		"skip_rows_before_header": 2,
		"precision": 2,
		"detect_outliers": true,
		"radius_km": 40,
		"min_neighbors": 5,
		"iter_count": 4,
		"z_threshold": 2.5,
		"ignore_vector_threshold": 10,
		"vector_stride": 3,
		"inlier_vector_stride": 5,
		"watch": true,
		"watch_interval": "2m",
		"kafka_brokers": ["localhost:9092"],
		"kafka_topic": "sar-drift-vectors"
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ";", cfg.Delimiter)
	assert.Equal(t, 2, cfg.SkipRowsBeforeHeader)
	assert.Equal(t, 40.0, cfg.RadiusKm)
	assert.Equal(t, 5, cfg.MinNeighbors)
	assert.Equal(t, 4, cfg.IterCount)
	assert.Equal(t, 2.5, cfg.ZThreshold)
	assert.Equal(t, 10, cfg.IgnoreVectorThreshold)
	assert.Equal(t, 2*time.Minute, cfg.WatchInterval)
	assert.True(t, cfg.KafkaEnabled())
}

func TestLoadVerboseImpliesDebug(t *testing.T) {
	out := t.TempDir()
	path := writeConfig(t, `{
		"input": "/data/drift.txt",
		"output_dir": "`+out+`",
		"verbose": true
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsBadDocuments(t *testing.T) {
	out := t.TempDir()
	cases := []struct {
		name string
		body string
	}{
		{"unknown key", `{"input": "/d", "output_dir": "` + out + `", "radius": 25}`},
		{"missing input", `{"output_dir": "` + out + `"}`},
		{"missing output_dir", `{"input": "/d"}`},
		{"zero radius", `{"input": "/d", "output_dir": "` + out + `", "radius_km": 0}`},
		{"negative z", `{"input": "/d", "output_dir": "` + out + `", "z_threshold": -1}`},
		{"zero iterations", `{"input": "/d", "output_dir": "` + out + `", "iter_count": 0}`},
		{"long delimiter", `{"input": "/d", "output_dir": "` + out + `", "delimiter": ";;"}`},
		{"watch without batch", `{"input": "/d", "output_dir": "` + out + `", "watch": true}`},
		{"topic without brokers", `{"input": "/d", "output_dir": "` + out + `", "kafka_topic": "t"}`},
		{"bad interval", `{"input": "/d", "batch_process": true, "output_dir": "` + out + `", "watch": true, "watch_interval": "soon"}`},
		{"bad log format", `{"input": "/d", "output_dir": "` + out + `", "log_format": "yaml"}`},
		{"not json", `radius_km = 25`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
