package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "none.yaml"), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, s.ChapterWorkers)
	assert.Equal(t, 4, s.AssetWorkers)
	assert.Equal(t, 3, s.DiscoveryWorkers)
	assert.Equal(t, 3, s.MaxRetries)
	assert.Equal(t, 30*time.Second, s.Timeout)
	assert.Equal(t, time.Second, s.RetryBaseDelay)
	assert.Equal(t, FormatImages, s.Format)
	assert.NoError(t, s.Validate())
}

func TestLoad_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chapter_workers: 5\nasset_workers: 6\ntimeout: 10s\nformat: cbz\n"), 0o644))

	t.Setenv("MANGADL_ASSET_WORKERS", "7")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("chapter-workers", 2, "")
	flags.Duration("timeout", 30*time.Second, "")
	require.NoError(t, flags.Parse([]string{"--timeout=5s"}))

	s, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, 5, s.ChapterWorkers, "file beats unchanged flag")
	assert.Equal(t, 7, s.AssetWorkers, "env beats file")
	assert.Equal(t, 5*time.Second, s.Timeout, "changed flag beats file")
	assert.Equal(t, FormatCBZ, s.Format)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	s := DefaultSettings()
	s.ChapterWorkers = 3
	s.Timeout = 45 * time.Second
	s.Format = FormatEPUB
	require.NoError(t, s.Save(path))

	loaded, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestValidate(t *testing.T) {
	s := DefaultSettings()
	s.ChapterWorkers = 0
	s.Timeout = 0
	s.Format = "pdf"

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chapter_workers")
	assert.Contains(t, err.Error(), "timeout")
	assert.Contains(t, err.Error(), "format")
}

func TestBackoff(t *testing.T) {
	s := DefaultSettings()
	b := s.Backoff()
	assert.Equal(t, time.Second, b.Delay(0))
	assert.Equal(t, 4*time.Second, b.Delay(2))
}

func TestRegisterFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("asset_workers: 7\nformat: cbz\n"), 0o644))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--chapter-workers", "5", "-f", "epub", "--timeout", "12s"}))

	s, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, 5, s.ChapterWorkers)
	assert.Equal(t, 7, s.AssetWorkers)
	assert.Equal(t, FormatEPUB, s.Format)
	assert.Equal(t, 12*time.Second, s.Timeout)
	assert.Equal(t, 3, s.MaxRetries)
}

func TestFields(t *testing.T) {
	fields := DefaultSettings().Fields()
	require.NotEmpty(t, fields)
	assert.Equal(t, "asset_workers", fields[0].Key)
	assert.Equal(t, "4", fields[0].Value)
	for _, f := range fields {
		if f.Key == "timeout" {
			assert.Equal(t, "30s", f.Value)
		}
	}
}
