package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicecal/internal/config"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "*/15 * * * *", cfg.RefreshCron)
	assert.Equal(t, "http://127.0.0.1:8080/calendar", cfg.Preview.URL)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `listen: ":9000"
timezone: "UTC"
ics:
  - url: "https://example.com/team.ics"
    name: "team"
    color: "#ef4444"
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, 2, cfg.MonthsBack)
	assert.Equal(t, 12, cfg.MonthsAhead)
	require.Len(t, cfg.ICS, 1)
	assert.Equal(t, "team", cfg.ICS[0].SourceID())
	assert.Equal(t, "#ef4444", cfg.ICS[0].Color)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unterminated"), 0o600))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.DefaultConfig()
	cfg.EventsFile = "/etc/voicecal/events.yaml"
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "me", Password: "secret"}

	require.NoError(t, cfg.Save(path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLocationFallsBackToLocal(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Timezone = "Mars/Olympus_Mons"

	loc, err := cfg.Location()
	assert.Error(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestSourceIDFallbacks(t *testing.T) {
	assert.Equal(t, "id", config.ICSConfig{ID: "id", Name: "n", URL: "u"}.SourceID())
	assert.Equal(t, "n", config.ICSConfig{Name: "n", URL: "u"}.SourceID())
	assert.Equal(t, "u", config.ICSConfig{URL: "u"}.SourceID())
}

func TestSaveRejectsEmptyInputs(t *testing.T) {
	assert.Error(t, config.Save("", config.DefaultConfig()))
	assert.Error(t, config.Save(filepath.Join(t.TempDir(), "c.yaml"), nil))
}
