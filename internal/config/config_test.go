package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configPathEnv, logLevelEnv, databaseDSNEnv, skyportalURLEnv,
		skyportalTokenEnv, skyportalGroupEnv, whitelistedEnv,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load("")

	assert.Equal(t, "http://localhost:5000", cfg.SkyPortal.URL)
	assert.Equal(t, "Fink", cfg.SkyPortal.Group)
	assert.Equal(t, time.Second, cfg.Governor.Delay)
	assert.Equal(t, 5*time.Second, cfg.Stream.MaxTimeout)
	assert.Equal(t, []string{"CFH12k", "ZTF"}, cfg.Alerts.Instruments)
	assert.Equal(t, "ztfr", cfg.Alerts.Filters[2])
	assert.False(t, cfg.SkyPortal.Whitelisted)
	assert.Zero(t, cfg.Stream.MaxIdlePolls)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
skyportal:
  url: http://skyportal.example:5000
  token: file-token
  group: Test Group
governor:
  delay: 250ms
stream:
  maxTimeout: 2s
  maxIdlePolls: 3
  subscribe: [kn_candidates]
  topics:
    kn_candidates:
      classification: kilonova
      probability: 1
alerts:
  instruments: [ZTF]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	clearEnv(t)
	t.Setenv(skyportalTokenEnv, "env-token")
	t.Setenv(whitelistedEnv, "true")

	cfg := Load(path)

	assert.Equal(t, "http://skyportal.example:5000", cfg.SkyPortal.URL)
	assert.Equal(t, "env-token", cfg.SkyPortal.Token)
	assert.Equal(t, "Test Group", cfg.SkyPortal.Group)
	assert.Equal(t, "fink_stream", cfg.SkyPortal.Stream)
	assert.True(t, cfg.SkyPortal.Whitelisted)
	assert.Equal(t, 250*time.Millisecond, cfg.Governor.Delay)
	assert.Equal(t, 2*time.Second, cfg.Stream.MaxTimeout)
	assert.Equal(t, 3, cfg.Stream.MaxIdlePolls)
	assert.Equal(t, []string{"ZTF"}, cfg.Alerts.Instruments)
	assert.Equal(t, []string{"kn_candidates"}, cfg.Stream.Subscribe)
	require.Contains(t, cfg.Stream.Topics, "kn_candidates")
	assert.Equal(t, "kilonova", cfg.Stream.Topics["kn_candidates"].Classification)
	require.NotNil(t, cfg.Stream.Topics["kn_candidates"].Probability)
	assert.Equal(t, 1.0, *cfg.Stream.Topics["kn_candidates"].Probability)
	assert.Equal(t, "ab", cfg.Alerts.MagSys)
}

func TestLoadUnreadableFileFallsBack(t *testing.T) {
	clearEnv(t)
	cfg := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, defaultConfig().SkyPortal, cfg.SkyPortal)
}
