package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinkBridge/internal/config"
	"FinkBridge/internal/logging"
	"FinkBridge/internal/testutil/skyportalfake"
)

const token = "test-token"

type countingSleeper struct {
	mu    sync.Mutex
	calls int
}

func (s *countingSleeper) Sleep(ctx context.Context, _ time.Duration) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return ctx.Err()
}

func testConfig(t *testing.T, baseURL string, lines ...string) config.Config {
	t.Helper()

	path := filepath.Join(t.TempDir(), "alerts.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o600))

	return config.Config{
		SkyPortal: config.SkyPortalConfig{
			URL:        baseURL,
			Token:      token,
			Group:      "Fink",
			Stream:     "fink_stream",
			Filter:     "fink_filter",
			AuthorName: "fink_client",
			Timeout:    5 * time.Second,
		},
		Stream: config.StreamConfig{
			Kind:         "replay",
			Path:         path,
			MaxTimeout:   time.Millisecond,
			MaxIdlePolls: 1,
		},
		Alerts: config.AlertConfig{
			Instruments: []string{"CFH12k", "ZTF"},
			MagSys:      "ab",
			Filters:     map[int]string{1: "ztfg", 2: "ztfr", 3: "ztfi"},
		},
		Governor: config.GovernorConfig{Delay: time.Second},
	}
}

const snAlert = `{"topic":"fink_sn_candidates_ztf","alert":{"objectId":"ZTF21abcdefg","classification":"SN candidate","probability":0.9,"candidate":{"jd":2459000.5,"fid":1,"magpsf":18.2,"sigmapsf":0.05,"diffmaglim":20.1,"ra":150.1,"dec":2.2}}}`

func newTestApp(t *testing.T, cfg config.Config, sleeper *countingSleeper) *Application {
	t.Helper()
	application, err := New(context.Background(), cfg, logging.Discard(), Options{Sleeper: sleeper})
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })
	return application
}

func TestRunSubmitsNewObject(t *testing.T) {
	t.Parallel()

	fake := skyportalfake.New(t, token)
	ztf := fake.AddInstrument("ZTF")
	sleeper := &countingSleeper{}

	application := newTestApp(t, testConfig(t, fake.URL, snAlert), sleeper)
	require.NoError(t, application.Run(context.Background()))

	assert.True(t, fake.HasSource("ZTF21abcdefg"))
	require.Len(t, fake.Candidates(), 1)
	assert.Equal(t, "2020-05-31T00:00:00.000", fake.Candidates()[0]["passed_at"])

	require.Len(t, fake.Photometry(), 1)
	phot := fake.Photometry()[0]
	assert.Equal(t, float64(ztf), phot["instrument_id"])
	assert.Equal(t, "ztfg", phot["filter"])
	assert.Equal(t, 59000.0, phot["mjd"])

	classes := fake.Classifications("ZTF21abcdefg")
	require.Len(t, classes, 1)
	assert.Equal(t, "Supernova", classes[0].Classification)

	require.Len(t, fake.Taxonomies(), 1)
	assert.Equal(t, "Fink Taxonomy", fake.Taxonomies()[0].Name)
	assert.Equal(t, 1, sleeper.calls)
}

func TestRunTwiceUpdatesSingleClassification(t *testing.T) {
	t.Parallel()

	fake := skyportalfake.New(t, token)
	fake.AddInstrument("ZTF")
	cfg := testConfig(t, fake.URL, snAlert, snAlert)
	cfg.SkyPortal.Whitelisted = true
	sleeper := &countingSleeper{}

	application := newTestApp(t, cfg, sleeper)
	require.NoError(t, application.Run(context.Background()))

	classes := fake.Classifications("ZTF21abcdefg")
	require.Len(t, classes, 1)
	assert.Equal(t, "fink_client", classes[0].AuthorName)
	assert.Equal(t, skyportalfake.AuthorID, classes[0].AuthorID)
	assert.Equal(t, 2, fake.CountCalls(http.MethodPost, "/api/sources"))
	assert.Equal(t, 1, fake.CountCalls(http.MethodPut, "/api/classification/"))
	assert.Zero(t, sleeper.calls)
}

func TestRunUnknownInstrumentWritesNothing(t *testing.T) {
	t.Parallel()

	fake := skyportalfake.New(t, token)
	fake.AddInstrument("ATLAS")

	application := newTestApp(t, testConfig(t, fake.URL, snAlert), &countingSleeper{})
	require.NoError(t, application.Run(context.Background()))

	assert.False(t, fake.HasSource("ZTF21abcdefg"))
	assert.Empty(t, fake.Candidates())
	assert.Empty(t, fake.Photometry())
	assert.Empty(t, fake.Classifications("ZTF21abcdefg"))
}

func TestRunContinuesAfterRejectedWrite(t *testing.T) {
	t.Parallel()

	fake := skyportalfake.New(t, token)
	fake.AddInstrument("ZTF")
	fake.FailWith(http.MethodPost, "/api/candidates", http.StatusBadRequest)

	application := newTestApp(t, testConfig(t, fake.URL, snAlert), &countingSleeper{})
	require.NoError(t, application.Run(context.Background()))

	assert.True(t, fake.HasSource("ZTF21abcdefg"))
	assert.Len(t, fake.Photometry(), 1)
	assert.Len(t, fake.Classifications("ZTF21abcdefg"), 1)
}

func TestRunBadTokenFailsBootstrap(t *testing.T) {
	t.Parallel()

	fake := skyportalfake.New(t, "other")
	application := newTestApp(t, testConfig(t, fake.URL, snAlert), &countingSleeper{})

	err := application.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestResolve(t *testing.T) {
	t.Parallel()

	fake := skyportalfake.New(t, token)
	application := newTestApp(t, testConfig(t, fake.URL), &countingSleeper{})

	result, err := application.Resolve(context.Background(), "(SIMBAD) RRLyr")
	require.NoError(t, err)
	name, ok := result.Name()
	require.True(t, ok)
	assert.Equal(t, "(SIMBAD) RRLyr", name)

	result, err = application.Resolve(context.Background(), "Blazar")
	require.NoError(t, err)
	assert.False(t, result.Found())

	assert.Len(t, fake.Taxonomies(), 1)
}

func TestHistoryWithoutJournal(t *testing.T) {
	t.Parallel()

	fake := skyportalfake.New(t, token)
	application := newTestApp(t, testConfig(t, fake.URL), &countingSleeper{})

	_, err := application.History(context.Background(), "ZTF21abcdefg", 10)
	assert.ErrorIs(t, err, ErrJournalDisabled)
}

func TestNewRejectsMissingTaxonomyFile(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Taxonomy.Path = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := New(context.Background(), cfg, logging.Discard(), Options{})
	assert.Error(t, err)
}

func scenarioAlert(label string) string {
	return fmt.Sprintf(`{"topic":"fink_kn_candidates_ztf","alert":{"objectId":"ZTF21aaqjmps","classification":%q,"candidate":{"jd":2459000.5,"fid":2,"magpsf":19.0,"sigmapsf":0.1,"diffmaglim":21.0,"ra":180.0,"dec":5.0}}}`, label)
}

func TestRunKilonovaThenSupernova(t *testing.T) {
	t.Parallel()

	fake := skyportalfake.New(t, token)
	fake.AddInstrument("ZTF")
	cfg := testConfig(t, fake.URL, scenarioAlert("kilonova"), scenarioAlert("Supernova"))
	cfg.SkyPortal.Whitelisted = true

	application := newTestApp(t, cfg, &countingSleeper{})
	require.NoError(t, application.Run(context.Background()))

	require.Len(t, fake.Photometry(), 2)
	assert.Equal(t, "ztfr", fake.Photometry()[0]["filter"])

	classes := fake.Classifications("ZTF21aaqjmps")
	require.Len(t, classes, 1)
	assert.Equal(t, "Supernova", classes[0].Classification)
	assert.Equal(t, 1, fake.CountCalls(http.MethodPost, "/api/classification"))
	assert.Equal(t, 1, fake.CountCalls(http.MethodPut, "/api/classification/"))
}

func TestRunLabelOutsideTaxonomyStillWritesEntities(t *testing.T) {
	t.Parallel()

	fake := skyportalfake.New(t, token)
	fake.AddInstrument("ZTF")
	cfg := testConfig(t, fake.URL, scenarioAlert("Blazar"))
	cfg.SkyPortal.Whitelisted = true

	application := newTestApp(t, cfg, &countingSleeper{})
	require.NoError(t, application.Run(context.Background()))

	assert.True(t, fake.HasSource("ZTF21aaqjmps"))
	assert.Len(t, fake.Candidates(), 1)
	assert.Len(t, fake.Photometry(), 1)
	assert.Empty(t, fake.Classifications("ZTF21aaqjmps"))
}
