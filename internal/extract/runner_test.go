package extract

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LarjGit/edinburgh-finds-sub001/internal/artifact"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/domain/captures"
	"github.com/LarjGit/edinburgh-finds-sub001/internal/domain/extractions"
)

type fakeCaptures struct {
	rows []captures.RawCapture
}

var _ captures.Repository = (*fakeCaptures)(nil)

func (f *fakeCaptures) Create(_ context.Context, capture captures.RawCapture) error {
	f.rows = append(f.rows, capture)
	return nil
}

func (f *fakeCaptures) GetByID(_ context.Context, id string) (*captures.RawCapture, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			return &f.rows[i], nil
		}
	}
	return nil, captures.ErrNotFound
}

func (f *fakeCaptures) ExistsByHash(_ context.Context, hash string) (bool, error) {
	return false, nil
}

func (f *fakeCaptures) ListBySource(_ context.Context, source string, limit int) ([]captures.RawCapture, error) {
	var out []captures.RawCapture
	for _, row := range f.rows {
		if row.Source == source {
			out = append(out, row)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeCaptures) ListAll(_ context.Context, limit int) ([]captures.RawCapture, error) {
	if limit > 0 && limit < len(f.rows) {
		return f.rows[:limit], nil
	}
	return f.rows, nil
}

type fakeRecords struct {
	mu   sync.Mutex
	rows map[string]extractions.ExtractedRecord
}

var _ extractions.Repository = (*fakeRecords)(nil)

func newFakeRecords() *fakeRecords {
	return &fakeRecords{rows: make(map[string]extractions.ExtractedRecord)}
}

func pairKey(rawCaptureID, source string) string {
	return rawCaptureID + "/" + source
}

func (f *fakeRecords) Create(_ context.Context, record extractions.ExtractedRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := pairKey(record.RawCaptureID, record.Source)
	if _, exists := f.rows[key]; exists {
		return fmt.Errorf("duplicate extraction for %s", key)
	}
	f.rows[key] = record
	return nil
}

func (f *fakeRecords) Replace(_ context.Context, record extractions.ExtractedRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[pairKey(record.RawCaptureID, record.Source)] = record
	return nil
}

func (f *fakeRecords) GetByCaptureAndSource(_ context.Context, rawCaptureID, source string) (*extractions.ExtractedRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record, ok := f.rows[pairKey(rawCaptureID, source)]; ok {
		return &record, nil
	}
	return nil, extractions.ErrNotFound
}

func (f *fakeRecords) ListCreatedSince(_ context.Context, since time.Time) ([]extractions.ExtractedRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []extractions.ExtractedRecord
	for _, record := range f.rows {
		if !record.CreatedAt.Before(since) {
			out = append(out, record)
		}
	}
	return out, nil
}

type fakeFailures struct {
	mu   sync.Mutex
	rows map[string]extractions.Failure
}

var _ extractions.FailureRepository = (*fakeFailures)(nil)

func newFakeFailures() *fakeFailures {
	return &fakeFailures{rows: make(map[string]extractions.Failure)}
}

func (f *fakeFailures) Upsert(_ context.Context, params extractions.FailureUpsertParams) (*extractions.Failure, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := pairKey(params.RawCaptureID, params.Source)
	failure, exists := f.rows[key]
	if !exists {
		failure = extractions.Failure{
			ID:           key,
			RawCaptureID: params.RawCaptureID,
			Source:       params.Source,
		}
	} else if params.IncrementRetry {
		failure.RetryCount++
	}
	failure.ErrorMessage = params.ErrorMessage
	failure.ErrorDetails = params.ErrorDetails
	failure.LastAttemptAt = time.Now().UTC()
	f.rows[key] = failure
	return &failure, nil
}

func (f *fakeFailures) GetByCaptureAndSource(_ context.Context, rawCaptureID, source string) (*extractions.Failure, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if failure, ok := f.rows[pairKey(rawCaptureID, source)]; ok {
		return &failure, nil
	}
	return nil, extractions.ErrFailureNotFound
}

func (f *fakeFailures) ListRetryable(_ context.Context, maxRetries, limit int) ([]extractions.Failure, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []extractions.Failure
	for _, failure := range f.rows {
		if failure.RetryCount < maxRetries {
			out = append(out, failure)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeFailures) Delete(_ context.Context, rawCaptureID, source string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := pairKey(rawCaptureID, source)
	if _, ok := f.rows[key]; !ok {
		return extractions.ErrFailureNotFound
	}
	delete(f.rows, key)
	return nil
}

type runnerFixture struct {
	runner   *Runner
	captures *fakeCaptures
	records  *fakeRecords
	failures *fakeFailures
	store    *artifact.Store
}

func newRunnerFixture(t *testing.T) *runnerFixture {
	t.Helper()
	captureRepo := &fakeCaptures{}
	recordRepo := newFakeRecords()
	failureRepo := newFakeFailures()
	store := artifact.NewStore(t.TempDir())
	return &runnerFixture{
		runner:   NewRunner(captureRepo, recordRepo, failureRepo, store, DefaultRegistry(), nil, 2),
		captures: captureRepo,
		records:  recordRepo,
		failures: failureRepo,
		store:    store,
	}
}

// addCapture writes the payload as an artifact and registers the capture row.
func (fx *runnerFixture) addCapture(t *testing.T, id, source string, payload map[string]any) {
	t.Helper()
	path, err := fx.store.Save(source, id, payload)
	require.NoError(t, err)
	require.NoError(t, fx.captures.Create(context.Background(), captures.RawCapture{
		ID:       id,
		Source:   source,
		FilePath: path,
		Status:   captures.StatusStored,
	}))
}

func placesPayload(name string) map[string]any {
	return map[string]any{
		"places": []any{
			map[string]any{
				"id":                       "ChIJ-" + name,
				"displayName":              map[string]any{"text": name},
				"formattedAddress":         "1 Street, Edinburgh EH12 9GR, UK",
				"location":                 map[string]any{"latitude": 55.930189, "longitude": -3.315341},
				"internationalPhoneNumber": "+44 131 539 7071",
			},
		},
	}
}

func TestRunSingleExtracts(t *testing.T) {
	fx := newRunnerFixture(t)
	fx.addCapture(t, "cap-1", "google_places", placesPayload("Game4Padel Edinburgh"))

	outcome, err := fx.runner.RunSingle(context.Background(), "cap-1", Options{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeExtracted, outcome)

	record, err := fx.records.GetByCaptureAndSource(context.Background(), "cap-1", "google_places")
	require.NoError(t, err)
	assert.Equal(t, "Game4Padel Edinburgh", record.Attributes["entity_name"])
	assert.Equal(t, 55.930189, record.Attributes["latitude"])
	assert.Equal(t, "+441315397071", record.Attributes["phone"])
	assert.Equal(t, "place", record.EntityClass)
	assert.Len(t, record.ExtractionHash, 64)
	assert.Equal(t, "ChIJ-Game4Padel Edinburgh", record.ExternalIDs["google_places"])
}

func TestRunSingleAlreadyExtracted(t *testing.T) {
	fx := newRunnerFixture(t)
	fx.addCapture(t, "cap-1", "google_places", placesPayload("Game4Padel Edinburgh"))

	_, err := fx.runner.RunSingle(context.Background(), "cap-1", Options{})
	require.NoError(t, err)

	outcome, err := fx.runner.RunSingle(context.Background(), "cap-1", Options{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyExtracted, outcome)
}

func TestRunSingleForceRetryReplaces(t *testing.T) {
	fx := newRunnerFixture(t)
	fx.addCapture(t, "cap-1", "google_places", placesPayload("Game4Padel Edinburgh"))

	_, err := fx.runner.RunSingle(context.Background(), "cap-1", Options{})
	require.NoError(t, err)
	first, err := fx.records.GetByCaptureAndSource(context.Background(), "cap-1", "google_places")
	require.NoError(t, err)

	outcome, err := fx.runner.RunSingle(context.Background(), "cap-1", Options{ForceRetry: true})
	require.NoError(t, err)
	assert.Equal(t, OutcomeExtracted, outcome)

	second, err := fx.records.GetByCaptureAndSource(context.Background(), "cap-1", "google_places")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.ExtractionHash, second.ExtractionHash, "same content hashes identically")
}

func TestRunSingleDryRunPersistsNothing(t *testing.T) {
	fx := newRunnerFixture(t)
	fx.addCapture(t, "cap-1", "google_places", map[string]any{
		"places": []any{map[string]any{"formattedAddress": "nameless"}},
	})

	outcome, err := fx.runner.RunSingle(context.Background(), "cap-1", Options{DryRun: true})
	assert.Equal(t, OutcomeFailed, outcome)
	require.Error(t, err)

	_, err = fx.failures.GetByCaptureAndSource(context.Background(), "cap-1", "google_places")
	assert.ErrorIs(t, err, extractions.ErrFailureNotFound, "dry run must not quarantine")
}

func TestRunSingleQuarantinesFailure(t *testing.T) {
	fx := newRunnerFixture(t)
	fx.addCapture(t, "cap-1", "google_places", map[string]any{
		"places": []any{map[string]any{"formattedAddress": "nameless"}},
	})

	outcome, err := fx.runner.RunSingle(context.Background(), "cap-1", Options{})
	assert.Equal(t, OutcomeFailed, outcome)
	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)

	failure, err := fx.failures.GetByCaptureAndSource(context.Background(), "cap-1", "google_places")
	require.NoError(t, err)
	assert.Contains(t, failure.ErrorMessage, "missing required field")
	assert.Equal(t, "entity_name", failure.ErrorDetails["field"])
}

func TestRunSingleSuccessClearsQuarantine(t *testing.T) {
	fx := newRunnerFixture(t)
	fx.addCapture(t, "cap-1", "google_places", placesPayload("Game4Padel Edinburgh"))
	_, err := fx.failures.Upsert(context.Background(), extractions.FailureUpsertParams{
		RawCaptureID: "cap-1",
		Source:       "google_places",
		ErrorMessage: "stale failure",
	})
	require.NoError(t, err)

	_, err = fx.runner.RunSingle(context.Background(), "cap-1", Options{})
	require.NoError(t, err)

	_, err = fx.failures.GetByCaptureAndSource(context.Background(), "cap-1", "google_places")
	assert.ErrorIs(t, err, extractions.ErrFailureNotFound)
}

func TestRunBySourceBatch(t *testing.T) {
	fx := newRunnerFixture(t)
	fx.addCapture(t, "cap-1", "google_places", placesPayload("Game4Padel Edinburgh"))
	fx.addCapture(t, "cap-2", "google_places", placesPayload("The Stand Comedy Club"))
	fx.addCapture(t, "cap-3", "google_places", map[string]any{
		"places": []any{map[string]any{"formattedAddress": "nameless"}},
	})

	summary, err := fx.runner.RunBySource(context.Background(), "google_places", Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Successful)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 3, summary.Total())
}

func TestRunAllPendingSkipsFailedCaptures(t *testing.T) {
	fx := newRunnerFixture(t)
	fx.addCapture(t, "cap-1", "google_places", placesPayload("Game4Padel Edinburgh"))
	require.NoError(t, fx.captures.Create(context.Background(), captures.RawCapture{
		ID:     "cap-dead",
		Source: "serper",
		Status: captures.StatusFailed,
	}))

	summary, err := fx.runner.RunAllPending(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total())
}

func TestRunSingleUnknownCapture(t *testing.T) {
	fx := newRunnerFixture(t)
	_, err := fx.runner.RunSingle(context.Background(), "nope", Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, captures.ErrNotFound))
}
