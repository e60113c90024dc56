/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Obligation CRUD and soft deletion over HTTP
- Due-date preview with explicit reference dates
- Holiday policy replacement and its settings replication
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paywarden/obligation-engine/obligation"
	store "github.com/paywarden/obligation-engine/obligation/store"
	"github.com/paywarden/obligation-engine/reconcile"
	"github.com/paywarden/obligation-engine/reconcile/memory"
	"github.com/paywarden/obligation-engine/schedule"
	"github.com/paywarden/obligation-engine/syncer"
	"github.com/paywarden/obligation-engine/syncer/remote"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testEnv struct {
	server *httptest.Server
	store  *store.Memory
	remote *remote.Memory
	coord  *syncer.Coordinator
}

func newTestEnv(t *testing.T) *testEnv {
	log := zerolog.Nop()

	st := store.NewMemory()
	rem := remote.NewMemory()
	coord := syncer.New(st, rem, log)

	var cfg schedule.HolidayPolicyConfig
	cfg.NonWorkingWeekdays[time.Saturday] = true
	cfg.NonWorkingWeekdays[time.Sunday] = true
	policies := schedule.NewPolicyHolder(schedule.NewHolidayPolicy(cfg))

	calendar := memory.NewCalendar()
	notifier := memory.NewNotifier()
	reconciler := reconcile.New(st, calendar, notifier, policies.Current, log)
	queue := reconcile.NewQueue(reconciler, log)

	handler := NewHandler(st, coord, queue, policies, log)
	srv := httptest.NewServer(NewRouter(handler))
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, store: st, remote: rem, coord: coord}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func recurringBody() map[string]any {
	return map[string]any{
		"name":        "Visa card",
		"account_ref": "4242",
		"kind":        "recurring_charge",
		"anchor_day":  15,
		"offset_days": 10,
		"amount":      "1250.50",
		"currency":    "TRY",
	}
}

// =============================================================================
// OBLIGATION CRUD
// =============================================================================

func TestCreateObligation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/obligations", recurringBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	dto := decode[ObligationDTO](t, resp)
	assert.NotEmpty(t, dto.ID)
	assert.Equal(t, "Visa card", dto.Name)
	assert.Equal(t, "1250.50", dto.Amount)
	assert.NotEmpty(t, dto.DueDates)

	// Created records replicate to the remote.
	assert.Len(t, env.remote.Records(), 1)
}

func TestCreateObligation_Validation(t *testing.T) {
	env := newTestEnv(t)

	body := recurringBody()
	body["anchor_day"] = 42
	resp := env.do(t, http.MethodPost, "/api/obligations", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body = recurringBody()
	body["name"] = ""
	resp = env.do(t, http.MethodPost, "/api/obligations", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body = recurringBody()
	body["amount"] = "not-a-number"
	resp = env.do(t, http.MethodPost, "/api/obligations", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListObligations_HidesTombstones(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	visible := obligation.New("Visible", obligation.KindRecurringCharge, 15)
	require.NoError(t, env.store.Put(ctx, visible))

	hidden := obligation.New("Hidden", obligation.KindRecurringCharge, 15)
	hidden.SoftDeleted = true
	require.NoError(t, env.store.Put(ctx, hidden))

	resp := env.do(t, http.MethodGet, "/api/obligations", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	dtos := decode[[]ObligationDTO](t, resp)
	require.Len(t, dtos, 1)
	assert.Equal(t, "Visible", dtos[0].Name)
}

func TestGetObligation_NotFound(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/obligations/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateObligation(t *testing.T) {
	env := newTestEnv(t)

	created := decode[ObligationDTO](t, env.do(t, http.MethodPost, "/api/obligations", recurringBody()))

	body := recurringBody()
	body["name"] = "Visa Platinum"
	resp := env.do(t, http.MethodPut, "/api/obligations/"+created.ID, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	updated := decode[ObligationDTO](t, resp)
	assert.Equal(t, "Visa Platinum", updated.Name)
	assert.Equal(t, created.ID, updated.ID)
}

func TestDeleteObligation_SoftDeletes(t *testing.T) {
	env := newTestEnv(t)

	created := decode[ObligationDTO](t, env.do(t, http.MethodPost, "/api/obligations", recurringBody()))

	resp := env.do(t, http.MethodDelete, "/api/obligations/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Deleted records read as absent thereafter.
	resp = env.do(t, http.MethodGet, "/api/obligations/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// DUE-DATE PREVIEW
// =============================================================================

func TestGetDueDates_WithReference(t *testing.T) {
	env := newTestEnv(t)

	created := decode[ObligationDTO](t, env.do(t, http.MethodPost, "/api/obligations", recurringBody()))

	// Anchor 15 + offset 10 -> 2025-05-25 (Sunday) -> Monday 2025-05-26.
	path := fmt.Sprintf("/api/obligations/%s/due-dates?reference=2025-05-20", created.ID)
	resp := env.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	dto := decode[DueDatesDTO](t, resp)
	assert.Equal(t, "2025-05-20", dto.Reference)
	assert.Equal(t, []string{"2025-05-26"}, dto.DueDates)
}

func TestGetDueDates_TwoResultsOnDueDay(t *testing.T) {
	env := newTestEnv(t)

	created := decode[ObligationDTO](t, env.do(t, http.MethodPost, "/api/obligations", recurringBody()))

	path := fmt.Sprintf("/api/obligations/%s/due-dates?reference=2025-05-26", created.ID)
	dto := decode[DueDatesDTO](t, env.do(t, http.MethodGet, path, nil))
	assert.Equal(t, []string{"2025-05-26", "2025-06-25"}, dto.DueDates)
}

func TestGetDueDates_BadReference(t *testing.T) {
	env := newTestEnv(t)

	created := decode[ObligationDTO](t, env.do(t, http.MethodPost, "/api/obligations", recurringBody()))

	path := fmt.Sprintf("/api/obligations/%s/due-dates?reference=garbage", created.ID)
	resp := env.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// HOLIDAY POLICY
// =============================================================================

func TestPutPolicy_SwapsAndReplicates(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{
		"non_working_weekdays": map[string]bool{"friday": true, "saturday": true},
		"keywords":             []string{"bayram"},
	}
	resp := env.do(t, http.MethodPut, "/api/policy", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The active policy reflects the change.
	got := decode[map[string]any](t, env.do(t, http.MethodGet, "/api/policy", nil))
	weekdays, ok := got["non_working_weekdays"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, weekdays["friday"])

	// The document replicated through the sync settings channel.
	settings, err := env.coord.PullSettings(context.Background())
	require.NoError(t, err)
	assert.Contains(t, settings[SettingsKeyHolidayPolicy], "friday")
}

func TestPutPolicy_RejectsInvalidDocument(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{
		"fixed_holidays": []map[string]any{{"month": 13, "day": 1}},
	}
	resp := env.do(t, http.MethodPut, "/api/policy", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// OPERATIONS
// =============================================================================

func TestTriggerReconcile(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/reconcile", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	dto := decode[ReconcileAcceptedDTO](t, resp)
	assert.Equal(t, "enqueued", dto.Status)
}

func TestTriggerSync_AdoptsRemote(t *testing.T) {
	env := newTestEnv(t)
	env.remote.Seed(obligation.New("Remote card", obligation.KindRecurringCharge, 15))

	resp := env.do(t, http.MethodPost, "/api/sync", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	dtos := decode[[]ObligationDTO](t, env.do(t, http.MethodGet, "/api/obligations", nil))
	require.Len(t, dtos, 1)
	assert.Equal(t, "Remote card", dtos[0].Name)
}

func TestResolveObligation(t *testing.T) {
	env := newTestEnv(t)

	created := decode[ObligationDTO](t, env.do(t, http.MethodPost, "/api/obligations", recurringBody()))

	resp := env.do(t, http.MethodGet, "/api/resolve/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	dto := decode[ObligationDTO](t, resp)
	assert.Equal(t, created.ID, dto.ID)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
