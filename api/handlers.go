/*
handlers.go - HTTP API handlers for the obligation engine

PURPOSE:
  Exposes obligation management, due-date preview, holiday policy
  administration, and sync/reconcile triggers over REST. Handlers parse
  HTTP, delegate to the sync coordinator and scheduler, and serialize
  responses.

ENDPOINTS:
  Obligations:
    GET    /api/obligations               List (tombstones hidden)
    POST   /api/obligations               Create
    GET    /api/obligations/{id}          Get one
    PUT    /api/obligations/{id}          Update
    DELETE /api/obligations/{id}          Soft delete (tombstone)
    GET    /api/obligations/{id}/due-dates  Preview due dates

  Policy:
    GET    /api/policy                    Active holiday policy document
    PUT    /api/policy                    Replace policy, replicate, reconcile

  Operations:
    POST   /api/reconcile                 Enqueue a reconciliation run
    POST   /api/sync                      Run a sync pass now
    GET    /api/resolve/{id}              Deep-link target lookup
    GET    /api/healthz                   Liveness

ERROR HANDLING:
  Errors are JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Unknown or tombstoned obligation
  - 502: Remote sync backend unavailable
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/paywarden/obligation-engine/factory"
	"github.com/paywarden/obligation-engine/obligation"
	"github.com/paywarden/obligation-engine/reconcile"
	"github.com/paywarden/obligation-engine/schedule"
	"github.com/paywarden/obligation-engine/syncer"
)

// SettingsKeyHolidayPolicy is the sync settings slot carrying the policy
// document, so every device shifts due dates with the same rules.
const SettingsKeyHolidayPolicy = "holiday_policy"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all HTTP dependencies.
type Handler struct {
	store    obligation.Store
	coord    *syncer.Coordinator
	queue    *reconcile.Queue
	policies *schedule.PolicyHolder
	log      zerolog.Logger
}

// NewHandler wires the handler with its collaborators.
func NewHandler(store obligation.Store, coord *syncer.Coordinator, queue *reconcile.Queue, policies *schedule.PolicyHolder, log zerolog.Logger) *Handler {
	return &Handler{
		store:    store,
		coord:    coord,
		queue:    queue,
		policies: policies,
		log:      log.With().Str("component", "api").Logger(),
	}
}

// =============================================================================
// OBLIGATIONS
// =============================================================================

// ListObligations returns every non-tombstoned obligation with its
// upcoming due dates.
func (h *Handler) ListObligations(w http.ResponseWriter, r *http.Request) {
	obs, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list obligations", err)
		return
	}

	today := schedule.Today()
	policy := h.policies.Current()

	dtos := []ObligationDTO{}
	for _, ob := range obs {
		if ob.SoftDeleted {
			continue
		}
		dtos = append(dtos, toObligationDTO(ob, obligation.ComputeDueDates(ob, today, policy)))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetObligation returns a single obligation. Tombstones read as absent.
func (h *Handler) GetObligation(w http.ResponseWriter, r *http.Request) {
	ob, ok := h.lookup(w, r)
	if !ok {
		return
	}
	dueDates := obligation.ComputeDueDates(*ob, schedule.Today(), h.policies.Current())
	writeJSON(w, http.StatusOK, toObligationDTO(*ob, dueDates))
}

// CreateObligation creates and replicates a new obligation.
func (h *Handler) CreateObligation(w http.ResponseWriter, r *http.Request) {
	var req ObligationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	ob := obligation.New(req.Name, obligation.Kind(req.Kind), req.AnchorDay)
	if err := req.apply(&ob); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if err := h.coord.Create(r.Context(), ob); err != nil {
		writeError(w, http.StatusBadRequest, "failed to create obligation", err)
		return
	}

	dueDates := obligation.ComputeDueDates(ob, schedule.Today(), h.policies.Current())
	writeJSON(w, http.StatusCreated, toObligationDTO(ob, dueDates))
}

// UpdateObligation replaces the client-settable fields of an obligation.
func (h *Handler) UpdateObligation(w http.ResponseWriter, r *http.Request) {
	ob, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req ObligationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}
	if err := req.apply(ob); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if err := h.coord.Update(r.Context(), *ob); err != nil {
		writeError(w, http.StatusBadRequest, "failed to update obligation", err)
		return
	}

	dueDates := obligation.ComputeDueDates(*ob, schedule.Today(), h.policies.Current())
	writeJSON(w, http.StatusOK, toObligationDTO(*ob, dueDates))
}

// DeleteObligation tombstones an obligation. The record is purged only
// after the remote confirms the deletion.
func (h *Handler) DeleteObligation(w http.ResponseWriter, r *http.Request) {
	id := obligation.ID(chi.URLParam(r, "id"))
	if err := h.coord.SoftDelete(r.Context(), id); err != nil {
		if errors.Is(err, obligation.ErrNotFound) {
			writeError(w, http.StatusNotFound, "obligation not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete obligation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetDueDates previews due dates relative to an optional reference date.
func (h *Handler) GetDueDates(w http.ResponseWriter, r *http.Request) {
	ob, ok := h.lookup(w, r)
	if !ok {
		return
	}

	ref := schedule.Today()
	if raw := r.URL.Query().Get("reference"); raw != "" {
		parsed, err := schedule.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid reference date, want YYYY-MM-DD", err)
			return
		}
		ref = parsed
	}

	dto := DueDatesDTO{
		ObligationID: string(ob.ID),
		Reference:    ref.String(),
		DueDates:     []string{},
	}
	for _, d := range obligation.ComputeDueDates(*ob, ref, h.policies.Current()) {
		dto.DueDates = append(dto.DueDates, d.String())
	}
	writeJSON(w, http.StatusOK, dto)
}

// lookup fetches an obligation by path param, writing 404 when it is
// unknown or tombstoned.
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*obligation.Obligation, bool) {
	id := obligation.ID(chi.URLParam(r, "id"))
	ob, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, obligation.ErrNotFound) {
			writeError(w, http.StatusNotFound, "obligation not found", nil)
		} else {
			writeError(w, http.StatusInternalServerError, "failed to load obligation", err)
		}
		return nil, false
	}
	if ob.SoftDeleted {
		writeError(w, http.StatusNotFound, "obligation not found", nil)
		return nil, false
	}
	return ob, true
}

// =============================================================================
// HOLIDAY POLICY
// =============================================================================

// GetPolicy returns the active holiday policy document.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, factory.FromConfig(h.policies.Current().Config()))
}

// PutPolicy replaces the holiday policy, replicates it through the sync
// settings channel, and enqueues a reconciliation so artifacts follow.
func (h *Handler) PutPolicy(w http.ResponseWriter, r *http.Request) {
	var doc factory.PolicyDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}
	cfg, err := doc.ToConfig()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	h.policies.Swap(schedule.NewHolidayPolicy(cfg, schedule.WithLogger(h.log)))

	encoded, err := factory.EncodePolicy(cfg)
	if err == nil {
		if err := h.coord.PushSettings(r.Context(), map[string]string{SettingsKeyHolidayPolicy: string(encoded)}); err != nil {
			h.log.Warn().Err(err).Msg("policy settings replication failed")
		}
	}

	h.queue.Enqueue(reconcile.TriggerPolicyChange)
	writeJSON(w, http.StatusOK, factory.FromConfig(cfg))
}

// =============================================================================
// OPERATIONS
// =============================================================================

// TriggerReconcile enqueues a manual reconciliation run.
func (h *Handler) TriggerReconcile(w http.ResponseWriter, r *http.Request) {
	h.queue.Enqueue(reconcile.TriggerManual)
	writeJSON(w, http.StatusAccepted, ReconcileAcceptedDTO{
		Status:  "enqueued",
		Trigger: string(reconcile.TriggerManual),
	})
}

// TriggerSync runs a sync pass now and reports its outcome.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if err := h.coord.SyncPass(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "sync pass failed", err)
		return
	}
	writeJSON(w, http.StatusOK, SyncResultDTO{Status: "ok"})
}

// ResolveObligation serves the deep-link target embedded in calendar
// entries: given an obligation ID, it returns the record a client should
// open.
func (h *Handler) ResolveObligation(w http.ResponseWriter, r *http.Request) {
	ob, ok := h.lookup(w, r)
	if !ok {
		return
	}
	dueDates := obligation.ComputeDueDates(*ob, schedule.Today(), h.policies.Current())
	writeJSON(w, http.StatusOK, toObligationDTO(*ob, dueDates))
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	body := map[string]string{"error": message}
	if err != nil {
		body["detail"] = err.Error()
	}
	writeJSON(w, status, body)
}
