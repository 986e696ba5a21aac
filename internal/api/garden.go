package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/algotables/Eden-Pods-POC-v3/internal/app/reconcile"
	"github.com/algotables/Eden-Pods-POC-v3/internal/domain"
	"github.com/algotables/Eden-Pods-POC-v3/internal/infra/catalog"
)

// ─── Garden API ─────────────────────────────────────────────────────────────
// REST surface over the reconciliation engine.
//
// POST   /api/v1/session          — activate an owner session
// DELETE /api/v1/session          — clear the owner session
// GET    /api/v1/session          — session state
// GET    /api/v1/timeline         — unified pending+confirmed timeline
// GET    /api/v1/harvests         — merged harvest set
// GET    /api/v1/notifications    — growth-stage notifications
// POST   /api/v1/refresh          — reconcile against the ledger now
// POST   /api/v1/throws           — register a pending throw
// POST   /api/v1/throws/failed    — report a submission that never landed
// POST   /api/v1/harvests         — register an optimistic harvest
// POST   /api/v1/harvests/confirm — promote a placeholder to its real id
// DELETE /api/v1/harvests/{txid}  — withdraw a harvest

// engine resolves the active owner's engine or replies 503.
func (s *Server) engine(w http.ResponseWriter) (*reconcile.Engine, bool) {
	eng, err := s.session.Engine()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "no active owner session")
		return nil, false
	}
	return eng, true
}

// ─── Session handlers ───────────────────────────────────────────────────────

// HandleStartSession activates a session for the posted owner address.
// The immediate refresh's outcome is advisory: the session is active and
// serving the cached view even when the ledger is unreachable.
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Owner string `json:"owner"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Owner == "" {
		writeError(w, http.StatusBadRequest, "owner address required")
		return
	}

	refreshErr := s.session.SetOwner(r.Context(), req.Owner)

	resp := map[string]interface{}{
		"owner": req.Owner,
		"state": s.session.State().String(),
	}
	if refreshErr != nil {
		resp["ledger_error"] = refreshErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	s.session.ClearOwner()
	writeJSON(w, http.StatusOK, map[string]string{
		"state": s.session.State().String(),
	})
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"owner": s.session.Owner(),
		"state": s.session.State().String(),
	})
}

// ─── View handlers ──────────────────────────────────────────────────────────

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(w)
	if !ok {
		return
	}

	throws := eng.Timeline()
	resp := map[string]interface{}{
		"owner":         eng.Owner(),
		"throws":        throws,
		"pending_count": eng.PendingCount(),
		"refreshing":    eng.Refreshing(),
		"poller":        eng.Poller().State().String(),
	}
	if msg := eng.LastError(); msg != "" {
		resp["ledger_error"] = msg
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListHarvests(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"harvests": eng.Harvests(),
	})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": eng.Notifications(),
	})
}

// ─── Command handlers ───────────────────────────────────────────────────────

// HandleRefresh reconciles against the ledger immediately. A ledger
// failure is reported as 502 with the last-known-good view preserved; the
// client's retry affordance is simply calling this endpoint again.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(w)
	if !ok {
		return
	}

	if err := eng.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"pending_count": eng.PendingCount(),
	})
}

func (s *Server) handleSubmitThrow(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(w)
	if !ok {
		return
	}

	var req struct {
		PodTypeID     string    `json:"podTypeId"`
		ThrowDate     time.Time `json:"throwDate"`
		LocationLabel string    `json:"locationLabel"`
		GrowthModelID string    `json:"growthModelId"`
		ThrownBy      string    `json:"thrownBy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pod, err := catalog.FindPodType(req.PodTypeID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.GrowthModelID != "" {
		if _, err := catalog.FindModel(req.GrowthModelID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	t := eng.SubmitPending(domain.Throw{
		PodTypeID:     pod.ID,
		PodTypeName:   pod.Name,
		PodTypeIcon:   pod.Icon,
		ThrowDate:     req.ThrowDate,
		LocationLabel: req.LocationLabel,
		GrowthModelID: req.GrowthModelID,
		ThrownBy:      req.ThrownBy,
	})
	writeJSON(w, http.StatusCreated, t)
}

// HandleThrowFailed records a throw submission that never reached the
// ledger. Cancellations are acknowledged silently; rejections become the
// advisory error on the timeline. No pending state is created either way.
func (s *Server) handleThrowFailed(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(w)
	if !ok {
		return
	}

	var req struct {
		Reason  string `json:"reason"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Reason {
	case "cancelled":
		eng.ReportSubmissionFailure(domain.ErrSubmissionCancelled)
	case "rejected":
		err := error(domain.ErrSubmissionRejected)
		if req.Message != "" {
			err = fmt.Errorf("%w: %s", domain.ErrSubmissionRejected, req.Message)
		}
		eng.ReportSubmissionFailure(err)
	default:
		writeError(w, http.StatusBadRequest, "reason must be cancelled or rejected")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAddHarvest(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(w)
	if !ok {
		return
	}

	var req struct {
		ThrowAsaID  int64     `json:"throwAsaId"`
		PlantID     string    `json:"plantId"`
		Quantity    string    `json:"quantityClass"`
		Notes       string    `json:"notes"`
		HarvestedAt time.Time `json:"harvestedAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	quantity := domain.QuantityClass(req.Quantity)
	if !quantity.Valid() {
		writeError(w, http.StatusBadRequest, "quantityClass must be small, medium or large")
		return
	}

	h := eng.AddOptimisticHarvest(domain.Harvest{
		ThrowLedgerID: req.ThrowAsaID,
		PlantID:       req.PlantID,
		Quantity:      quantity,
		Notes:         req.Notes,
		HarvestedAt:   req.HarvestedAt,
	})
	writeJSON(w, http.StatusCreated, h)
}

func (s *Server) handleConfirmHarvest(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(w)
	if !ok {
		return
	}

	var req struct {
		PlaceholderID string `json:"placeholderId"`
		RealID        string `json:"realId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlaceholderID == "" || req.RealID == "" {
		writeError(w, http.StatusBadRequest, "placeholderId and realId required")
		return
	}

	if err := eng.ConfirmHarvest(req.PlaceholderID, req.RealID); err != nil {
		if errors.Is(err, domain.ErrHarvestNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"txId": req.RealID,
	})
}

func (s *Server) handleRemoveHarvest(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.engine(w)
	if !ok {
		return
	}

	txID := chi.URLParam(r, "txid")
	if err := eng.RemoveHarvest(txID); err != nil {
		if errors.Is(err, domain.ErrHarvestNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"removed": txID,
	})
}

// ─── Catalog handlers ───────────────────────────────────────────────────────

func (s *Server) handlePodTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pods": catalog.PodTypes(),
	})
}

func (s *Server) handleGrowthModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"models": catalog.Models(),
	})
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	kitSize := 12
	if v := r.URL.Query().Get("pods"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "pods must be a positive integer")
			return
		}
		kitSize = n
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"kit_size":   kitSize,
		"projection": catalog.Projection(kitSize),
	})
}
