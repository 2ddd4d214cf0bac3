package calsync

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/crewplan/crewplan/internal/rest"
	log "github.com/sirupsen/logrus"
)

// Handler exposes the sync engine over HTTP.
type Handler struct {
	orchestrator *Orchestrator
	synchronizer *Synchronizer
	validator    *Validator
	repairer     *Repairer
	birthdays    *BirthdayReconciler
}

func NewHandler(orchestrator *Orchestrator, synchronizer *Synchronizer, validator *Validator,
	repairer *Repairer, birthdays *BirthdayReconciler) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		synchronizer: synchronizer,
		validator:    validator,
		repairer:     repairer,
		birthdays:    birthdays,
	}
}

// Synchronize runs a full batch across all enabled generation paths.
func (h *Handler) Synchronize(w http.ResponseWriter, r *http.Request) {
	opts := DefaultOrchestratorOptions()
	if err := decodeBody(r, &opts); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	result, err := h.orchestrator.SynchronizeAll(r.Context(), opts)
	if err != nil {
		log.Errorf("Synchronization run failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusOK, result)
}

// SyncOneOnOnes synchronizes one-on-one records with their calendar events.
func (h *Handler) SyncOneOnOnes(w http.ResponseWriter, r *http.Request) {
	opts := DefaultSyncOptions()
	if err := decodeBody(r, &opts); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	result, err := h.synchronizer.Sync(r.Context(), opts)
	if err != nil {
		log.Errorf("One-on-one synchronization failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusOK, result)
}

// EnsureVisibility cross-checks one-on-one records against stored events and
// reports which scheduled meetings are missing from the calendar. Pass
// {"createMissing": true} to repair in place.
func (h *Handler) EnsureVisibility(w http.ResponseWriter, r *http.Request) {
	var opts VisibilityOptions
	if err := decodeBody(r, &opts); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	result, err := h.synchronizer.EnsureVisibility(r.Context(), opts)
	if err != nil {
		log.Errorf("Visibility check failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusOK, result)
}

// Validate reports every inconsistency between source records and events
// without changing anything.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	report, err := h.validator.Validate(r.Context())
	if err != nil {
		log.Errorf("Consistency validation failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusOK, report)
}

// Repair applies corrective actions for detected inconsistencies. Pass
// {"dryRun": true} to preview the plan.
func (h *Handler) Repair(w http.ResponseWriter, r *http.Request) {
	opts := DefaultRepairOptions()
	if err := decodeBody(r, &opts); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	result, err := h.repairer.Repair(r.Context(), opts)
	if err != nil {
		log.Errorf("Repair run failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusOK, result)
}

// EnsureBirthdays generates missing birthday events for the whole team.
func (h *Handler) EnsureBirthdays(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TargetYears []int `json:"targetYears"`
	}
	if err := decodeBody(r, &body); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	result, err := h.birthdays.EnsureExistForAll(r.Context(), nil, body.TargetYears)
	if err != nil {
		log.Errorf("Birthday generation failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusOK, result)
}

// DeleteDuplicateBirthdays removes redundant birthday events, keeping the
// oldest per member and day.
func (h *Handler) DeleteDuplicateBirthdays(w http.ResponseWriter, r *http.Request) {
	result, err := h.birthdays.RemoveDuplicates(r.Context())
	if err != nil {
		log.Errorf("Birthday deduplication failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusOK, result)
}

// decodeBody fills v from the request body. An empty body leaves v at its
// defaults.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
