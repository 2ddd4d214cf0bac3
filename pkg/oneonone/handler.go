package oneonone

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/crewplan/crewplan/internal/rest"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type OneOnOneDTO struct {
	ID                 int    `json:"id"`
	TeamMemberID       int    `json:"teamMemberId"`
	NextMeetingTime    string `json:"nextMeetingTime,omitempty"`
	NextMeetingEventID string `json:"nextMeetingEventId,omitempty"`
	Notes              string `json:"notes,omitempty"`
}

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.repo.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	dtos := make([]OneOnOneDTO, 0, len(records))
	for _, record := range records {
		dtos = append(dtos, recordToDTO(record))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var dto OneOnOneDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}
	record, err := recordFromDTO(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid one-on-one record", err.Error())
		return
	}
	if record.TeamMemberID <= 0 {
		rest.WriteError(w, http.StatusBadRequest, "teamMemberId is required", "")
		return
	}
	created, err := h.repo.Create(r.Context(), record)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, recordToDTO(created))
}

func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["recordId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid record id", "")
		return
	}
	var dto OneOnOneDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}
	dto.ID = id
	record, err := recordFromDTO(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid one-on-one record", err.Error())
		return
	}
	if err := h.repo.Update(r.Context(), record); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusOK, recordToDTO(record))
}

func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["recordId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid record id", "")
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func recordToDTO(record OneOnOne) OneOnOneDTO {
	dto := OneOnOneDTO{
		ID:           record.ID,
		TeamMemberID: record.TeamMemberID,
		Notes:        record.Notes,
	}
	if record.NextMeetingTime != nil {
		dto.NextMeetingTime = record.NextMeetingTime.Format(time.RFC3339)
	}
	if record.NextMeetingEventID != nil {
		dto.NextMeetingEventID = record.NextMeetingEventID.String()
	}
	return dto
}

func recordFromDTO(dto OneOnOneDTO) (OneOnOne, error) {
	record := OneOnOne{
		ID:           dto.ID,
		TeamMemberID: dto.TeamMemberID,
		Notes:        dto.Notes,
	}
	if dto.NextMeetingTime != "" {
		t, err := time.Parse(time.RFC3339, dto.NextMeetingTime)
		if err != nil {
			return OneOnOne{}, err
		}
		record.NextMeetingTime = &t
	}
	if dto.NextMeetingEventID != "" {
		uid, err := uuid.Parse(dto.NextMeetingEventID)
		if err != nil {
			return OneOnOne{}, err
		}
		record.NextMeetingEventID = &uid
	}
	return record, nil
}
