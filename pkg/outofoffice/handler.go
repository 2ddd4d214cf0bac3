package outofoffice

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/crewplan/crewplan/internal/rest"
	"github.com/gorilla/mux"
)

type PeriodDTO struct {
	ID           int    `json:"id"`
	TeamMemberID int    `json:"teamMemberId"`
	PeriodType   string `json:"type"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
}

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.repo.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	dtos := make([]PeriodDTO, 0, len(periods))
	for _, period := range periods {
		dtos = append(dtos, periodToDTO(period))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	var dto PeriodDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}
	period, err := periodFromDTO(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid out-of-office period", err.Error())
		return
	}
	created, err := h.repo.Create(r.Context(), period)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, periodToDTO(created))
}

func (h *Handler) UpdatePeriod(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["periodId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid period id", "")
		return
	}
	var dto PeriodDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}
	dto.ID = id
	period, err := periodFromDTO(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid out-of-office period", err.Error())
		return
	}
	if err := h.repo.Update(r.Context(), period); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusOK, periodToDTO(period))
}

func (h *Handler) DeletePeriod(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["periodId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid period id", "")
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func periodToDTO(period Period) PeriodDTO {
	return PeriodDTO{
		ID:           period.ID,
		TeamMemberID: period.TeamMemberID,
		PeriodType:   period.PeriodType,
		StartTime:    period.StartTime.Format(time.RFC3339),
		EndTime:      period.EndTime.Format(time.RFC3339),
	}
}

func periodFromDTO(dto PeriodDTO) (Period, error) {
	startTime, err := time.Parse(time.RFC3339, dto.StartTime)
	if err != nil {
		return Period{}, err
	}
	endTime, err := time.Parse(time.RFC3339, dto.EndTime)
	if err != nil {
		return Period{}, err
	}
	return Period{
		ID:           dto.ID,
		TeamMemberID: dto.TeamMemberID,
		PeriodType:   dto.PeriodType,
		StartTime:    startTime,
		EndTime:      endTime,
	}, nil
}
