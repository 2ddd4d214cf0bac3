package duty

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/crewplan/crewplan/internal/rest"
	"github.com/gorilla/mux"
)

type AssignmentDTO struct {
	ID           int    `json:"id"`
	TeamMemberID int    `json:"teamMemberId"`
	DutyType     string `json:"dutyType"`
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
}

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.repo.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	dtos := make([]AssignmentDTO, 0, len(assignments))
	for _, assignment := range assignments {
		dtos = append(dtos, assignmentToDTO(assignment))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var dto AssignmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}
	assignment, err := assignmentFromDTO(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid duty assignment", err.Error())
		return
	}
	created, err := h.repo.Create(r.Context(), assignment)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, assignmentToDTO(created))
}

func (h *Handler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["assignmentId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid assignment id", "")
		return
	}
	var dto AssignmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}
	dto.ID = id
	assignment, err := assignmentFromDTO(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid duty assignment", err.Error())
		return
	}
	if err := h.repo.Update(r.Context(), assignment); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusOK, assignmentToDTO(assignment))
}

func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["assignmentId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid assignment id", "")
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func assignmentToDTO(assignment Assignment) AssignmentDTO {
	return AssignmentDTO{
		ID:           assignment.ID,
		TeamMemberID: assignment.TeamMemberID,
		DutyType:     assignment.DutyType,
		Title:        assignment.Title,
		Description:  assignment.Description,
		StartTime:    assignment.StartTime.Format(time.RFC3339),
		EndTime:      assignment.EndTime.Format(time.RFC3339),
	}
}

func assignmentFromDTO(dto AssignmentDTO) (Assignment, error) {
	startTime, err := time.Parse(time.RFC3339, dto.StartTime)
	if err != nil {
		return Assignment{}, err
	}
	endTime, err := time.Parse(time.RFC3339, dto.EndTime)
	if err != nil {
		return Assignment{}, err
	}
	return Assignment{
		ID:           dto.ID,
		TeamMemberID: dto.TeamMemberID,
		DutyType:     dto.DutyType,
		Title:        dto.Title,
		Description:  dto.Description,
		StartTime:    startTime,
		EndTime:      endTime,
	}, nil
}
