package team

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/crewplan/crewplan/internal/rest"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type TeamMemberDTO struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	Birthday string `json:"birthday,omitempty"`
}

// BirthdayEvents keeps derived birthday calendar events in line with team
// member changes.
type BirthdayEvents interface {
	BirthdayChanged(ctx context.Context, teamMemberID int, newBirthday string) error
	MemberDeleted(ctx context.Context, teamMemberID int) error
}

type Handler struct {
	repo      Repository
	birthdays BirthdayEvents
}

func NewHandler(repo Repository, birthdays BirthdayEvents) *Handler {
	return &Handler{repo: repo, birthdays: birthdays}
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.repo.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	dtos := make([]TeamMemberDTO, 0, len(members))
	for _, m := range members {
		dtos = append(dtos, toDTO(m))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["memberId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid team member id", "")
		return
	}
	member, err := h.repo.Get(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if member == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toDTO(*member))
}

func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var dto TeamMemberDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}
	if dto.Name == "" {
		rest.WriteError(w, http.StatusBadRequest, "Team member name is required", "")
		return
	}
	log.Debugf("Creating team member %q", dto.Name)

	created, err := h.repo.Create(r.Context(), fromDTO(dto))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, toDTO(created))
}

func (h *Handler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["memberId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid team member id", "")
		return
	}
	var dto TeamMemberDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}
	dto.ID = id

	current, err := h.repo.Get(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if current == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if err := h.repo.Update(r.Context(), fromDTO(dto)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if h.birthdays != nil && dto.Birthday != current.Birthday {
		// The member update already succeeded; a failed event regeneration is
		// converged by the next sync or repair run.
		if err := h.birthdays.BirthdayChanged(r.Context(), id, dto.Birthday); err != nil {
			log.Errorf("failed to update birthday events for member %d: %v", id, err)
		}
	}
	rest.WriteJSON(w, http.StatusOK, dto)
}

func (h *Handler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["memberId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid team member id", "")
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if h.birthdays != nil {
		if err := h.birthdays.MemberDeleted(r.Context(), id); err != nil {
			log.Errorf("failed to remove birthday events for member %d: %v", id, err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func toDTO(m TeamMember) TeamMemberDTO {
	return TeamMemberDTO{ID: m.ID, Name: m.Name, Email: m.Email, Role: m.Role, Birthday: m.Birthday}
}

func fromDTO(dto TeamMemberDTO) TeamMember {
	return TeamMember{ID: dto.ID, Name: dto.Name, Email: dto.Email, Role: dto.Role, Birthday: dto.Birthday}
}
