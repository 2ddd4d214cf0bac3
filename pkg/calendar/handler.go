package calendar

import (
	"net/http"
	"time"

	"github.com/crewplan/crewplan/internal/rest"
	log "github.com/sirupsen/logrus"
)

type RecurrenceDTO struct {
	Type     string `json:"type"`
	Interval int    `json:"interval"`
}

type EventDTO struct {
	UID              string         `json:"uid"`
	Title            string         `json:"title"`
	Description      string         `json:"description,omitempty"`
	StartTime        string         `json:"startTime"`
	EndTime          string         `json:"endTime"`
	AllDay           bool           `json:"allDay"`
	EventType        string         `json:"eventType"`
	TeamMemberID     int            `json:"teamMemberId,omitempty"`
	LinkedEntityType string         `json:"linkedEntityType,omitempty"`
	LinkedEntityID   int            `json:"linkedEntityId,omitempty"`
	Recurrence       *RecurrenceDTO `json:"recurrence,omitempty"`
}

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// GetEvents returns every event overlapping the requested range.
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid 'from' date", "Dates must be in RFC3339 format")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid 'to' date", "Dates must be in RFC3339 format")
		return
	}

	events, err := h.repo.GetEvents(r.Context(), from, to)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Debugf("Returning %d calendar events between %s and %s", len(events), from, to)

	dtos := make([]EventDTO, 0, len(events))
	for _, event := range events {
		dtos = append(dtos, EventToDTO(event))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func EventToDTO(event Event) EventDTO {
	dto := EventDTO{
		UID:              event.UID.String(),
		Title:            event.Title,
		Description:      event.Description,
		StartTime:        event.StartTime.Format(time.RFC3339),
		EndTime:          event.EndTime.Format(time.RFC3339),
		AllDay:           event.AllDay,
		EventType:        string(event.Type),
		TeamMemberID:     event.TeamMemberID,
		LinkedEntityType: event.LinkedEntityType,
		LinkedEntityID:   event.LinkedEntityID,
	}
	if event.Recurrence != nil {
		dto.Recurrence = &RecurrenceDTO{Type: event.Recurrence.Type, Interval: event.Recurrence.Interval}
	}
	return dto
}
