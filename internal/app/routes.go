package app

import (
	"github.com/crewplan/crewplan/internal/config"
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Team members
	r.HandleFunc("/api/team", deps.TeamHandler.ListMembers).Methods("GET")
	r.HandleFunc("/api/team", deps.TeamHandler.CreateMember).Methods("POST")
	r.HandleFunc("/api/team/{memberId}", deps.TeamHandler.GetMember).Methods("GET")
	r.HandleFunc("/api/team/{memberId}", deps.TeamHandler.UpdateMember).Methods("PUT")
	r.HandleFunc("/api/team/{memberId}", deps.TeamHandler.DeleteMember).Methods("DELETE")

	// One-on-one meetings
	r.HandleFunc("/api/oneonone", deps.OneOnOneHandler.ListRecords).Methods("GET")
	r.HandleFunc("/api/oneonone", deps.OneOnOneHandler.CreateRecord).Methods("POST")
	r.HandleFunc("/api/oneonone/{recordId}", deps.OneOnOneHandler.UpdateRecord).Methods("PUT")
	r.HandleFunc("/api/oneonone/{recordId}", deps.OneOnOneHandler.DeleteRecord).Methods("DELETE")

	// Duty assignments
	r.HandleFunc("/api/duty", deps.DutyHandler.ListAssignments).Methods("GET")
	r.HandleFunc("/api/duty", deps.DutyHandler.CreateAssignment).Methods("POST")
	r.HandleFunc("/api/duty/{assignmentId}", deps.DutyHandler.UpdateAssignment).Methods("PUT")
	r.HandleFunc("/api/duty/{assignmentId}", deps.DutyHandler.DeleteAssignment).Methods("DELETE")

	// Out-of-office periods
	r.HandleFunc("/api/outofoffice", deps.OutOfOfficeHandler.ListPeriods).Methods("GET")
	r.HandleFunc("/api/outofoffice", deps.OutOfOfficeHandler.CreatePeriod).Methods("POST")
	r.HandleFunc("/api/outofoffice/{periodId}", deps.OutOfOfficeHandler.UpdatePeriod).Methods("PUT")
	r.HandleFunc("/api/outofoffice/{periodId}", deps.OutOfOfficeHandler.DeletePeriod).Methods("DELETE")

	// Calendar
	r.HandleFunc("/api/calendar/event", deps.CalendarHandler.GetEvents).Queries("from", "{from}", "to", "{to}").Methods("GET")

	// Synchronization engine
	r.HandleFunc("/api/sync", deps.SyncHandler.Synchronize).Methods("POST")
	r.HandleFunc("/api/sync/oneonones", deps.SyncHandler.SyncOneOnOnes).Methods("POST")
	r.HandleFunc("/api/sync/oneonones/visibility", deps.SyncHandler.EnsureVisibility).Methods("POST")
	r.HandleFunc("/api/sync/validate", deps.SyncHandler.Validate).Methods("GET")
	r.HandleFunc("/api/sync/repair", deps.SyncHandler.Repair).Methods("POST")
	r.HandleFunc("/api/sync/birthdays", deps.SyncHandler.EnsureBirthdays).Methods("POST")
	r.HandleFunc("/api/sync/birthdays/duplicates", deps.SyncHandler.DeleteDuplicateBirthdays).Methods("DELETE")
}
