package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Events
	r.HandleFunc("/api/events", deps.EventHandler.ListEvents).Methods("GET")
	r.HandleFunc("/api/events", deps.EventHandler.CreateEvent).Methods("POST")
	r.HandleFunc("/api/events/{id}", deps.EventHandler.UpdateEvent).Methods("PUT")
	r.HandleFunc("/api/events/{id}", deps.EventHandler.DeleteEvent).Methods("DELETE")
	r.HandleFunc("/api/days/{date}/events", deps.ViewHandler.GetDayEvents).Methods("GET")
	r.HandleFunc("/api/calendar.ics", deps.EventHandler.GetICS).Methods("GET")

	// Views
	r.HandleFunc("/api/views/month", deps.ViewHandler.GetMonth).Methods("GET")
	r.HandleFunc("/api/views/agenda", deps.ViewHandler.GetAgenda).Methods("GET")
	r.HandleFunc("/api/views/period", deps.ViewHandler.GetPeriod).Methods("GET")
	r.HandleFunc("/api/navigation", deps.ViewHandler.GetNavigation).Methods("GET")
	r.HandleFunc("/render/{view}", deps.ViewHandler.Render).Methods("GET")

	// Settings
	r.HandleFunc("/api/settings", deps.SettingsHandler.GetSettings).Methods("GET")
	r.HandleFunc("/api/settings/club-name", deps.SettingsHandler.UpdateClubName).Methods("PUT")

	// Export
	r.HandleFunc("/api/export", deps.ExportHandler.Export).Methods("POST")

	// Live updates
	r.HandleFunc("/api/stream", deps.StreamHandler.Stream).Methods("GET")

	// Google integration
	r.HandleFunc("/api/integrations/google/auth/login", deps.GoogleAuth.OAuthLogin).Methods("GET")
	r.HandleFunc("/api/integrations/google/auth/logout", deps.GoogleAuth.OAuthLogout).Methods("DELETE")
	r.HandleFunc("/api/integrations/google/auth/callback", deps.GoogleAuth.OAuthCallback).Methods("GET")
	r.HandleFunc("/api/integrations/google/calendars", deps.GoogleHandler.ListCalendars).Methods("GET")
	r.HandleFunc("/api/integrations/google/publish", deps.GoogleHandler.Publish).Methods("POST")
}
