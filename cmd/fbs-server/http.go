package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	scraper "fbs-backend/lib/scrapers/fbs"
	"fbs-backend/lib/serviceutil"
	servicefbs "fbs-backend/services/fbs"
)

// ScrapeRequest is the wire shape of POST /scrape. Credentials come from
// the server config and are deliberately not accepted over the wire.
type ScrapeRequest struct {
	Date          string   `json:"date"`
	StartTime     string   `json:"start_time"`
	DurationHours float64  `json:"duration_hours"`
	BuildingNames []string `json:"building_names"`
	Floors        []string `json:"floors"`
	FacilityTypes []string `json:"facility_types"`
	Equipment     []string `json:"equipment"`
	RoomCapacity  int      `json:"room_capacity"`
}

func RegisterHandlers(mux *http.ServeMux, cfg Config, service servicefbs.Service) {
	mux.Handle("POST /scrape", serviceutil.VerifyAccessToken(
		cfg.AccessToken,
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req ScrapeRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}

			log, err := service.Scrape(r.Context(), scraper.Request{
				Credentials: scraper.Credentials{
					Username: cfg.Credentials.Username,
					Password: cfg.Credentials.Password,
				},
				DateRaw:       req.Date,
				StartTime:     req.StartTime,
				DurationHours: req.DurationHours,
				BuildingNames: req.BuildingNames,
				Floors:        req.Floors,
				FacilityTypes: req.FacilityTypes,
				Equipment:     req.Equipment,
				RoomCapacity:  req.RoomCapacity,
			})
			if err != nil {
				slog.ErrorContext(r.Context(), "scrape failed", "err", err)
				writeJSON(w, http.StatusUnprocessableEntity, log)
				return
			}
			writeJSON(w, http.StatusOK, log)
		}),
	))

	mux.Handle("GET /history", serviceutil.VerifyAccessToken(
		cfg.AccessToken,
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entries, err := service.History(r.Context(), 50)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, entries)
		}),
	))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}
