// Package mockbackend is a local stand-in for the onboarding backend: the corporation
// number registry and the profile details endpoint.
package mockbackend

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/onboarding/form"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Options struct {
	// AllowList numbers are always valid. Other 9 digit numbers are valid when their digit
	// sum is even.
	AllowList []string

	// DenyList numbers are always invalid.
	DenyList []string

	// Latency is added to every corporation number answer.
	Latency time.Duration

	// Store defaults to an in-memory store.
	Store ProfileStore

	Logger logger.Logger
}

type Handler struct {
	allow   map[string]bool
	deny    map[string]bool
	latency time.Duration
	logger  logger.Logger
	store   ProfileStore
}

func New(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	h := &Handler{
		allow:   map[string]bool{},
		deny:    map[string]bool{},
		latency: opts.Latency,
		logger:  opts.Logger,
		store:   opts.Store,
	}
	for _, n := range opts.AllowList {
		h.allow[n] = true
	}
	for _, n := range opts.DenyList {
		h.deny[n] = true
	}
	return h
}

// Register mounts the backend endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/corporation-number/{number}", h.HandleCorporationNumber)
	r.Post("/profile-details", h.HandleProfileDetails)
}

// Router returns a chi router with the endpoints and the usual middleware.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	h.Register(r)
	return r
}

// IsValid is the deterministic registry rule.
func (h *Handler) IsValid(number string) bool {
	if h.deny[number] {
		return false
	}
	if h.allow[number] {
		return true
	}
	sum := 0
	for _, r := range number {
		sum += int(r - '0')
	}
	return sum%2 == 0
}

// HandleCorporationNumber handles GET /corporation-number/{number}.
func (h *Handler) HandleCorporationNumber(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	if h.latency > 0 {
		select {
		case <-time.After(h.latency):
		case <-r.Context().Done():
			return
		}
	}

	if !form.NeedsLookup(number) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Corporation number must be 9 digits"})
		return
	}

	valid := h.IsValid(number)
	h.logger.Debug("Corporation number checked", map[string]interface{}{
		"corporationNumber": number,
		"valid":             valid,
		"requestId":         middleware.GetReqID(r.Context()),
	})
	writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

// HandleProfileDetails handles POST /profile-details.
func (h *Handler) HandleProfileDetails(w http.ResponseWriter, r *http.Request) {
	var record form.UserRecord
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&record); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Request body must be a JSON object"})
		return
	}

	if !strings.HasPrefix(record.Phone, "+1") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid phone number"})
		return
	}

	if err := h.store.Add(r.Context(), record); err != nil {
		h.logger.Error("Failed to store profile details", map[string]interface{}{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Profile details could not be stored"})
		return
	}

	h.logger.Info("Profile details received", map[string]interface{}{
		"corporationNumber": record.CorporationNumber,
		"requestId":         r.Header.Get("X-Request-ID"),
	})
	writeJSON(w, http.StatusOK, struct{}{})
}

// Profiles returns the records accepted so far, or nil when the store cannot be read.
func (h *Handler) Profiles() []form.UserRecord {
	profiles, err := h.store.List(context.Background())
	if err != nil {
		h.logger.Error("Failed to list profile details", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return profiles
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
