package handlers

import (
	"net/http"

	"github.com/tradefin/cfaam/internal/contracts"
	"github.com/tradefin/cfaam/internal/reminder"
	"github.com/tradefin/cfaam/pkg/config"
	"github.com/tradefin/cfaam/pkg/logger"
	"github.com/tradefin/cfaam/pkg/redis"
)

// ReminderHandler exposes the "run now" trigger and the last run summary.
// The trigger is idempotent per logical day and safe to call repeatedly; the
// rate limit only bounds notifier load from rapid re-triggers.
type ReminderHandler struct {
	service *reminder.Service
	limiter *redis.RateLimiter
	cfg     *config.Config
	logger  *logger.Logger
}

// NewReminderHandler creates the handler.
func NewReminderHandler(service *reminder.Service, limiter *redis.RateLimiter, cfg *config.Config, log *logger.Logger) *ReminderHandler {
	return &ReminderHandler{
		service: service,
		limiter: limiter,
		cfg:     cfg,
		logger:  log,
	}
}

// Run triggers a reminder scan for today and returns the run summary.
// Always responds with a summary object on success, never a raw error dump;
// only configuration-level failures (store/notifier unavailable) produce an
// error status.
// POST /api/reminders/run?token=...
func (h *ReminderHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !authorized(r, h.cfg.AdminToken) {
		respondError(w, http.StatusUnauthorized, "Invalid or missing token")
		return
	}

	ctx := r.Context()

	allowed, err := h.limiter.Allow(ctx, redis.TriggerRateLimit)
	if err != nil {
		h.logger.WithError(err).Warn("Trigger rate limit check failed; allowing run")
		allowed = true
	}
	if !allowed {
		respondError(w, http.StatusTooManyRequests, "Reminder run triggered too frequently")
		return
	}

	// Optional explicit run date for backfills and tests: ?date=2006-01-02.
	var summary *contracts.RunSummary
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		day, perr := contracts.ParseDate(dateStr)
		if perr != nil {
			respondError(w, http.StatusBadRequest, "Invalid date (expected YYYY-MM-DD)")
			return
		}
		summary, err = h.service.RunFor(ctx, day)
	} else {
		summary, err = h.service.RunNow(ctx)
	}
	if err != nil {
		h.logger.WithError(err).Error("Reminder run failed")
		respondError(w, http.StatusInternalServerError, "Reminder run failed")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// LastRun returns the most recent cached run summary.
// GET /api/reminders/last
func (h *ReminderHandler) LastRun(w http.ResponseWriter, r *http.Request) {
	summary, found, err := h.service.LastRun(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to read last run summary")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve last run")
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "No run summary recorded yet")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
