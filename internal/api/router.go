package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tradefin/cfaam/internal/api/handlers"
	"github.com/tradefin/cfaam/pkg/logger"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(
	agreementHandler *handlers.AgreementHandler,
	reminderHandler *handlers.ReminderHandler,
	ingestHandler *handlers.IngestHandler,
	feed *RunFeed,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// Websocket feed of run summaries for the compliance dashboard.
	r.HandleFunc("/ws", feed.Serve)

	// API
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/agreements", agreementHandler.List).Methods("GET")
	api.HandleFunc("/agreements/{ref}", agreementHandler.Get).Methods("GET")

	api.HandleFunc("/ingest", ingestHandler.Ingest).Methods("POST")

	api.HandleFunc("/reminders/run", reminderHandler.Run).Methods("POST", "GET")
	api.HandleFunc("/reminders/last", reminderHandler.LastRun).Methods("GET")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status.
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "cfaam-compliance-api",
	})
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics.
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
