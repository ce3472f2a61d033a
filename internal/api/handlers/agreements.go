package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tradefin/cfaam/internal/agreement"
	"github.com/tradefin/cfaam/internal/contracts"
	"github.com/tradefin/cfaam/pkg/logger"
	"github.com/tradefin/cfaam/pkg/redis"
)

const (
	agreementsCacheKey = "agreements:list"
	agreementsCacheTTL = 30 * time.Second
)

// AgreementHandler serves the agreement record endpoints backing the
// compliance dashboard.
type AgreementHandler struct {
	repo   *agreement.Repository
	cache  *redis.Cache
	logger *logger.Logger
}

// NewAgreementHandler creates the handler.
func NewAgreementHandler(repo *agreement.Repository, cache *redis.Cache, log *logger.Logger) *AgreementHandler {
	return &AgreementHandler{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

// List returns all agreement records, soonest due date first.
// GET /api/agreements
func (h *AgreementHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var cached []contracts.Agreement
	if hit, err := h.cache.Get(ctx, agreementsCacheKey, &cached); err == nil && hit {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	records, err := h.repo.List(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list agreements")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve agreements")
		return
	}
	if records == nil {
		records = []contracts.Agreement{}
	}

	if err := h.cache.Set(ctx, agreementsCacheKey, records, agreementsCacheTTL); err != nil {
		h.logger.WithError(err).Warn("Failed to cache agreements list")
	}

	respondJSON(w, http.StatusOK, records)
}

// Get returns a single agreement record by CFAAM reference.
// GET /api/agreements/{ref}
func (h *AgreementHandler) Get(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]

	record, err := h.repo.Get(r.Context(), ref)
	if err != nil {
		if errors.Is(err, agreement.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Agreement not found")
			return
		}
		h.logger.WithError(err).WithField("cfaam_ref", ref).Error("Failed to get agreement")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve agreement")
		return
	}

	respondJSON(w, http.StatusOK, record)
}
