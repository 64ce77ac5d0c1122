package handler

import (
	"github.com/moodica/internal/db"
	"github.com/moodica/internal/service"
	"go.uber.org/zap"
)

const (
	defaultMoodLimit  = 30
	defaultWorryLimit = 50
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	store       *db.Store
	records     *service.RecordService
	diagnostics *service.DiagnosticsService
	logger      *zap.Logger
}

// NewAPI constructs a handler set around one long-lived store handle.
// startupErr is the reason the store is degraded, if it is.
func NewAPI(store *db.Store, startupErr error, getenv func(string) string, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		store:       store,
		records:     service.NewRecordService(store),
		diagnostics: service.NewDiagnosticsService(store, startupErr, getenv),
		logger:      logger,
	}
}

// Records exposes the record service, mainly for tests that need a fixed clock.
func (a *API) Records() *service.RecordService {
	return a.records
}
