package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"wallet-history-indexer/internal/domain/repository"
	"wallet-history-indexer/internal/domain/service"
	"wallet-history-indexer/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(r *http.Request) bool

// API serves the rendering surface of the history service
type API struct {
	history   service.HistoryService
	activity  repository.ActivityRepository
	txURLBase string
	checks    map[string]HealthCheck
	logger    *logger.Logger
}

// NewAPI creates the handlers. activity may be nil when the graph export is disabled.
func NewAPI(
	history service.HistoryService,
	activity repository.ActivityRepository,
	txURLBase string,
	checks map[string]HealthCheck,
	log *logger.Logger,
) *API {
	return &API{
		history:   history,
		activity:  activity,
		txURLBase: txURLBase,
		checks:    checks,
		logger:    log.WithComponent("http-api"),
	}
}

// Health reports liveness and the state of optional dependencies
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	deps := make(map[string]bool, len(a.checks))
	for name, check := range a.checks {
		deps[name] = check(r)
	}
	a.write(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"dependencies": deps,
	})
}

// History returns the grouped history of the active account
func (a *API) History(w http.ResponseWriter, r *http.Request) {
	a.write(w, http.StatusOK, newHistoryView(a.history.Snapshot(), a.txURLBase))
}

// Refresh runs a fetch cycle and returns the resulting history
func (a *API) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := a.history.Refresh(r.Context()); err != nil {
		status, code := classifyError(err)
		a.logger.Warn("Manual refresh failed", zap.String("code", code), zap.Error(err))
		_ = Error(w, r, status, code, err.Error())
		return
	}
	a.write(w, http.StatusOK, newHistoryView(a.history.Snapshot(), a.txURLBase))
}

type accountRequest struct {
	Address string `json:"address"`
}

// SetAccount changes the active account; an empty address disconnects
func (a *API) SetAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = Error(w, r, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	address := strings.TrimSpace(req.Address)
	if address != "" && !common.IsHexAddress(address) {
		_ = Error(w, r, http.StatusBadRequest, "invalid_address", service.ErrInvalidAddress.Error())
		return
	}

	a.history.SetAccount(address)
	a.logger.Info("Active account set over HTTP", zap.String("account", address))
	a.write(w, http.StatusAccepted, map[string]string{"account": address})
}

// GetAccount returns the active account
func (a *API) GetAccount(w http.ResponseWriter, r *http.Request) {
	a.write(w, http.StatusOK, map[string]string{"account": a.history.Snapshot().Account})
}

// Counterparties lists the counterparties recorded in the activity graph for
// the account query parameter, or the active account when it is absent
func (a *API) Counterparties(w http.ResponseWriter, r *http.Request) {
	if a.activity == nil {
		_ = Error(w, r, http.StatusNotFound, "not_enabled", "activity export is disabled")
		return
	}

	account := strings.TrimSpace(r.URL.Query().Get("account"))
	if account != "" && !common.IsHexAddress(account) {
		_ = Error(w, r, http.StatusBadRequest, "invalid_address", service.ErrInvalidAddress.Error())
		return
	}
	if account == "" {
		account = a.history.Snapshot().Account
	}
	if account == "" {
		_ = Error(w, r, http.StatusConflict, "no_active_account", service.ErrNoActiveAccount.Error())
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			_ = Error(w, r, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = n
	}

	addresses, err := a.activity.GetCounterparties(r.Context(), account, limit)
	if err != nil {
		a.logger.Error("Failed to load counterparties", zap.Error(err))
		_ = Error(w, r, http.StatusBadGateway, "upstream_error", err.Error())
		return
	}
	if addresses == nil {
		addresses = []string{}
	}
	a.write(w, http.StatusOK, map[string]any{"account": account, "counterparties": addresses})
}

func (a *API) write(w http.ResponseWriter, status int, body any) {
	if err := JSON(w, status, body); err != nil {
		a.logger.Error("Failed to write response", zap.Error(err))
	}
}

// classifyError maps refresh failures onto HTTP status and error code
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNoActiveAccount):
		return http.StatusConflict, "no_active_account"
	case errors.Is(err, service.ErrInvalidAddress):
		return http.StatusBadRequest, "invalid_address"
	case service.IsConfigurationError(err):
		return http.StatusServiceUnavailable, "configuration_error"
	default:
		return http.StatusBadGateway, "upstream_error"
	}
}
