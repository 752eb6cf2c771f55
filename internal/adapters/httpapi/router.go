package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/bnema/warehouse-showcase/internal/adapters/notify"
	"github.com/bnema/warehouse-showcase/internal/application"
	"github.com/bnema/warehouse-showcase/internal/domain"
	"github.com/gorilla/mux"
)

const maxRequestBody = 64 << 10

type operatorKey struct{}

// Coordinator is the part of the retrieval coordinator the API drives.
type Coordinator interface {
	Retrieve(ctx context.Context, id domain.PartID) (application.RetrievalResult, error)
	RetrieveMany(ctx context.Context, ids []domain.PartID) (application.BatchResult, error)
	Release(ctx context.Context, id domain.StationID) (*domain.RobotOperation, error)
	ClearStations(ctx context.Context) ([]domain.RobotOperation, error)
	Withdraw(ctx context.Context, id domain.QueuedPartID) (domain.QueuedPart, error)
	AvailableParts(ctx context.Context, filter string) ([]domain.Part, error)
	Operations(ctx context.Context) ([]domain.RobotOperation, error)
	Snapshot(ctx context.Context) (application.Snapshot, error)
}

// Deps wires the API. Categories and Refresh are optional and only present
// when a remote feed is configured.
type Deps struct {
	Coordinator   Coordinator
	Auth          *Authenticator
	Notifications *notify.Recorder
	Categories    func(ctx context.Context) ([]string, error)
	Refresh       func()
	Logger        *slog.Logger
}

type api struct {
	Deps
}

func NewRouter(deps Deps) *mux.Router {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	a := &api{Deps: deps}

	r := mux.NewRouter()
	r.HandleFunc("/health", a.health).Methods(http.MethodGet)
	r.HandleFunc("/api/login", a.login).Methods(http.MethodPost)

	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(a.requireSession)
	protected.HandleFunc("/logout", a.logout).Methods(http.MethodPost)
	protected.HandleFunc("/state", a.state).Methods(http.MethodGet)
	protected.HandleFunc("/parts", a.parts).Methods(http.MethodGet)
	protected.HandleFunc("/categories", a.categories).Methods(http.MethodGet)
	protected.HandleFunc("/parts/{id}/retrieve", a.retrieveOne).Methods(http.MethodPost)
	protected.HandleFunc("/retrievals", a.retrieveMany).Methods(http.MethodPost)
	protected.HandleFunc("/stations/clear", a.clearStations).Methods(http.MethodPost)
	protected.HandleFunc("/stations/{id}/release", a.release).Methods(http.MethodPost)
	protected.HandleFunc("/queue/{id}", a.withdraw).Methods(http.MethodDelete)
	protected.HandleFunc("/operations", a.operations).Methods(http.MethodGet)
	protected.HandleFunc("/notifications", a.notifications).Methods(http.MethodGet)
	protected.HandleFunc("/refresh", a.refresh).Methods(http.MethodPost)

	return r
}

func (a *api) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		operator, err := a.Auth.Validate(strings.TrimSpace(token))
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), operatorKey{}, operator)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func operatorFrom(ctx context.Context) string {
	operator, _ := ctx.Value(operatorKey{}).(string)
	return operator
}

func (a *api) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	token, expiresAt, err := a.Auth.Login(req.Username, req.Password)
	if err != nil {
		a.Logger.Warn("operator login rejected", "operator", req.Username)
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	a.Logger.Info("operator logged in", "operator", req.Username)
	writeJSON(w, http.StatusOK, loginResponse{Token: token, Operator: strings.TrimSpace(req.Username), ExpiresAt: expiresAt})
}

func (a *api) logout(w http.ResponseWriter, r *http.Request) {
	token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	a.Auth.Logout(strings.TrimSpace(token))
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) state(w http.ResponseWriter, r *http.Request) {
	snapshot, err := a.Coordinator.Snapshot(r.Context())
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStateDTO(snapshot))
}

func (a *api) parts(w http.ResponseWriter, r *http.Request) {
	parts, err := a.Coordinator.AvailableParts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPartDTOs(parts))
}

func (a *api) categories(w http.ResponseWriter, r *http.Request) {
	if a.Categories == nil {
		writeJSON(w, http.StatusOK, []string{})
		return
	}

	categories, err := a.Categories(r.Context())
	if err != nil {
		a.Logger.Warn("fetch categories", "error", err)
		writeError(w, http.StatusBadGateway, "categories unavailable")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (a *api) retrieveOne(w http.ResponseWriter, r *http.Request) {
	id := domain.PartID(mux.Vars(r)["id"])
	a.Logger.Info("retrieve requested", "operator", operatorFrom(r.Context()), "part", id)
	result, err := a.Coordinator.Retrieve(r.Context(), id)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}

	response := retrievalDTO{Operations: []operationDTO{}, Queued: []queuedPartDTO{}}
	if result.Operation != nil {
		response.Operations = append(response.Operations, toOperationDTO(*result.Operation))
	}
	if result.Queued != nil {
		response.Queued = toQueuedDTOs([]domain.QueuedPart{*result.Queued})
	}
	writeJSON(w, http.StatusAccepted, response)
}

func (a *api) retrieveMany(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.PartIDs) == 0 {
		writeError(w, http.StatusBadRequest, "part_ids is required")
		return
	}

	ids := make([]domain.PartID, 0, len(req.PartIDs))
	for _, id := range req.PartIDs {
		ids = append(ids, domain.PartID(id))
	}

	a.Logger.Info("bulk retrieve requested", "operator", operatorFrom(r.Context()), "parts", len(ids))
	result, err := a.Coordinator.RetrieveMany(r.Context(), ids)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}

	rejected := make([]string, 0, len(result.Rejected))
	for _, id := range result.Rejected {
		rejected = append(rejected, string(id))
	}
	writeJSON(w, http.StatusAccepted, retrievalDTO{
		Operations: toOperationDTOs(result.Operations),
		Queued:     toQueuedDTOs(result.Queued),
		Rejected:   rejected,
	})
}

func (a *api) release(w http.ResponseWriter, r *http.Request) {
	id := domain.StationID(mux.Vars(r)["id"])
	a.Logger.Info("release requested", "operator", operatorFrom(r.Context()), "station", id)
	op, err := a.Coordinator.Release(r.Context(), id)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	if op == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusAccepted, toOperationDTO(*op))
}

func (a *api) clearStations(w http.ResponseWriter, r *http.Request) {
	ops, err := a.Coordinator.ClearStations(r.Context())
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toOperationDTOs(ops))
}

func (a *api) withdraw(w http.ResponseWriter, r *http.Request) {
	entry, err := a.Coordinator.Withdraw(r.Context(), domain.QueuedPartID(mux.Vars(r)["id"]))
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQueuedDTOs([]domain.QueuedPart{entry})[0])
}

func (a *api) operations(w http.ResponseWriter, r *http.Request) {
	ops, err := a.Coordinator.Operations(r.Context())
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOperationDTOs(ops))
}

func (a *api) notifications(w http.ResponseWriter, r *http.Request) {
	if a.Notifications == nil {
		writeJSON(w, http.StatusOK, []notificationDTO{})
		return
	}

	var since uint64
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be a sequence number")
			return
		}
		since = parsed
	}
	writeJSON(w, http.StatusOK, toNotificationDTOs(a.Notifications.Since(since)))
}

func (a *api) refresh(w http.ResponseWriter, _ *http.Request) {
	if a.Refresh != nil {
		a.Refresh()
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a *api) writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrPartNotFound),
		errors.Is(err, domain.ErrStationNotFound),
		errors.Is(err, domain.ErrQueuedPartNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrPartUnavailable),
		errors.Is(err, domain.ErrNoPartsAvailable),
		errors.Is(err, domain.ErrNoOccupiedStations),
		errors.Is(err, domain.ErrRobotBusy):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrCoordinatorStopped),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		a.Logger.Error("request failed", "error", err)
	}
	writeError(w, status, err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
