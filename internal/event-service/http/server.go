package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/event-settlement-platform/internal/event-service/dto"
	"github.com/radieske/event-settlement-platform/internal/event-service/model"
	"github.com/radieske/event-settlement-platform/internal/event-service/service"
	"github.com/radieske/event-settlement-platform/internal/shared/apperr"
)

// Events é o contrato do serviço de eventos consumido pelos handlers
type Events interface {
	GetEvent(ctx context.Context, id string) (model.Event, error)
	ListActive(ctx context.Context) ([]model.Event, error)
	ListPast(ctx context.Context) ([]model.Event, error)
	CreateEvent(ctx context.Context, in service.NewEvent) (model.Event, error)
	UpdateEvent(ctx context.Context, id string, patch model.Patch) (model.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// API expõe os endpoints REST do event-service
type API struct {
	Log    *zap.Logger
	Events Events
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/events", a.listActive)      // Eventos abertos para apostas
	r.Get("/v1/events/past", a.listPast)   // Eventos vencidos (resolvidos na leitura)
	r.Get("/v1/events/{id}", a.getEvent)   // Evento por id
	r.Post("/v1/events", a.createEvent)
	r.Put("/v1/events/{id}", a.updateEvent)
	r.Delete("/v1/events/{id}", a.deleteEvent)
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail traduz erros de domínio em status HTTP
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *apperr.ValidationError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.As(err, &verr):
		writeError(w, http.StatusUnprocessableEntity, verr.Reason)
	default:
		a.Log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (a *API) listActive(w http.ResponseWriter, r *http.Request) {
	evs, err := a.Events.ListActive(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromModels(evs))
}

func (a *API) listPast(w http.ResponseWriter, r *http.Request) {
	evs, err := a.Events.ListPast(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromModels(evs))
}

func (a *API) getEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := a.Events.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromModel(ev))
}

func (a *API) createEvent(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ev, err := a.Events.CreateEvent(r.Context(), service.NewEvent{
		ID:          req.EventID,
		Market:      req.Market,
		Coefficient: req.Coefficient,
		Deadline:    req.DeadlineTime(),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.FromModel(ev))
}

func (a *API) updateEvent(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ev, err := a.Events.UpdateEvent(r.Context(), chi.URLParam(r, "id"), req.Patch())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromModel(ev))
}

func (a *API) deleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := a.Events.DeleteEvent(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
