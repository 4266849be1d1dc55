package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/event-settlement-platform/internal/bet-service/dto"
	"github.com/radieske/event-settlement-platform/internal/bet-service/lineprovider"
	"github.com/radieske/event-settlement-platform/internal/bet-service/repo"
	"github.com/radieske/event-settlement-platform/internal/bet-service/service"
	"github.com/radieske/event-settlement-platform/internal/bet-service/settlement"
	"github.com/radieske/event-settlement-platform/internal/shared/apperr"
)

type Bets interface {
	PlaceBet(ctx context.Context, in service.PlaceBet) (string, error)
	ListBets(ctx context.Context, c repo.Criteria) ([]settlement.Settled, error)
	GetBet(ctx context.Context, id string) (settlement.Settled, error)
	ListAvailableEvents(ctx context.Context) ([]lineprovider.Event, error)
}

type Server struct {
	log  *zap.Logger
	bets Bets
}

func NewServer(log *zap.Logger, bets Bets) *Server {
	return &Server{log: log, bets: bets}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/events", s.listEvents) // eventos abertos (proxy do event-service)
	r.Get("/bets", s.listBets)
	r.Post("/bets", s.placeBet)
	r.Get("/bets/{id}", s.getBet)
	return r
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	betID, err := s.bets.PlaceBet(r.Context(), service.PlaceBet{
		EventID:    req.EventID,
		Prediction: req.Prediction,
		Stake:      req.Stake,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.PlaceBetResponse{BetID: betID})
}

func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := q.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := s.bets.ListBets(r.Context(), repo.Criteria{EventID: q.EventID, Limit: q.Limit, Offset: q.Offset})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromSettledList(list))
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	st, err := s.bets.GetBet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromSettled(st))
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	evs, err := s.bets.ListAvailableEvents(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromEvents(evs))
}

// fail traduz erros de domínio em status HTTP
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusUnprocessableEntity, verr.Reason)
	case errors.Is(err, settlement.ErrEventMissing):
		writeError(w, http.StatusConflict, "event missing")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, apperr.ErrUnavailable):
		s.log.Warn("line provider unavailable", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "event service unavailable")
	default:
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseListQuery(r *http.Request) (dto.ListBetsQuery, error) {
	v := r.URL.Query()
	q := dto.ListBetsQuery{EventID: v.Get("event_id")}
	var err error
	if s := v.Get("limit"); s != "" {
		if q.Limit, err = strconv.Atoi(s); err != nil {
			return q, errors.New("invalid limit")
		}
	}
	if s := v.Get("offset"); s != "" {
		if q.Offset, err = strconv.Atoi(s); err != nil {
			return q, errors.New("invalid offset")
		}
	}
	return q, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
