package lineprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/radieske/event-settlement-platform/internal/shared/apperr"
	"github.com/radieske/event-settlement-platform/internal/shared/metrics"
)

// EventCache guarda eventos terminais (que não mudam mais)
type EventCache interface {
	Get(ctx context.Context, id string) (Event, bool, error)
	Set(ctx context.Context, e Event) error
}

type Options struct {
	Timeout time.Duration // por tentativa
	Retries int           // tentativas extras em falha transitória
	Backoff time.Duration // intervalo inicial
	Cache   EventCache    // opcional
}

// Client fala com o event-service; erros saem sempre como ErrNotFound ou ErrUnavailable
type Client struct {
	log     *zap.Logger
	baseURL string
	http    *http.Client
	opts    Options
}

func New(log *zap.Logger, baseURL string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 100 * time.Millisecond
	}
	return &Client{
		log:     log,
		baseURL: baseURL,
		// o timeout vem do contexto de cada tentativa
		http: &http.Client{},
		opts: opts,
	}
}

// Fetch busca um evento pelo id (o event-service resolve eventos vencidos na leitura)
func (c *Client) Fetch(ctx context.Context, id string) (Event, error) {
	if ev, ok := c.fromCache(ctx, id); ok {
		return ev, nil
	}

	started := time.Now()
	var dto eventDTO
	err := c.getWithRetry(ctx, "fetch", "/v1/events/"+url.PathEscape(id), &dto)
	if err != nil {
		metrics.RecordLineProviderCall("fetch", resultLabel(err), started)
		return Event{}, fmt.Errorf("event %s: %w", id, err)
	}
	ev, err := dto.toEvent()
	if err != nil {
		metrics.RecordLineProviderCall("fetch", "unavailable", started)
		return Event{}, fmt.Errorf("event %s: %w: decode: %v", id, apperr.ErrUnavailable, err)
	}
	metrics.RecordLineProviderCall("fetch", "ok", started)

	if ev.Outcome.Terminal() && c.opts.Cache != nil {
		if err := c.opts.Cache.Set(ctx, ev); err != nil {
			c.log.Warn("event cache set failed", zap.String("event_id", id), zap.Error(err))
		}
	}
	return ev, nil
}

// ListActive busca os eventos abertos para apostas
func (c *Client) ListActive(ctx context.Context) ([]Event, error) {
	started := time.Now()
	var dtos []eventDTO
	err := c.getWithRetry(ctx, "list_active", "/v1/events", &dtos)
	if errors.Is(err, apperr.ErrNotFound) {
		// a rota de listagem sempre existe; 404 aqui é configuração errada
		err = fmt.Errorf("%w: list route not found", apperr.ErrUnavailable)
	}
	if err != nil {
		metrics.RecordLineProviderCall("list_active", resultLabel(err), started)
		return nil, err
	}

	out := make([]Event, 0, len(dtos))
	for _, d := range dtos {
		ev, err := d.toEvent()
		if err != nil {
			metrics.RecordLineProviderCall("list_active", "unavailable", started)
			return nil, fmt.Errorf("%w: decode: %v", apperr.ErrUnavailable, err)
		}
		out = append(out, ev)
	}
	metrics.RecordLineProviderCall("list_active", "ok", started)
	return out, nil
}

func (c *Client) fromCache(ctx context.Context, id string) (Event, bool) {
	if c.opts.Cache == nil {
		return Event{}, false
	}
	ev, ok, err := c.opts.Cache.Get(ctx, id)
	switch {
	case err != nil:
		// cache fora do ar não derruba a leitura: segue pela rede
		metrics.RecordCacheLookup("error")
		c.log.Warn("event cache get failed", zap.String("event_id", id), zap.Error(err))
		return Event{}, false
	case !ok:
		metrics.RecordCacheLookup("miss")
		return Event{}, false
	}
	metrics.RecordCacheLookup("hit")
	return ev, true
}

func (c *Client) newBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.Backoff
	b.MaxInterval = 20 * c.opts.Backoff
	b.MaxElapsedTime = 0 // o limite é o número de tentativas
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.opts.Retries)), ctx)
}

// getWithRetry faz GET e decodifica em dst, repetindo só falhas transitórias
func (c *Client) getWithRetry(ctx context.Context, op, path string, dst any) error {
	attempt := func() error { return c.get(ctx, path, dst) }
	notify := func(err error, wait time.Duration) {
		metrics.RecordLineProviderRetry(op)
		c.log.Debug("line provider call failed, retrying",
			zap.String("op", op), zap.Duration("wait", wait), zap.Error(err))
	}

	err := backoff.RetryNotify(attempt, c.newBackoff(ctx), notify)
	if err == nil {
		return nil
	}
	if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrUnavailable) {
		return err
	}
	// contexto do chamador cancelado durante a espera
	return fmt.Errorf("%w: %v", apperr.ErrUnavailable, err)
}

// get executa uma única tentativa com timeout próprio.
// Erros envolvidos em backoff.Permanent não são repetidos.
func (c *Client) get(ctx context.Context, path string, dst any) error {
	actx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("%w: build request: %v", apperr.ErrUnavailable, err))
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(fmt.Errorf("%w: %v", apperr.ErrUnavailable, ctx.Err()))
		}
		// timeout da tentativa ou erro de conexão
		return fmt.Errorf("%w: %v", apperr.ErrUnavailable, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, res.Body)
		return backoff.Permanent(apperr.ErrNotFound)
	case res.StatusCode >= 500 || res.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, res.Body)
		return fmt.Errorf("%w: line provider http %d", apperr.ErrUnavailable, res.StatusCode)
	case res.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, res.Body)
		return backoff.Permanent(fmt.Errorf("%w: line provider http %d", apperr.ErrUnavailable, res.StatusCode))
	}

	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		if actx.Err() != nil && ctx.Err() == nil {
			// corpo cortado pelo timeout da tentativa
			return fmt.Errorf("%w: %v", apperr.ErrUnavailable, err)
		}
		return backoff.Permanent(fmt.Errorf("%w: decode: %v", apperr.ErrUnavailable, err))
	}
	return nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	default:
		return "unavailable"
	}
}
