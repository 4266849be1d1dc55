package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/event-settlement-platform/internal/event-service/model"
	"github.com/radieske/event-settlement-platform/internal/shared/apperr"
	"github.com/radieske/event-settlement-platform/pkg/contracts/outcome"
)

// Schema da tabela de eventos. Instantes em epoch millis (BIGINT) para manter o SQL portátil.
const Schema = `
	CREATE TABLE IF NOT EXISTS events (
		event_id       TEXT PRIMARY KEY,
		market         TEXT NOT NULL,
		coefficient    NUMERIC(10,2) NOT NULL,
		deadline_ms    BIGINT NOT NULL,
		outcome        TEXT NOT NULL DEFAULT 'unresolved',
		resolved_at_ms BIGINT,
		created_at_ms  BIGINT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_deadline ON events(deadline_ms);
`

const selectColumns = `event_id, market, coefficient, deadline_ms, outcome, resolved_at_ms, created_at_ms`

// Postgres implementa a persistência de eventos
type Postgres struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgres retorna o repositório; queryTimeout limita cada operação (0 = sem limite próprio)
func NewPostgres(db *sql.DB, queryTimeout time.Duration) *Postgres {
	return &Postgres{db: db, timeout: queryTimeout}
}

// EnsureSchema cria a tabela caso ainda não exista
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure events schema: %w", err)
	}
	return nil
}

func (p *Postgres) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

// Create insere um evento novo, sempre com resultado unresolved
func (p *Postgres) Create(ctx context.Context, e model.Event) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	res, err := p.db.ExecContext(ctx, `
		INSERT INTO events (event_id, market, coefficient, deadline_ms, outcome, created_at_ms)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (event_id) DO NOTHING`,
		e.ID, e.Market, e.Coefficient, toMillis(e.Deadline), string(outcome.Unresolved), toMillis(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert event rows: %w", err)
	}
	if n == 0 {
		return apperr.Validation("event %s already exists", e.ID)
	}
	return nil
}

// Get busca um evento pelo id
func (p *Postgres) Get(ctx context.Context, id string) (model.Event, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	row := p.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM events WHERE event_id=$1`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, fmt.Errorf("event %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// ListActive retorna eventos sem resultado cujo prazo ainda não venceu
func (p *Postgres) ListActive(ctx context.Context, now time.Time) ([]model.Event, error) {
	return p.list(ctx, `
		SELECT `+selectColumns+` FROM events
		WHERE outcome=$1 AND deadline_ms > $2
		ORDER BY deadline_ms ASC`,
		string(outcome.Unresolved), toMillis(now))
}

// ListPast retorna eventos com prazo vencido, mais recentes primeiro
func (p *Postgres) ListPast(ctx context.Context, now time.Time) ([]model.Event, error) {
	return p.list(ctx, `
		SELECT `+selectColumns+` FROM events
		WHERE deadline_ms <= $1
		ORDER BY deadline_ms DESC`,
		toMillis(now))
}

// ListExpiredUnresolved alimenta a varredura em background
func (p *Postgres) ListExpiredUnresolved(ctx context.Context, now time.Time, limit int) ([]model.Event, error) {
	return p.list(ctx, `
		SELECT `+selectColumns+` FROM events
		WHERE outcome=$1 AND deadline_ms <= $2
		ORDER BY deadline_ms ASC
		LIMIT $3`,
		string(outcome.Unresolved), toMillis(now), limit)
}

// SetOutcomeIfUnresolved é o único ponto de sincronização da resolução:
// um UPDATE condicional que só tem efeito enquanto o evento está unresolved e já venceu.
// Retorna false quando outro chamador venceu a corrida (ou o prazo ainda não passou).
func (p *Postgres) SetOutcomeIfUnresolved(ctx context.Context, id string, o outcome.Outcome, at time.Time) (bool, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	res, err := p.db.ExecContext(ctx, `
		UPDATE events SET outcome=$1, resolved_at_ms=$2
		WHERE event_id=$3 AND outcome=$4 AND deadline_ms <= $5`,
		string(o), toMillis(at), id, string(outcome.Unresolved), toMillis(at),
	)
	if err != nil {
		return false, fmt.Errorf("set outcome: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set outcome rows: %w", err)
	}
	return n == 1, nil
}

// Update altera metadados de um evento ainda sem resultado.
// A condição outcome=unresolved no próprio UPDATE evita corrida com a resolução.
func (p *Postgres) Update(ctx context.Context, id string, patch model.Patch) (model.Event, error) {
	qctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var coef, deadline any
	if patch.Coefficient != nil {
		coef = *patch.Coefficient
	}
	if patch.Deadline != nil {
		deadline = toMillis(*patch.Deadline)
	}

	res, err := p.db.ExecContext(qctx, `
		UPDATE events SET
		  coefficient = COALESCE($1, coefficient),
		  deadline_ms = COALESCE($2, deadline_ms)
		WHERE event_id=$3 AND outcome=$4`,
		coef, deadline, id, string(outcome.Unresolved),
	)
	if err != nil {
		return model.Event{}, fmt.Errorf("update event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Event{}, fmt.Errorf("update event rows: %w", err)
	}

	cur, err := p.Get(ctx, id)
	if err != nil {
		return model.Event{}, err
	}
	if n == 0 {
		return model.Event{}, apperr.Validation("event %s already resolved", id)
	}
	return cur, nil
}

// Delete remove um evento; ErrNotFound se não existir
func (p *Postgres) Delete(ctx context.Context, id string) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	res, err := p.db.ExecContext(ctx, `DELETE FROM events WHERE event_id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("event %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (p *Postgres) list(ctx context.Context, q string, args ...any) ([]model.Event, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (model.Event, error) {
	var (
		e          model.Event
		coef       decimal.Decimal
		deadline   int64
		out        string
		resolvedAt sql.NullInt64
		createdAt  int64
	)
	if err := s.Scan(&e.ID, &e.Market, &coef, &deadline, &out, &resolvedAt, &createdAt); err != nil {
		return model.Event{}, err
	}
	o, err := outcome.Parse(out)
	if err != nil {
		return model.Event{}, err
	}
	e.Coefficient = coef
	e.Deadline = fromMillis(deadline)
	e.Outcome = o
	e.CreatedAt = fromMillis(createdAt)
	if resolvedAt.Valid {
		t := fromMillis(resolvedAt.Int64)
		e.ResolvedAt = &t
	}
	return e, nil
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
