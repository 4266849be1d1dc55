package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/radieske/event-settlement-platform/internal/shared/apperr"
	"github.com/radieske/event-settlement-platform/pkg/contracts/outcome"
)

const Schema = `
	CREATE TABLE IF NOT EXISTS bets (
		id            TEXT PRIMARY KEY,
		event_id      TEXT NOT NULL,
		prediction    TEXT NOT NULL,
		stake         NUMERIC(12,2) NOT NULL,
		created_at_ms BIGINT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_bets_event ON bets(event_id);
`

// CommitCheck é reavaliado imediatamente antes do commit; erro desfaz a inserção
type CommitCheck func(now time.Time) error

// Postgres implementa operações de persistência de apostas em banco Postgres
type Postgres struct {
	db      *sql.DB
	timeout time.Duration
	now     func() time.Time
}

// NewPostgres retorna uma instância do repositório de apostas
func NewPostgres(db *sql.DB, queryTimeout time.Duration) *Postgres {
	return &Postgres{db: db, timeout: queryTimeout, now: time.Now}
}

// WithClock troca o relógio usado no commit (testes)
func (p *Postgres) WithClock(now func() time.Time) *Postgres {
	p.now = now
	return p
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure bets schema: %w", err)
	}
	return nil
}

func (p *Postgres) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

// Create insere a aposta numa transação e chama check(now) logo antes do commit.
// Assim "evento ainda aberto" vale no instante em que a aposta passa a existir.
func (p *Postgres) Create(ctx context.Context, b Bet, check CommitCheck) (string, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // no-op após commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bets (id, event_id, prediction, stake, created_at_ms)
		VALUES ($1,$2,$3,$4,$5)`,
		b.ID, b.EventID, string(b.Prediction), b.Stake, p.now().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("insert bet: %w", err)
	}

	if check != nil {
		if err := check(p.now()); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit bet: %w", err)
	}
	return b.ID, nil
}

// Get retorna a aposta pelo id; ErrNotFound se não existir
func (p *Postgres) Get(ctx context.Context, id string) (Bet, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	row := p.db.QueryRowContext(ctx, `
		SELECT id, event_id, prediction, stake, created_at_ms FROM bets WHERE id=$1`, id)
	b, err := scanBet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Bet{}, fmt.Errorf("bet %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return Bet{}, fmt.Errorf("get bet: %w", err)
	}
	return b, nil
}

// List devolve as apostas mais recentes primeiro; só leitura, nunca altera linhas
func (p *Postgres) List(ctx context.Context, c Criteria) ([]Bet, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	c = c.Normalize()

	var (
		rows *sql.Rows
		err  error
	)
	if c.EventID != "" {
		rows, err = p.db.QueryContext(ctx, `
			SELECT id, event_id, prediction, stake, created_at_ms FROM bets
			WHERE event_id=$1
			ORDER BY created_at_ms DESC, id
			LIMIT $2 OFFSET $3`, c.EventID, c.Limit, c.Offset)
	} else {
		rows, err = p.db.QueryContext(ctx, `
			SELECT id, event_id, prediction, stake, created_at_ms FROM bets
			ORDER BY created_at_ms DESC, id
			LIMIT $1 OFFSET $2`, c.Limit, c.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	defer rows.Close()

	out := []Bet{}
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bet: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBet(s scanner) (Bet, error) {
	var (
		b         Bet
		pred      string
		stake     decimal.Decimal
		createdAt int64
	)
	if err := s.Scan(&b.ID, &b.EventID, &pred, &stake, &createdAt); err != nil {
		return Bet{}, err
	}
	o, err := outcome.Parse(pred)
	if err != nil {
		return Bet{}, err
	}
	b.Prediction = o
	b.Stake = stake
	b.CreatedAt = time.UnixMilli(createdAt).UTC()
	return b, nil
}
