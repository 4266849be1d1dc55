package sweeper

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Resolver resolve um lote de eventos vencidos e informa quantos processou
type Resolver interface {
	ResolveExpired(ctx context.Context, limit int) (int, error)
}

// Sweeper antecipa a resolução de eventos vencidos em background.
// A resolução sob demanda continua valendo; a varredura só evita que o primeiro leitor pague o custo.
type Sweeper struct {
	Log      *zap.Logger
	Resolver Resolver
	Interval time.Duration
	Batch    int
	Timeout  time.Duration // limite de cada rodada
}

// Start roda o loop em goroutine própria até ctx ser cancelado.
// Interval <= 0 desliga a varredura.
func (s *Sweeper) Start(ctx context.Context, wg *sync.WaitGroup) {
	if s.Interval <= 0 {
		s.Log.Info("event sweeper disabled")
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()

		s.Log.Info("event sweeper started", zap.Duration("interval", s.Interval), zap.Int("batch", s.Batch))
		for {
			select {
			case <-ctx.Done():
				s.Log.Info("event sweeper stopped")
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}

// Sweep executa uma rodada; um lote cheio dispara a próxima na sequência
func (s *Sweeper) Sweep(ctx context.Context) int {
	batch := s.Batch
	if batch <= 0 {
		batch = 100
	}
	total := 0
	for ctx.Err() == nil {
		c, cancel := s.roundContext(ctx)
		n, err := s.Resolver.ResolveExpired(c, batch)
		cancel()
		total += n
		if err != nil {
			s.Log.Warn("sweep: resolve expired failed", zap.Error(err))
			break
		}
		if n < batch {
			break
		}
	}
	if total > 0 {
		s.Log.Info("sweep: events resolved", zap.Int("count", total))
	}
	return total
}

func (s *Sweeper) roundContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Timeout)
}
