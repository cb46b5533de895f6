// Package settlement provides the backends that execute a validated swap.
// The swap form only depends on the two-outcome Settler contract.
package settlement

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"token-swap/pkg/logger"
	"token-swap/pkg/types"
)

// ErrRejected is returned when the backend declined the swap
var ErrRejected = errors.New("swap rejected")

// Settler executes a swap and reports success or failure
type Settler interface {
	Settle(ctx context.Context, req types.SwapRequest) (*Receipt, error)
}

// SettlerFunc adapts a function to the Settler interface
type SettlerFunc func(ctx context.Context, req types.SwapRequest) (*Receipt, error)

func (f SettlerFunc) Settle(ctx context.Context, req types.SwapRequest) (*Receipt, error) {
	return f(ctx, req)
}

// Receipt describes a settled swap
type Receipt struct {
	SubmissionID string    `json:"submission_id"`
	Reference    string    `json:"reference"`
	AmountOut    string    `json:"amount_out"`
	SettledAt    time.Time `json:"settled_at"`
}

// Simulated waits for a fixed delay and then succeeds with a configured
// probability. It stands in for a real settlement service.
type Simulated struct {
	delay       time.Duration
	successRate float64
	log         *zap.Logger

	mu   sync.Mutex
	rand *rand.Rand
}

// NewSimulated creates a simulated settler. src may be nil for a time seeded source.
func NewSimulated(delay time.Duration, successRate float64, src rand.Source, log *zap.Logger) *Simulated {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Simulated{
		delay:       delay,
		successRate: successRate,
		log:         logger.OrNop(log),
		rand:        rand.New(src),
	}
}

func (s *Simulated) Settle(ctx context.Context, req types.SwapRequest) (*Receipt, error) {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	s.mu.Lock()
	roll := s.rand.Float64()
	s.mu.Unlock()

	if roll >= s.successRate {
		s.log.Info("simulated swap rejected",
			zap.String("submission_id", req.SubmissionID),
			zap.Float64("roll", roll))
		return nil, ErrRejected
	}

	receipt := &Receipt{
		SubmissionID: req.SubmissionID,
		Reference:    uuid.NewString(),
		AmountOut:    req.ToAmount,
		SettledAt:    time.Now(),
	}
	s.log.Info("simulated swap settled",
		zap.String("submission_id", req.SubmissionID),
		zap.String("reference", receipt.Reference),
		zap.String("from", req.FromCurrency),
		zap.String("to", req.ToCurrency))
	return receipt, nil
}
