package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned when the breaker is rejecting provider calls
// after repeated failures.
var ErrCircuitOpen = errors.New("AI provider circuit breaker is open")

// BreakerConfig tunes the circuit breaker around a chat client.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that trips the circuit.
	MaxFailures uint32

	// Timeout is how long the circuit stays open before allowing a probe.
	Timeout time.Duration

	// HalfOpenMaxSuccesses is the number of successes required in half-open
	// state to close the circuit again.
	HalfOpenMaxSuccesses uint32
}

// DefaultBreakerConfig trips after three consecutive failures and probes
// again after thirty seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures:          3,
		Timeout:              30 * time.Second,
		HalfOpenMaxSuccesses: 2,
	}
}

// BreakerClient wraps a ChatClient with a circuit breaker so a failing
// provider degrades to local answers instead of stalling every turn.
type BreakerClient struct {
	inner   ChatClient
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewBreakerClient wraps the given client with circuit breaking.
func NewBreakerClient(inner ChatClient, cfg BreakerConfig, logger *zap.Logger) *BreakerClient {
	log := logger.Named("breaker")

	settings := gobreaker.Settings{
		Name:        "ai-provider",
		MaxRequests: cfg.HalfOpenMaxSuccesses,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &BreakerClient{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  log,
	}
}

// GenerateResponse runs the wrapped client's call through the breaker.
// When the circuit is open the call fails immediately with ErrCircuitOpen.
func (c *BreakerClient) GenerateResponse(
	ctx context.Context,
	prompt string,
	systemMessage string,
	temperature float64,
) (string, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		return c.inner.GenerateResponse(ctx, prompt, systemMessage, temperature)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ErrCircuitOpen
		}
		return "", err
	}

	text, _ := result.(string)
	return text, nil
}

// GetModel returns the wrapped client's model name.
func (c *BreakerClient) GetModel() string {
	return c.inner.GetModel()
}

// GetProvider returns the wrapped client's provider identifier.
func (c *BreakerClient) GetProvider() string {
	return c.inner.GetProvider()
}

// State reports the breaker state for health reporting.
func (c *BreakerClient) State() gobreaker.State {
	return c.breaker.State()
}
