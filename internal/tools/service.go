// Package tools implements the data-engineering operations exposed by the
// API: AI-backed generation, masking, parsing, extraction, and SQL query
// translation, plus local dataset balancing and augmentation.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/dataforge-ai/dataforge/internal/credential"
	"github.com/dataforge-ai/dataforge/internal/dataprep"
	"github.com/dataforge-ai/dataforge/internal/openai"
	"github.com/dataforge-ai/dataforge/internal/session"
	"github.com/dataforge-ai/dataforge/pkg/models"
)

// ErrNoActiveKey is returned when the session has no usable API key.
var ErrNoActiveKey = errors.New("no active API key configured")

// Completer abstracts the chat completion call for testing.
type Completer interface {
	Complete(ctx context.Context, key string, model models.Model, messages []openai.ChatMessage) (string, error)
}

type Service struct {
	registry  *credential.Registry
	completer Completer
	logger    *slog.Logger
}

func NewService(registry *credential.Registry, completer Completer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry:  registry,
		completer: completer,
		logger:    logger,
	}
}

// Run executes an AI-backed tool operation using the session's active key
// and selected model.
func (s *Service) Run(ctx context.Context, sess session.Session, req Request) (string, error) {
	messages, err := BuildMessages(req)
	if err != nil {
		return "", err
	}

	container := s.registry.ForSession(ctx, sess)
	key := container.APIKey()
	if key == "" {
		return "", ErrNoActiveKey
	}
	model := container.SelectedModel()

	start := time.Now()
	out, err := s.completer.Complete(ctx, key, model, messages)
	if err != nil {
		return "", fmt.Errorf("running %s tool: %w", req.Kind, err)
	}
	s.logger.Info("tool completed",
		"kind", req.Kind,
		"model", model,
		"duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

// BalanceStrategy selects how Balance equalizes class counts.
type BalanceStrategy string

const (
	StrategyOversample  BalanceStrategy = "oversample"
	StrategyUndersample BalanceStrategy = "undersample"
)

// Balance equalizes class counts in rows locally, without an AI call.
func (s *Service) Balance(rows dataprep.Rows, labelKey string, strategy BalanceStrategy) (dataprep.Rows, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	switch strategy {
	case StrategyOversample:
		return dataprep.Oversample(rows, labelKey, rng)
	case StrategyUndersample:
		return dataprep.Undersample(rows, labelKey, rng)
	default:
		return nil, fmt.Errorf("unknown balance strategy %q", strategy)
	}
}

// Augment perturbs numeric fields of rows locally, without an AI call.
func (s *Service) Augment(rows dataprep.Rows, scale float64, exclude []string) (dataprep.Rows, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return dataprep.AddNoise(rows, scale, exclude, rng)
}
