package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"voicerag/model"
	"voicerag/telemetry"
	"voicerag/types"
)

const SystemPrompt = "You are a helpful assistant.\n" +
	"The user’s question may come from speech-to-text transcription " +
	"and might include mispronunciations or spelling mistakes. " +
	"First, infer the intended question as best as possible, then " +
	"answer ONLY using the provided context.\n\n" +
	"If the answer is not in the context, say '" + Unknown + "'"

// UserPrompt formats the user message sent with SystemPrompt.
func UserPrompt(question, retrieved string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s", retrieved, question)
}

// Agent answers questions with a language model grounded on retrieved context.
type Agent struct {
	retriever *Retriever
	generator model.Generator
	logger    *zap.Logger
	metrics   *telemetry.Metrics
}

func New(retriever *Retriever, generator model.Generator, logger *zap.Logger, metrics *telemetry.Metrics) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = telemetry.MustMetrics()
	}
	return &Agent{retriever: retriever, generator: generator, logger: logger, metrics: metrics}
}

// Generate asks the model to answer question from the retrieved text alone.
func (a *Agent) Generate(ctx context.Context, question, retrieved string) (string, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "agent.generate")
	defer span.End()

	start := time.Now()
	user := UserPrompt(question, retrieved)
	if a.logger.Core().Enabled(zap.DebugLevel) {
		if tokens, err := CountTokens(SystemPrompt + user); err == nil {
			a.logger.Debug("prompt size", zap.Int("tokens", tokens), zap.Int("chars", len(SystemPrompt)+len(user)))
		}
	}

	answer, err := a.generator.Generate(ctx, SystemPrompt, user)
	if err != nil {
		span.RecordError(err)
		return "", wrap(types.ErrGenerationService, err)
	}
	answer = strings.TrimSpace(answer)
	// An Unknown context was already counted by the retriever.
	if answer == Unknown && retrieved != Unknown {
		a.metrics.RecordFallback(ctx, telemetry.FallbackGeneration)
	}
	a.logger.Debug("llm answered", zap.Duration("took", time.Since(start)))
	return answer, nil
}

// Answer retrieves context for question and generates the reply. An empty
// retrieval still goes through the model with Unknown as its context.
func (a *Agent) Answer(ctx context.Context, question string) (string, error) {
	start := time.Now()

	retrieved, err := a.retriever.Retrieve(ctx, question)
	if err != nil {
		return "", err
	}
	a.logger.Debug("retrieved context", zap.Int("chars", len(retrieved)))

	answer, err := a.Generate(ctx, question, retrieved)
	if err != nil {
		return "", err
	}
	a.metrics.RecordAnswer(ctx, time.Since(start).Seconds())
	return answer, nil
}

// wrap tags err with sentinel unless it already carries it.
func wrap(sentinel, err error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
