package agent

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"voicerag/model"
	"voicerag/store"
	"voicerag/telemetry"
	"voicerag/types"
)

// Unknown is returned when no answer can be given from the indexed documents.
const Unknown = "Sorry, I don't know."

const DefaultTopK = 5

type Retriever struct {
	embedder model.Embedder
	store    store.VectorStorer
	topK     int
	logger   *zap.Logger
	metrics  *telemetry.Metrics
}

func NewRetriever(embedder model.Embedder, vs store.VectorStorer, topK int, logger *zap.Logger, metrics *telemetry.Metrics) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = telemetry.MustMetrics()
	}
	return &Retriever{embedder: embedder, store: vs, topK: topK, logger: logger, metrics: metrics}
}

// NormalizeQuery trims and lower-cases a question before it is embedded.
// Ingested chunks are embedded without this step.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// Retrieve returns the context for query: the text of the top matches in rank
// order, one per line, or Unknown when the store has no match.
func (r *Retriever) Retrieve(ctx context.Context, query string) (string, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "agent.retrieve")
	defer span.End()

	vec, err := r.embedder.Embed(ctx, NormalizeQuery(query))
	if err != nil {
		span.RecordError(err)
		return "", wrap(types.ErrEmbeddingService, err)
	}

	matches, err := r.query(ctx, vec)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(attribute.Int("matches", len(matches)))

	if len(matches) == 0 {
		r.metrics.RecordFallback(ctx, telemetry.FallbackRetrieval)
		r.logger.Debug("no matches for query", zap.String("query", query))
		return Unknown, nil
	}
	return BuildContext(matches), nil
}

func (r *Retriever) query(ctx context.Context, vec []float32) ([]types.RetrievalMatch, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "store.query")
	defer span.End()

	matches, err := r.store.Query(ctx, vec, r.topK)
	if err != nil {
		span.RecordError(err)
		return nil, wrap(types.ErrStoreQuery, err)
	}
	return matches, nil
}

// BuildContext joins the text of each match with newlines, keeping rank order.
func BuildContext(matches []types.RetrievalMatch) string {
	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = matchText(m.Metadata[types.MetaText])
	}
	return strings.Join(parts, "\n")
}

func matchText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, "\n")
	case []any:
		lines := make([]string, len(t))
		for i, item := range t {
			lines[i] = fmt.Sprint(item)
		}
		return strings.Join(lines, "\n")
	default:
		return fmt.Sprint(t)
	}
}
