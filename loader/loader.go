package loader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"voicerag/model"
	"voicerag/store"
	"voicerag/telemetry"
	"voicerag/types"
)

// Loader indexes documents: extract, chunk, then embed and upsert every chunk.
type Loader struct {
	extractor *Extractor
	embedder  model.Embedder
	store     store.VectorStorer
	chunk     types.ChunkConfig
	logger    *zap.Logger
	metrics   *telemetry.Metrics
}

func New(extractor *Extractor, embedder model.Embedder, vs store.VectorStorer, chunk types.ChunkConfig, logger *zap.Logger, metrics *telemetry.Metrics) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = telemetry.MustMetrics()
	}
	return &Loader{
		extractor: extractor,
		embedder:  embedder,
		store:     vs,
		chunk:     chunk,
		logger:    logger,
		metrics:   metrics,
	}
}

// IngestFile indexes a local file, using its base name as the source.
func (l *Loader) IngestFile(ctx context.Context, path string) (int, error) {
	typ, ok := types.DocTypeFromName(path)
	if !ok {
		return 0, fmt.Errorf("%w: %s", types.ErrUnsupportedType, filepath.Base(path))
	}
	text, err := l.extractor.ExtractFile(path, typ)
	if err != nil {
		return 0, err
	}
	return l.index(ctx, filepath.Base(path), text)
}

// Ingest indexes doc and returns the number of chunks written. Chunks are
// processed in order and the first failure stops the run; chunks written
// before it stay in the store.
func (l *Loader) Ingest(ctx context.Context, doc types.Document) (int, error) {
	text, err := l.extractor.Extract(doc)
	if err != nil {
		return 0, err
	}
	return l.index(ctx, doc.Source, text)
}

func (l *Loader) index(ctx context.Context, source, text string) (n int, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "loader.ingest")
	span.SetAttributes(attribute.String("source", source))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Int("chunks.indexed", n))
		span.End()
	}()

	start := time.Now()
	texts, err := Split(text, l.chunk.ChunkSize, l.chunk.ChunkOverlap)
	if err != nil {
		return 0, err
	}

	for i, t := range texts {
		chunk := types.Chunk{Index: i, Text: t}
		if err := l.indexChunk(ctx, source, chunk); err != nil {
			l.metrics.RecordIngested(ctx, source, n)
			l.logger.Error("ingestion aborted",
				zap.String("source", source),
				zap.Int("chunk", i),
				zap.Int("indexed", n),
				zap.Error(err))
			return n, err
		}
		n++
	}

	l.metrics.RecordIngested(ctx, source, n)
	l.logger.Info("document indexed",
		zap.String("source", source),
		zap.Int("chunks", n),
		zap.Duration("took", time.Since(start)))
	return n, nil
}

func (l *Loader) indexChunk(ctx context.Context, source string, chunk types.Chunk) error {
	vec, err := l.embedder.Embed(ctx, chunk.Text)
	if err != nil {
		return wrap(types.ErrEmbeddingService, fmt.Errorf("chunk %d: %w", chunk.Index, err))
	}

	rec := types.IndexedRecord{
		ID:     RecordID(source, chunk.Index),
		Vector: vec,
		Metadata: map[string]any{
			types.MetaText:   chunk.Text,
			types.MetaSource: source,
		},
	}

	ctx, span := telemetry.Tracer().Start(ctx, "store.upsert")
	defer span.End()
	if err := l.store.Upsert(ctx, rec.ID, rec.Vector, rec.Metadata); err != nil {
		span.RecordError(err)
		return wrap(types.ErrStoreWrite, err)
	}
	return nil
}

// RecordID is the store key of chunk index of source.
func RecordID(source string, index int) string {
	return fmt.Sprintf("%s_%d", source, index)
}

// wrap tags err with sentinel unless it already carries it.
func wrap(sentinel, err error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
