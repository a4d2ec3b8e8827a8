package types

import "errors"

// Failures surfaced by the pipelines. Callers wrap the cause with one of these
// and match with errors.Is.
var (
	ErrExtraction         = errors.New("document extraction failed")
	ErrEncoding           = errors.New("invalid text encoding")
	ErrUnsupportedType    = errors.New("unsupported document type")
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")
	ErrEmbeddingService   = errors.New("embedding service error")
	ErrStoreWrite         = errors.New("vector store write failed")
	ErrStoreQuery         = errors.New("vector store query failed")
	ErrGenerationService  = errors.New("generation service error")
	ErrTranscription      = errors.New("transcription service error")
	ErrSynthesis          = errors.New("speech synthesis error")
)
