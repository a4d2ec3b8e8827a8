package types

import (
	"path/filepath"
	"strings"
	"time"
)

type DocType string

const (
	DocPDF  DocType = "pdf"
	DocDOCX DocType = "docx"
	DocTXT  DocType = "txt"
)

// DocTypeFromName resolves the declared type from a file extension.
func DocTypeFromName(name string) (DocType, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return DocPDF, true
	case ".docx":
		return DocDOCX, true
	case ".txt":
		return DocTXT, true
	}
	return "", false
}

// Document is an uploaded file kept in memory for the duration of one ingestion.
type Document struct {
	Content []byte
	Type    DocType
	Source  string // original filename
}

type Chunk struct {
	Index int
	Text  string
}

// Metadata keys stored next to every vector.
const (
	MetaText   = "text"
	MetaSource = "source"
)

type IndexedRecord struct {
	ID       string
	Vector   []float32
	Metadata map[string]any
}

type RetrievalMatch struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

type LoaderConfig struct {
	SettleTime time.Duration
	SourceDir  string
	ArchiveDir string
	BadDir     string
}

type ChunkConfig struct {
	ChunkSize    int
	ChunkOverlap int
}
