package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored documents.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocumentType identifies the source format of an ingested document.
type DocumentType string

const (
	DocumentTypePlainText DocumentType = "PlainText"
	DocumentTypeMarkdown  DocumentType = "Markdown"
	DocumentTypeEmail     DocumentType = "Email"
	DocumentTypeHTML      DocumentType = "Html"
	DocumentTypeXML       DocumentType = "Xml"
	DocumentTypePDF       DocumentType = "PDF"
	DocumentTypeWord      DocumentType = "Word"
	DocumentTypeExcel     DocumentType = "Excel"
)

// DocMetaEntities is the Document.Metadata key holding the recognised
// entity names, separated by "; ".
const DocMetaEntities = "entities"

// Document is a single ingested document with its extracted text.
type Document struct {
	ID         ID
	Title      string
	Path       string
	Type       DocumentType
	Content    string
	Author     string
	Keywords   []string          // Top keywords (populated by enrichment)
	Metadata   map[string]string // Free-form properties, e.g. "entities", "subject"
	CreatedAt  time.Time         // When the document was authored, if known
	InsertedAt time.Time         // When the document was inserted into the store
	UpdatedAt  time.Time         // When the document was last updated
}

// Hit is a single ranked match returned by a document store search.
type Hit struct {
	DocumentID     ID
	Title          string
	Excerpt        string
	Context        string
	RelevanceScore float32
}

// SearchFilters narrows a document store search.
// The zero value applies no filtering.
type SearchFilters struct {
	DocumentTypes []DocumentType
	Since         time.Time
	Until         time.Time
}

// Empty reports whether no filter is set.
func (f *SearchFilters) Empty() bool {
	return f == nil || (len(f.DocumentTypes) == 0 && f.Since.IsZero() && f.Until.IsZero())
}

// Matches reports whether a document passes the filters.
func (f *SearchFilters) Matches(doc *Document) bool {
	if f.Empty() {
		return true
	}
	if len(f.DocumentTypes) > 0 {
		found := false
		for _, t := range f.DocumentTypes {
			if t == doc.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	ts := doc.CreatedAt
	if ts.IsZero() {
		ts = doc.InsertedAt
	}
	if !f.Since.IsZero() && ts.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !ts.Before(f.Until) {
		return false
	}
	return true
}

// CorpusStats is the cheap metadata the planner asks the store for.
type CorpusStats struct {
	DocumentCount    int
	TypeDistribution map[DocumentType]int
}

// HistoricalQuery is one entry in the append-only query log.
type HistoricalQuery struct {
	QueryID        string
	Query          string
	Timestamp      time.Time
	ProcessingTime time.Duration
	ResultsCount   int
	UserID         string
	CacheHit       bool
	Partial        bool
}
