// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"strings"
	"time"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Content must not be blank
//   - Type must be a known DocumentType
//   - CreatedAt, when set, must not be in the future
//
// NOT validated (populated by the store or by enrichment):
//   - ID (derived from content when zero)
//   - Keywords
//   - InsertedAt / UpdatedAt
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if strings.TrimSpace(doc.Content) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContent)
	}

	if err := ValidateDocumentType(doc.Type); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if !doc.CreatedAt.IsZero() && !IsValidTimestamp(doc.CreatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateDocumentType validates that a DocumentType has a known value.
func ValidateDocumentType(t DocumentType) error {
	switch t {
	case DocumentTypePlainText, DocumentTypeMarkdown, DocumentTypeEmail, DocumentTypeHTML,
		DocumentTypeXML, DocumentTypePDF, DocumentTypeWord, DocumentTypeExcel:
		return nil
	}
	return fmt.Errorf("%w: value %q", ErrInvalidDocumentType, string(t))
}

// ValidateQuery checks that a classified query is usable by the orchestrator.
func ValidateQuery(q *Query) error {
	if q == nil {
		return fmt.Errorf("%w: query is nil", ErrInvalidQuery)
	}
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, ErrEmptyQuery)
	}
	if q.TimeLimitMs < 0 {
		return fmt.Errorf("%w: negative time limit %d", ErrInvalidQuery, q.TimeLimitMs)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
