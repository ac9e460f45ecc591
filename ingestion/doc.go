// Package ingestion provides pipeline orchestration for storing documents.
//
// The Pipeline type manages the ingestion workflow for documents, including:
//   - Validating and adding documents to storage
//   - Enriching them asynchronously with their top keywords and the
//     person and company names they mention
//
// Enrichment runs on a worker pool. Errors during enrichment are logged but
// do not fail the ingestion operation.
package ingestion
