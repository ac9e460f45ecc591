// Package aggregate merges scout reports into a single AnalysisResult.
//
// Aggregation is a pure transformation over whatever findings the scouts
// produced. Each step is exported on its own:
//
//   - Flatten and DistinctDocuments collect the evidence
//   - Entities merges entity mentions by normalized name
//   - Relationships links co-occurring entities using lexical rules
//   - Timeline orders dated statements
//   - Clusters buckets documents by their dominant keyword
//   - Confidence averages finding confidence
//   - Recommendations and ExpansionSuggestions describe gaps
//
// Everything the result references (entity names, documents) is drawn
// from the same result's entity and finding lists.
package aggregate
