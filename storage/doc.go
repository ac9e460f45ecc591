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


// Package storage provides the storage abstraction layer for quarry.
//
// This package defines repository interfaces that decouple storage implementation
// from the query engine. It allows different storage backends (BadgerDB, SQLite
// FTS5, in-memory) to be used interchangeably.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return the repository interface
// where they are meant to be swapped:
//
//	docs, history, err := sqlite.Open(path)  // storage.DocumentRepository, storage.HistoryRepository
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Architecture
//
//   - DocumentStore: the read-only surface scouts search (Search, DocumentCount,
//     DocumentTypeDistribution)
//   - DocumentRepository: DocumentStore plus document lifecycle operations
//   - HistoryRepository: the append-only query log
//
// Excerpt and CountOccurrences implement the excerpt windowing and scoring
// shared by backends that do not rank natively.
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	docs, history, backend, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Search implementations check the context while
// scanning so a timed-out query releases its store resources promptly.
package storage
