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


package badger

import "github.com/poiesic/quarry/storage"

// NewMemoryRepositories creates in-memory document and history repositories for testing.
// Returns docRepo, historyRepo, backend, and error.
// Caller must close both repos and backend when done.
func NewMemoryRepositories() (storage.DocumentRepository, storage.HistoryRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, err
	}
	docRepo, historyRepo, err := NewRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, nil, nil, err
	}
	return docRepo, historyRepo, backend, nil
}

// NewRepositories creates the document and history repositories over an
// open backend.
func NewRepositories(backend *Backend) (storage.DocumentRepository, storage.HistoryRepository, error) {
	docRepo, err := NewDocumentRepository(backend)
	if err != nil {
		return nil, nil, err
	}

	historyRepo, err := NewHistoryRepository(backend)
	if err != nil {
		docRepo.Close()
		return nil, nil, err
	}

	return docRepo, historyRepo, nil
}
