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


package bulk

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultBatchSize is the default number of files handed over in each batch
	DefaultBatchSize = 100
)

// FileIterator walks the supported files under a directory in batches.
type FileIterator struct {
	root      string
	batchSize int
}

// NewFileIterator creates an iterator over root.
// batchSize: number of files in each batch (defaults when <= 0)
func NewFileIterator(root string, batchSize int) *FileIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &FileIterator{
		root:      root,
		batchSize: batchSize,
	}
}

// Files lists the supported files under the root, relative to it, in
// lexical order. Hidden files and directories are skipped; so is every
// file without a parser, which is counted in skipped.
func (it *FileIterator) Files(ctx context.Context) (files []string, skipped int, err error) {
	info, err := os.Stat(it.root)
	if err != nil {
		return nil, 0, err
	}
	if !info.IsDir() {
		return nil, 0, fmt.Errorf("%w: %s", ErrNotDirectory, it.root)
	}

	err = filepath.WalkDir(it.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != it.root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if !Supported(path) {
			skipped++
			return nil
		}
		rel, err := filepath.Rel(it.root, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return files, skipped, nil
}

// ForEach calls fn with consecutive batches of files.
// Iteration stops on first error from fn or when all files are handed over.
// Context cancellation is checked between batches.
func (it *FileIterator) ForEach(ctx context.Context, files []string, fn func([]string) error) error {
	for i := 0; i < len(files); i += it.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(i+it.batchSize, len(files))
		if err := fn(files[i:end]); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// Read returns the content of a file relative to the root.
func (it *FileIterator) Read(rel string) ([]byte, error) {
	return os.ReadFile(filepath.Join(it.root, rel))
}
