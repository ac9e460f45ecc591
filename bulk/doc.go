// Package bulk loads a directory of text documents into the store.
//
// Files are walked in lexical order, parsed by extension, batched, and
// handed to an ingester. Failed batches are retried with exponential
// backoff and progress is reported as the load runs.
package bulk
