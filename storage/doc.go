// Package storage defines the persistence interfaces for documents, chunks,
// the processing task queue and raw content blobs, plus the binary
// serialization helpers shared by implementations.
//
// The BadgerDB implementation lives in the badger subpackage.
package storage
