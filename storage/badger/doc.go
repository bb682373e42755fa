// Package badger provides the BadgerDB implementation of the storage
// interfaces: document and chunk repositories, the durable task queue and
// the raw content blob store, all sharing one Backend.
package badger
