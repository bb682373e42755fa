package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/minutia/core"
)

// Key prefixes for different data types
const (
	documentRecordPrefix = "docrec"
	documentDatePrefix   = "docrecd"
	chunkRecordPrefix    = "churec"
	chunkDocumentPrefix  = "churecdoc"
	relationshipPrefix   = "relrec"
	taskRecordPrefix     = "tskrec"
	taskIDSeq            = "tskrecseq"
	blobPrefix           = "blbrec"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentRecordPrefix, id))
}

// makeDocumentDateKey generates a composite key for the source-date index.
// Format: prefix:timestamp:id
func makeDocumentDateKey(timestamp time.Time, id core.ID) []byte {
	prefix := []byte(documentDatePrefix + ":")
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialDocumentDateKey generates a partial key for date range queries.
// Format: prefix:timestamp
func makePartialDocumentDateKey(timestamp time.Time) []byte {
	prefix := []byte(documentDatePrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkRecordPrefix, id))
}

// makeChunkDocumentKey generates a composite key for the per-document
// position index. Format: prefix:docID:position. BigEndian keeps the
// lexicographic iteration order equal to position order.
func makeChunkDocumentKey(docID core.ID, position int) []byte {
	prefix := []byte(chunkDocumentPrefix + ":")
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(docID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(position))
	return buf
}

// makePartialChunkDocumentKey generates a partial key for iterating one
// document's chunks. Format: prefix:docID
func makePartialChunkDocumentKey(docID core.ID) []byte {
	prefix := []byte(chunkDocumentPrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(docID))
	return buf
}

// makeRelationshipKey generates a composite key for a relationship edge.
// Format: prefix:fromID:toID:type
func makeRelationshipKey(rel *core.ChunkRelationship) []byte {
	prefix := []byte(relationshipPrefix + ":")
	buf := make([]byte, len(prefix)+24)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(rel.FromId))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(rel.ToId))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(rel.Type))
	return buf
}

// makePartialRelationshipKey generates a partial key for iterating the
// outgoing edges of a chunk. Format: prefix:fromID
func makePartialRelationshipKey(fromID core.ID) []byte {
	prefix := []byte(relationshipPrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(fromID))
	return buf
}

// makeTaskKey generates a key for a processing task by ID.
func makeTaskKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", taskRecordPrefix, id))
}

// makeBlobKey generates a key for a content blob.
func makeBlobKey(key string) []byte {
	return []byte(blobPrefix + ":" + key)
}
