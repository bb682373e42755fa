package core

import (
	"math"
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for every persisted record. The wire layout is
// field-by-field in declaration order: varint for ids, counts and enums,
// raw (fixed-width) 32-bit floats for vectors and scores so encoded vectors
// round-trip bit-identically, and microsecond Unix timestamps for times.

// Serializer instances, named the way generated MUS code names them.
var (
	IDMUS           = idSer{}
	VectorMUS       = vectorSer{}
	EntityMUS       = entitySer{}
	DocumentMUS     = documentSer{}
	ChunkMUS        = chunkSer{}
	RelationshipMUS = relationshipSer{}
	TaskMUS         = taskSer{}
)

var (
	stringSliceMUS  = ord.NewSliceSer[string](ord.String)
	entitySliceMUS  = ord.NewSliceSer[ExtractedEntity](EntityMUS)
	float32SliceMUS = ord.NewSliceSer[float32](raw.Float32)
	metadataMUS     = ord.NewMapSer[string, string](ord.String, ord.String)
)

// zeroTimeMark encodes time.Time{} so zero values survive a round trip.
const zeroTimeMark = math.MinInt64

type idSer struct{}

var _ mus.Serializer[ID] = idSer{}

func (idSer) Marshal(id ID, bs []byte) int { return varint.Uint64.Marshal(uint64(id), bs) }

func (idSer) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idSer) Size(id ID) int { return varint.Uint64.Size(uint64(id)) }

func (idSer) Skip(bs []byte) (int, error) { return varint.Uint64.Skip(bs) }

// vectorSer serializes embedding vectors as a length-prefixed sequence of
// fixed-width 32-bit floats. Decoding recovers bit-identical values.
type vectorSer struct{}

var _ mus.Serializer[[]float32] = vectorSer{}

func (vectorSer) Marshal(v []float32, bs []byte) int { return float32SliceMUS.Marshal(v, bs) }

func (vectorSer) Unmarshal(bs []byte) ([]float32, int, error) { return float32SliceMUS.Unmarshal(bs) }

func (vectorSer) Size(v []float32) int { return float32SliceMUS.Size(v) }

func (vectorSer) Skip(bs []byte) (int, error) { return float32SliceMUS.Skip(bs) }

type timeSer struct{}

func (timeSer) Marshal(t time.Time, bs []byte) int {
	if t.IsZero() {
		return raw.Int64.Marshal(zeroTimeMark, bs)
	}
	return raw.Int64.Marshal(t.UnixMicro(), bs)
}

func (timeSer) Unmarshal(bs []byte) (time.Time, int, error) {
	v, n, err := raw.Int64.Unmarshal(bs)
	if err != nil || v == zeroTimeMark {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func (timeSer) Size(time.Time) int { return raw.Int64.Size(0) }

func (timeSer) Skip(bs []byte) (int, error) { return raw.Int64.Skip(bs) }

var timeMUS = timeSer{}

type entitySer struct{}

var _ mus.Serializer[ExtractedEntity] = entitySer{}

func (entitySer) Marshal(e ExtractedEntity, bs []byte) (n int) {
	n = varint.Int.Marshal(int(e.Type), bs)
	n += ord.String.Marshal(e.Value, bs[n:])
	n += raw.Float32.Marshal(e.Confidence, bs[n:])
	n += IDMUS.Marshal(e.ChunkId, bs[n:])
	n += varint.Int.Marshal(e.Offset, bs[n:])
	n += metadataMUS.Marshal(e.Metadata, bs[n:])
	return n
}

func (entitySer) Unmarshal(bs []byte) (e ExtractedEntity, n int, err error) {
	var (
		n1 int
		t  int
	)
	t, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	e.Type = EntityType(t)
	e.Value, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	e.Confidence, n1, err = raw.Float32.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	e.ChunkId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	e.Offset, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	e.Metadata, n1, err = metadataMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (entitySer) Size(e ExtractedEntity) (size int) {
	size = varint.Int.Size(int(e.Type))
	size += ord.String.Size(e.Value)
	size += raw.Float32.Size(e.Confidence)
	size += IDMUS.Size(e.ChunkId)
	size += varint.Int.Size(e.Offset)
	size += metadataMUS.Size(e.Metadata)
	return size
}

func (s entitySer) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type documentSer struct{}

var _ mus.Serializer[Document] = documentSer{}

func (documentSer) Marshal(d Document, bs []byte) (n int) {
	n = IDMUS.Marshal(d.Id, bs)
	n += ord.String.Marshal(d.Title, bs[n:])
	n += timeMUS.Marshal(d.SourceDate, bs[n:])
	n += ord.String.Marshal(d.ContentKey, bs[n:])
	n += varint.Int.Marshal(d.WordCount, bs[n:])
	n += ord.Bool.Marshal(d.Processed, bs[n:])
	n += varint.Int.Marshal(d.ChunkCount, bs[n:])
	n += varint.Int.Marshal(int(d.State), bs[n:])
	n += timeMUS.Marshal(d.ProcessedAt, bs[n:])
	n += timeMUS.Marshal(d.InsertedAt, bs[n:])
	n += timeMUS.Marshal(d.UpdatedAt, bs[n:])
	return n
}

func (documentSer) Unmarshal(bs []byte) (d Document, n int, err error) {
	var (
		n1 int
		st int
	)
	d.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	d.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.SourceDate, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.ContentKey, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.WordCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Processed, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.ChunkCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	st, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.State = DocumentState(st)
	d.ProcessedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (documentSer) Size(d Document) (size int) {
	size = IDMUS.Size(d.Id)
	size += ord.String.Size(d.Title)
	size += timeMUS.Size(d.SourceDate)
	size += ord.String.Size(d.ContentKey)
	size += varint.Int.Size(d.WordCount)
	size += ord.Bool.Size(d.Processed)
	size += varint.Int.Size(d.ChunkCount)
	size += varint.Int.Size(int(d.State))
	size += timeMUS.Size(d.ProcessedAt)
	size += timeMUS.Size(d.InsertedAt)
	size += timeMUS.Size(d.UpdatedAt)
	return size
}

func (s documentSer) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type chunkSer struct{}

var _ mus.Serializer[Chunk] = chunkSer{}

func (chunkSer) Marshal(c Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(c.Id, bs)
	n += IDMUS.Marshal(c.DocumentId, bs[n:])
	n += varint.Int.Marshal(c.Position, bs[n:])
	n += varint.Int.Marshal(int(c.Type), bs[n:])
	n += ord.String.Marshal(c.Content, bs[n:])
	n += ord.String.Marshal(c.Speaker, bs[n:])
	n += varint.Int64.Marshal(int64(c.StartOffset), bs[n:])
	n += varint.Int64.Marshal(int64(c.EndOffset), bs[n:])
	n += varint.Int.Marshal(c.TokenCount, bs[n:])
	n += raw.Float32.Marshal(c.Importance, bs[n:])
	n += stringSliceMUS.Marshal(c.Topics, bs[n:])
	n += entitySliceMUS.Marshal(c.Entities, bs[n:])
	n += VectorMUS.Marshal(c.Vector, bs[n:])
	n += ord.String.Marshal(c.EmbeddingModel, bs[n:])
	n += IDMUS.Marshal(c.PrevId, bs[n:])
	n += IDMUS.Marshal(c.NextId, bs[n:])
	n += IDMUS.Marshal(c.ParentId, bs[n:])
	n += timeMUS.Marshal(c.InsertedAt, bs[n:])
	n += timeMUS.Marshal(c.UpdatedAt, bs[n:])
	return n
}

func (chunkSer) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	var (
		n1  int
		num int64
		t   int
	)
	c.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	c.DocumentId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Position, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Type = ChunkType(t)
	c.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Speaker, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	num, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.StartOffset = time.Duration(num)
	num, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.EndOffset = time.Duration(num)
	c.TokenCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Importance, n1, err = raw.Float32.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Topics, n1, err = stringSliceMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Entities, n1, err = entitySliceMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Vector, n1, err = VectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.EmbeddingModel, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.PrevId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.NextId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.ParentId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (chunkSer) Size(c Chunk) (size int) {
	size = IDMUS.Size(c.Id)
	size += IDMUS.Size(c.DocumentId)
	size += varint.Int.Size(c.Position)
	size += varint.Int.Size(int(c.Type))
	size += ord.String.Size(c.Content)
	size += ord.String.Size(c.Speaker)
	size += varint.Int64.Size(int64(c.StartOffset))
	size += varint.Int64.Size(int64(c.EndOffset))
	size += varint.Int.Size(c.TokenCount)
	size += raw.Float32.Size(c.Importance)
	size += stringSliceMUS.Size(c.Topics)
	size += entitySliceMUS.Size(c.Entities)
	size += VectorMUS.Size(c.Vector)
	size += ord.String.Size(c.EmbeddingModel)
	size += IDMUS.Size(c.PrevId)
	size += IDMUS.Size(c.NextId)
	size += IDMUS.Size(c.ParentId)
	size += timeMUS.Size(c.InsertedAt)
	size += timeMUS.Size(c.UpdatedAt)
	return size
}

func (s chunkSer) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type relationshipSer struct{}

var _ mus.Serializer[ChunkRelationship] = relationshipSer{}

func (relationshipSer) Marshal(r ChunkRelationship, bs []byte) (n int) {
	n = IDMUS.Marshal(r.FromId, bs)
	n += IDMUS.Marshal(r.ToId, bs[n:])
	n += varint.Int.Marshal(int(r.Type), bs[n:])
	n += raw.Float32.Marshal(r.Strength, bs[n:])
	return n
}

func (relationshipSer) Unmarshal(bs []byte) (r ChunkRelationship, n int, err error) {
	var (
		n1 int
		t  int
	)
	r.FromId, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	r.ToId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Type = RelationshipType(t)
	r.Strength, n1, err = raw.Float32.Unmarshal(bs[n:])
	n += n1
	return
}

func (relationshipSer) Size(r ChunkRelationship) (size int) {
	size = IDMUS.Size(r.FromId)
	size += IDMUS.Size(r.ToId)
	size += varint.Int.Size(int(r.Type))
	size += raw.Float32.Size(r.Strength)
	return size
}

func (s relationshipSer) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type taskSer struct{}

var _ mus.Serializer[ProcessingTask] = taskSer{}

func (taskSer) Marshal(t ProcessingTask, bs []byte) (n int) {
	n = IDMUS.Marshal(t.Id, bs)
	n += varint.Int.Marshal(int(t.Type), bs[n:])
	n += IDMUS.Marshal(t.DocumentId, bs[n:])
	n += ord.String.Marshal(t.Payload, bs[n:])
	n += varint.Int.Marshal(int(t.Status), bs[n:])
	n += varint.Int.Marshal(t.Priority, bs[n:])
	n += varint.Int.Marshal(t.Attempts, bs[n:])
	n += ord.String.Marshal(t.LastError, bs[n:])
	n += timeMUS.Marshal(t.ScheduledAt, bs[n:])
	n += ord.String.Marshal(t.ClaimedBy, bs[n:])
	n += timeMUS.Marshal(t.LeaseUntil, bs[n:])
	n += timeMUS.Marshal(t.InsertedAt, bs[n:])
	n += timeMUS.Marshal(t.UpdatedAt, bs[n:])
	return n
}

func (taskSer) Unmarshal(bs []byte) (t ProcessingTask, n int, err error) {
	var (
		n1  int
		num int
	)
	t.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	num, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.Type = TaskType(num)
	t.DocumentId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.Payload, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	num, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.Status = TaskStatus(num)
	t.Priority, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.Attempts, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.LastError, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.ScheduledAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.ClaimedBy, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.LeaseUntil, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (taskSer) Size(t ProcessingTask) (size int) {
	size = IDMUS.Size(t.Id)
	size += varint.Int.Size(int(t.Type))
	size += IDMUS.Size(t.DocumentId)
	size += ord.String.Size(t.Payload)
	size += varint.Int.Size(int(t.Status))
	size += varint.Int.Size(t.Priority)
	size += varint.Int.Size(t.Attempts)
	size += ord.String.Size(t.LastError)
	size += timeMUS.Size(t.ScheduledAt)
	size += ord.String.Size(t.ClaimedBy)
	size += timeMUS.Size(t.LeaseUntil)
	size += timeMUS.Size(t.InsertedAt)
	size += timeMUS.Size(t.UpdatedAt)
	return size
}

func (s taskSer) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}
