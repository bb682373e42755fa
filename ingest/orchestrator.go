package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/minutia/core"
	"github.com/poiesic/minutia/embed"
	"github.com/poiesic/minutia/segment"
	"github.com/poiesic/minutia/storage"
)

const (
	// DefaultLease is how long a claimed task stays invisible to other workers.
	DefaultLease = 5 * time.Minute

	// DefaultPollInterval is the idle wait between claim attempts.
	DefaultPollInterval = 2 * time.Second

	// DefaultSyncLimit caps how many transcripts one SyncRecent pass ingests.
	DefaultSyncLimit = 50

	// DefaultRetention is how long terminal tasks are kept for inspection.
	DefaultRetention = 7 * 24 * time.Hour

	// webhookPriority puts webhook-delivered documents ahead of batch sync.
	webhookPriority = 10
)

// Orchestrator drives documents through the processing pipeline: fetch raw
// content, segment it into chunks, embed the chunks, and persist the result.
// Work is queued as durable tasks and claimed under a lease, so a crashed
// worker's task becomes claimable again.
type Orchestrator struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	tasks     storage.TaskQueue
	blobs     storage.BlobStore
	segmenter *segment.Segmenter
	client    *embed.Client
	source    TranscriptSource

	pool         *ants.Pool
	workers      int
	lease        time.Duration
	pollInterval time.Duration
	syncLimit    int
	backoff      BackoffPolicy
	retention    time.Duration
	secret       []byte
	clock        Clock
	logger       *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithWorkers sets the worker pool size for Run.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) error {
		if n < 1 {
			n = 1
		}
		if o.pool != nil {
			o.pool.Release()
		}
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		o.pool = pool
		o.workers = n
		return nil
	}
}

// WithLease sets the claim lease duration.
// Default is DefaultLease.
func WithLease(lease time.Duration) Option {
	return func(o *Orchestrator) error {
		if lease > 0 {
			o.lease = lease
		}
		return nil
	}
}

// WithPollInterval sets the idle wait between claim attempts in Run.
// Default is DefaultPollInterval.
func WithPollInterval(interval time.Duration) Option {
	return func(o *Orchestrator) error {
		if interval > 0 {
			o.pollInterval = interval
		}
		return nil
	}
}

// WithSyncLimit caps how many transcripts one SyncRecent pass ingests.
// Default is DefaultSyncLimit.
func WithSyncLimit(limit int) Option {
	return func(o *Orchestrator) error {
		if limit > 0 {
			o.syncLimit = limit
		}
		return nil
	}
}

// WithBackoff sets the retry policy for failed tasks.
// Default is DefaultBackoff.
func WithBackoff(policy BackoffPolicy) Option {
	return func(o *Orchestrator) error {
		if policy.MaxAttempts < 1 {
			policy.MaxAttempts = 1
		}
		o.backoff = policy
		return nil
	}
}

// WithRetention sets how long terminal tasks survive before Housekeep
// purges them. Default is DefaultRetention.
func WithRetention(retention time.Duration) Option {
	return func(o *Orchestrator) error {
		if retention > 0 {
			o.retention = retention
		}
		return nil
	}
}

// WithSource sets the external transcript source used by SyncRecent and by
// workers recovering a missing blob.
func WithSource(source TranscriptSource) Option {
	return func(o *Orchestrator) error {
		o.source = source
		return nil
	}
}

// WithWebhookSecret enables HMAC-SHA256 verification of webhook payloads.
// Without a secret, signatures are not checked.
func WithWebhookSecret(secret []byte) Option {
	return func(o *Orchestrator) error {
		o.secret = secret
		return nil
	}
}

// WithClock sets the time source, for deterministic scheduling tests.
// Default is the system clock.
func WithClock(clock Clock) Option {
	return func(o *Orchestrator) error {
		if clock == nil {
			clock = systemClock{}
		}
		o.clock = clock
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates a new orchestrator.
func NewOrchestrator(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	tasks storage.TaskQueue,
	blobs storage.BlobStore,
	segmenter *segment.Segmenter,
	client *embed.Client,
	opts ...Option,
) (*Orchestrator, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if tasks == nil {
		return nil, ErrTaskQueueRequired
	}
	if blobs == nil {
		return nil, ErrBlobStoreRequired
	}
	if segmenter == nil {
		return nil, ErrSegmenterRequired
	}
	if client == nil {
		return nil, ErrEmbedClientRequired
	}

	workers := runtime.NumCPU() / 2
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		documents:    documents,
		chunks:       chunks,
		tasks:        tasks,
		blobs:        blobs,
		segmenter:    segmenter,
		client:       client,
		pool:         pool,
		workers:      workers,
		lease:        DefaultLease,
		pollInterval: DefaultPollInterval,
		syncLimit:    DefaultSyncLimit,
		backoff:      DefaultBackoff,
		retention:    DefaultRetention,
		clock:        systemClock{},
		logger:       slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if optErr := opt(o); optErr != nil {
			o.Release()
			return nil, optErr
		}
	}

	return o, nil
}

// SyncRecent lists transcripts from the source that are newer than the most
// recent known document, stores them and enqueues processing tasks.
func (o *Orchestrator) SyncRecent(ctx context.Context) (*SyncReport, error) {
	if o.source == nil {
		return nil, ErrSourceRequired
	}

	var since time.Time
	recent, err := o.documents.GetRecentDocuments(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(recent) > 0 {
		since = recent[0].SourceDate
	}

	transcripts, err := o.source.ListRecent(ctx, since, o.syncLimit)
	if err != nil {
		return nil, err
	}

	report := &SyncReport{Listed: len(transcripts)}
	for _, transcript := range transcripts {
		id := documentID(transcript.Ref)

		existing, err := o.documents.GetDocument(ctx, id)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			o.logger.Error("error checking for existing document", "ref", transcript.Ref, "err", err)
			report.Failed++
			continue
		}
		if existing != nil && existing.Processed {
			report.Skipped++
			continue
		}

		if err := o.admit(ctx, id, transcript); err != nil {
			o.logger.Error("error ingesting transcript", "ref", transcript.Ref, "err", err)
			report.Failed++
			continue
		}
		if _, err := o.tasks.Enqueue(ctx, &core.ProcessingTask{
			Type:        core.TaskTypeSync,
			DocumentId:  id,
			Payload:     transcript.Ref,
			ScheduledAt: o.clock.Now(),
		}); err != nil {
			o.logger.Error("error enqueueing sync task", "ref", transcript.Ref, "err", err)
			report.Failed++
			continue
		}
		report.Created++
	}

	o.logger.Info("sync pass complete",
		"listed", report.Listed, "created", report.Created,
		"skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

// HandleWebhookEvent verifies, stores and enqueues a pushed transcript.
// Returns the created task. Payloads failing signature verification create
// no task.
func (o *Orchestrator) HandleWebhookEvent(ctx context.Context, payload []byte, signature string) (*core.ProcessingTask, error) {
	if len(o.secret) > 0 {
		if err := verifySignature(o.secret, payload, signature); err != nil {
			o.logger.Warn("rejected webhook payload", "err", err)
			return nil, err
		}
	}

	event, err := parseWebhookEvent(payload)
	if err != nil {
		return nil, err
	}

	transcript := &SourceTranscript{
		Ref:        event.Ref,
		Title:      event.Title,
		SourceDate: event.SourceDate,
		Content:    event.Content,
	}
	id := documentID(event.Ref)
	if err := o.admit(ctx, id, transcript); err != nil {
		return nil, err
	}

	return o.tasks.Enqueue(ctx, &core.ProcessingTask{
		Type:        core.TaskTypeWebhookRetry,
		DocumentId:  id,
		Payload:     event.Ref,
		Priority:    webhookPriority,
		ScheduledAt: o.clock.Now(),
	})
}

// admit upserts the document record and stores its raw content, leaving the
// document in the fetched state when content was carried.
func (o *Orchestrator) admit(ctx context.Context, id core.ID, transcript *SourceTranscript) error {
	doc := &core.Document{
		Id:         id,
		Title:      transcript.Title,
		SourceDate: transcript.SourceDate,
		ContentKey: contentKey(transcript.Ref),
		WordCount:  len(strings.Fields(transcript.Content)),
		State:      core.DocumentStateNew,
	}
	if _, err := o.documents.PutDocument(ctx, doc); err != nil {
		return err
	}

	if transcript.Content != "" {
		if err := o.blobs.PutBlob(ctx, doc.ContentKey, []byte(transcript.Content)); err != nil {
			return err
		}
		if err := o.documents.UpdateState(ctx, id, core.DocumentStateFetched); err != nil {
			return err
		}
	}
	return nil
}

// Run processes tasks with the configured worker pool until the context is
// cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < o.workers; i++ {
		workerID := fmt.Sprintf("worker-%d", i)
		wg.Add(1)
		err := o.pool.Submit(func() {
			defer wg.Done()
			o.workLoop(ctx, workerID)
		})
		if err != nil {
			wg.Done()
			return err
		}
	}
	wg.Wait()
	return nil
}

func (o *Orchestrator) workLoop(ctx context.Context, workerID string) {
	for {
		processed, err := o.processNext(ctx, workerID)
		if err != nil {
			o.logger.Error("worker error", "worker", workerID, "err", err)
		}
		if processed {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(o.pollInterval):
		}
	}
}

// ProcessOnce claims and processes a single task.
// Returns false when nothing was due.
func (o *Orchestrator) ProcessOnce(ctx context.Context) (bool, error) {
	return o.processNext(ctx, "worker-0")
}

// Drain processes tasks until none are due, returning how many were claimed.
func (o *Orchestrator) Drain(ctx context.Context) (int, error) {
	processed := 0
	for {
		ok, err := o.ProcessOnce(ctx)
		if err != nil {
			return processed, err
		}
		if !ok {
			return processed, nil
		}
		processed++
	}
}

func (o *Orchestrator) processNext(ctx context.Context, workerID string) (bool, error) {
	now := o.clock.Now()
	task, err := o.tasks.Claim(ctx, workerID, now, o.lease)
	if err != nil {
		return false, err
	}
	if task == nil {
		return false, nil
	}

	if err := o.processTask(ctx, task); err != nil {
		o.handleFailure(ctx, task, err)
		return true, nil
	}

	if err := o.tasks.Complete(ctx, task.Id); err != nil {
		return true, err
	}
	o.logger.Info("task completed", "task", task.Id, "document", task.DocumentId, "attempts", task.Attempts)
	return true, nil
}

// processTask drives one document through segment, embed and persist.
// Each stage advances the document state; a failure leaves the document at
// its last successful state for the retry to resume from.
func (o *Orchestrator) processTask(ctx context.Context, task *core.ProcessingTask) error {
	doc, err := o.documents.GetDocument(ctx, task.DocumentId)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: document %d missing", ErrDataIntegrity, task.DocumentId)
		}
		return err
	}

	text, err := o.fetchContent(ctx, doc, task)
	if err != nil {
		return err
	}

	result, err := o.segmenter.Segment(doc, text)
	if err != nil {
		return fmt.Errorf("segmenting document %d: %w", doc.Id, err)
	}
	if err := o.documents.UpdateState(ctx, doc.Id, core.DocumentStateSegmented); err != nil {
		return err
	}

	if err := o.embedChunks(ctx, result.Chunks); err != nil {
		return err
	}
	if err := o.documents.UpdateState(ctx, doc.Id, core.DocumentStateEmbedded); err != nil {
		return err
	}

	if err := o.chunks.ReplaceDocumentChunks(ctx, doc.Id, result.Chunks, result.Relationships); err != nil {
		return err
	}
	return o.documents.MarkProcessed(ctx, doc.Id, len(result.Chunks), o.clock.Now())
}

// fetchContent loads the document's raw text, recovering a missing blob from
// the transcript source when the task carries an external reference.
func (o *Orchestrator) fetchContent(ctx context.Context, doc *core.Document, task *core.ProcessingTask) (string, error) {
	blob, err := o.blobs.GetBlob(ctx, doc.ContentKey)
	if err == nil {
		return string(blob), nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return "", err
	}

	if o.source == nil || task.Payload == "" {
		return "", fmt.Errorf("%w: blob %q missing for document %d", ErrDataIntegrity, doc.ContentKey, doc.Id)
	}

	transcript, err := o.source.GetById(ctx, task.Payload)
	if err != nil {
		return "", fmt.Errorf("fetching transcript %q: %w", task.Payload, err)
	}
	if err := o.blobs.PutBlob(ctx, doc.ContentKey, []byte(transcript.Content)); err != nil {
		return "", err
	}
	if err := o.documents.UpdateState(ctx, doc.Id, core.DocumentStateFetched); err != nil {
		return "", err
	}
	return transcript.Content, nil
}

// embedChunks populates each chunk's vector in batches. Any failed item
// fails the stage; retrying re-embeds the whole document.
func (o *Orchestrator) embedChunks(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	results, err := o.client.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	for i, result := range results {
		if result.Err != nil {
			return fmt.Errorf("embedding chunk %d: %w", chunks[i].Id, result.Err)
		}
		chunks[i].Vector = result.Vector
		chunks[i].EmbeddingModel = o.client.Model()
	}
	return nil
}

// handleFailure requeues a failed task with backoff, or fails it permanently
// at the attempt ceiling. Data-integrity failures never retry.
func (o *Orchestrator) handleFailure(ctx context.Context, task *core.ProcessingTask, cause error) {
	now := o.clock.Now()

	permanent := errors.Is(cause, ErrDataIntegrity) || task.Attempts >= o.backoff.MaxAttempts
	if permanent {
		o.logger.Error("task failed permanently",
			"task", task.Id, "document", task.DocumentId, "attempts", task.Attempts, "err", cause)
		if err := o.tasks.Fail(ctx, task.Id, cause.Error()); err != nil {
			o.logger.Error("error failing task", "task", task.Id, "err", err)
		}
		if err := o.documents.UpdateState(ctx, task.DocumentId, core.DocumentStateFailed); err != nil && !errors.Is(err, storage.ErrNotFound) {
			o.logger.Error("error marking document failed", "document", task.DocumentId, "err", err)
		}
		return
	}

	runAt := now.Add(o.backoff.Delay(task.Attempts))
	o.logger.Warn("task failed, requeueing",
		"task", task.Id, "document", task.DocumentId, "attempts", task.Attempts, "runAt", runAt, "err", cause)
	if err := o.tasks.Requeue(ctx, task.Id, cause.Error(), runAt); err != nil {
		o.logger.Error("error requeueing task", "task", task.Id, "err", err)
	}
}

// Housekeep purges terminal tasks older than the retention window.
func (o *Orchestrator) Housekeep(ctx context.Context) (int, error) {
	cutoff := o.clock.Now().Add(-o.retention)
	purged, err := o.tasks.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		o.logger.Info("purged terminal tasks", "count", purged, "cutoff", cutoff)
	}
	return purged, nil
}

// Release releases the worker pool.
// The orchestrator should not be used after calling Release.
func (o *Orchestrator) Release() {
	if o.pool != nil {
		o.pool.Release()
	}
}

// documentID derives a stable document ID from a transcript's external
// reference, keeping repeated deliveries idempotent.
func documentID(ref string) core.ID {
	return core.IDFromContent("transcript|" + ref)
}

func contentKey(ref string) string {
	return "transcripts/" + ref
}
