package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/quotesheet/internal/export"
)

// BatchStatus represents the state of an extraction batch.
type BatchStatus string

const (
	StatusQueued     BatchStatus = "queued"
	StatusProcessing BatchStatus = "processing"
	StatusCompleted  BatchStatus = "completed"
	StatusFailed     BatchStatus = "failed"
)

// PreviewRows is how many records a snapshot carries.
const PreviewRows = 50

// Batch tracks the state of one uploaded set of documents.
type Batch struct {
	mu sync.Mutex

	ID     string
	Status BatchStatus
	Phase  string
	Run    export.RunParams

	Progress Progress

	CreatedAt time.Time
	UpdatedAt time.Time

	// Internal: not serialized.
	docs     []Document
	records  []export.Record
	warnings []string
	err      string
}

// Progress tracks processing progress.
type Progress struct {
	TotalDocuments int    `json:"total_documents"`
	DocumentsDone  int    `json:"documents_done"`
	Current        string `json:"current,omitempty"`
	LineItems      int    `json:"line_items"`
}

// NewBatch returns a queued batch with a fresh ID.
func NewBatch(docs []Document, run export.RunParams) *Batch {
	now := time.Now()
	return &Batch{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Phase:     "queued",
		Run:       run,
		Progress:  Progress{TotalDocuments: len(docs)},
		CreatedAt: now,
		UpdatedAt: now,
		docs:      docs,
	}
}

// BatchStore is a thread-safe in-memory batch registry with TTL eviction.
type BatchStore struct {
	mu      sync.Mutex
	batches map[string]*Batch
	ttl     time.Duration
}

func NewBatchStore(ttl time.Duration) *BatchStore {
	return &BatchStore{
		batches: make(map[string]*Batch),
		ttl:     ttl,
	}
}

func (s *BatchStore) Put(b *Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[b.ID] = b
}

func (s *BatchStore) Get(id string) *Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches[id]
}

// Len returns the number of tracked batches.
func (s *BatchStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

// Cleanup removes expired batches.
func (s *BatchStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, b := range s.batches {
		if now.Sub(b.updatedAt()) > s.ttl {
			delete(s.batches, id)
		}
	}
}

func (b *Batch) updatedAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.UpdatedAt
}

// SetStatus updates batch status atomically.
func (b *Batch) SetStatus(status BatchStatus, phase string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Status = status
	b.Phase = phase
	b.UpdatedAt = time.Now()
}

// SetProgress records that done of the batch's documents are finished, the
// last one being filename.
func (b *Batch) SetProgress(done int, filename string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Progress.DocumentsDone = done
	b.Progress.Current = filename
	b.UpdatedAt = time.Now()
}

// takeDocuments hands the uploaded files to the worker and drops the
// batch's reference to them.
func (b *Batch) takeDocuments() []Document {
	b.mu.Lock()
	defer b.mu.Unlock()
	docs := b.docs
	b.docs = nil
	return docs
}

// Finish stores the outcome of a run. A nil res with a non-nil err marks the
// batch failed without results.
func (b *Batch) Finish(res *Result, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if res != nil {
		b.records = res.Records
		b.warnings = res.Warnings
		b.Progress.LineItems = len(res.Records)
	}
	b.Progress.Current = ""
	if err != nil {
		b.err = err.Error()
		b.Status = StatusFailed
		b.Phase = "failed"
	} else {
		b.Status = StatusCompleted
		b.Phase = "done"
	}
	b.UpdatedAt = time.Now()
}

// Records returns the batch's records once it has completed.
func (b *Batch) Records() ([]export.Record, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Status != StatusCompleted {
		return nil, false
	}
	return b.records, true
}

// BatchSnapshot is a read-only, JSON-safe copy of batch state.
type BatchSnapshot struct {
	ID       string      `json:"batch_id"`
	Status   BatchStatus `json:"status"`
	Phase    string      `json:"phase"`
	Progress Progress    `json:"progress"`
	Warnings []string    `json:"warnings"`
	Error    string      `json:"error,omitempty"`
	Columns  []string    `json:"columns,omitempty"`
	Preview  [][]any     `json:"preview,omitempty"`
}

// Snapshot returns a JSON-safe copy of the batch state with up to
// PreviewRows records.
func (b *Batch) Snapshot() BatchSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	warnings := make([]string, len(b.warnings))
	copy(warnings, b.warnings)

	snap := BatchSnapshot{
		ID:       b.ID,
		Status:   b.Status,
		Phase:    b.Phase,
		Progress: b.Progress,
		Warnings: warnings,
		Error:    b.err,
	}
	if len(b.records) > 0 {
		n := min(len(b.records), PreviewRows)
		snap.Columns = export.Columns
		snap.Preview = make([][]any, 0, n)
		for _, rec := range b.records[:n] {
			snap.Preview = append(snap.Preview, rec.Values())
		}
	}
	return snap
}
