package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/quotesheet/internal/export"
	"github.com/dgallion1/quotesheet/internal/parser"
	"github.com/dgallion1/quotesheet/internal/quote"
)

// MaxDocuments is the largest batch a single run accepts.
const MaxDocuments = 100

var (
	ErrNoDocuments      = errors.New("please upload at least one document")
	ErrTooManyDocuments = fmt.Errorf("please upload %d documents or fewer at a time", MaxDocuments)
	ErrNoLineItems      = errors.New("no line items were found in the uploaded documents")
)

// DocumentError is a failure confined to one document of a batch.
type DocumentError struct {
	Filename string
	Err      error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("Error processing %s: %s", e.Filename, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// Document is one uploaded file. ReadErr records a file whose bytes could
// not be read; the run reports it as a failed document.
type Document struct {
	Filename string
	Data     []byte
	ReadErr  error
}

// Result is the outcome of a batch run.
type Result struct {
	Records   []export.Record `json:"-"`
	Warnings  []string        `json:"warnings"`
	Documents int             `json:"documents"`
}

// ProgressFunc is called after each document, successful or not.
type ProgressFunc func(done, total int, filename string)

// Processor turns a batch of documents into export records.
type Processor struct {
	opts     parser.Options
	maxFiles int
	stats    *ExtractStats
	log      *slog.Logger
}

// NewProcessor returns a processor. maxFiles is capped at MaxDocuments;
// stats may be nil.
func NewProcessor(opts parser.Options, maxFiles int, stats *ExtractStats, log *slog.Logger) *Processor {
	if maxFiles <= 0 || maxFiles > MaxDocuments {
		maxFiles = MaxDocuments
	}
	return &Processor{
		opts:     opts,
		maxFiles: maxFiles,
		stats:    stats,
		log:      log,
	}
}

// Stats returns the processor's extraction stats, or nil.
func (p *Processor) Stats() *ExtractStats {
	return p.stats
}

// Validate checks the batch size.
func (p *Processor) Validate(n int) error {
	if n == 0 {
		return ErrNoDocuments
	}
	if n > p.maxFiles {
		return ErrTooManyDocuments
	}
	return nil
}

// Run processes docs one at a time in order. A document that fails is
// reported in Result.Warnings and skipped. Run returns ErrNoLineItems, along
// with the partial result, when no document produced a record.
func (p *Processor) Run(ctx context.Context, docs []Document, run export.RunParams, progress ProgressFunc) (*Result, error) {
	if err := p.Validate(len(docs)); err != nil {
		return nil, err
	}

	res := &Result{Documents: len(docs), Warnings: []string{}}
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		recs, err := p.ProcessDocument(doc, run)
		if err != nil {
			p.log.Warn("document failed", "file", doc.Filename, "error", err)
			res.Warnings = append(res.Warnings, err.Error())
		} else {
			res.Records = append(res.Records, recs...)
		}

		if progress != nil {
			progress(i+1, len(docs), doc.Filename)
		}
	}

	if len(res.Records) == 0 {
		return res, ErrNoLineItems
	}
	return res, nil
}

// ProcessDocument extracts one document. Any failure, including a panic in
// a decoder, comes back as a *DocumentError.
func (p *Processor) ProcessDocument(doc Document, run export.RunParams) (recs []export.Record, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			recs = nil
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			err = &DocumentError{Filename: doc.Filename, Err: err}
		}
		if p.stats != nil {
			p.stats.Record(time.Since(start), err != nil)
		}
	}()

	if doc.ReadErr != nil {
		return nil, doc.ReadErr
	}
	ps, err := parser.ForFile(doc.Filename, p.opts)
	if err != nil {
		return nil, err
	}
	text, err := ps.Parse(bytes.NewReader(doc.Data), doc.Filename)
	if err != nil {
		return nil, err
	}

	q := quote.Parse(text)
	recs = export.BuildRecords(q, doc.Filename, run)
	p.log.Debug("document extracted", "file", doc.Filename, "items", len(recs), "header_fields", len(q.Header))
	return recs, nil
}
