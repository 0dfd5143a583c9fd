package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/quotesheet/internal/export"
	"github.com/dgallion1/quotesheet/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// WarningsHeader carries the number of per-document warnings on a
// synchronous export, and WarningHeader repeats once per warning text.
const (
	WarningsHeader = "X-Quotesheet-Warnings"
	WarningHeader  = "X-Quotesheet-Warning"
)

// maxFieldBytes bounds a single non-file form field.
const maxFieldBytes = 64 << 10

// errTooLarge marks an upload rejected for size.
var errTooLarge = errors.New("file exceeds max size")

// readUpload streams the multipart body: the files under "files" and the
// run parameters, falling back to configured defaults for omitted fields.
// Files past the batch limit are rejected as soon as the first extra one
// starts, before the body size limit can trip.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]pipeline.Document, export.RunParams, error) {
	maxFiles := min(s.cfg.MaxFilesPerBatch, pipeline.MaxDocuments)
	// Extra 1MB for form overhead.
	limit := s.cfg.MaxUploadBytes*int64(maxFiles) + 1024*1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, export.RunParams{}, fmt.Errorf("invalid multipart form: %w", err)
	}

	fields := make(map[string]string)
	var docs []pipeline.Document
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, export.RunParams{}, fmt.Errorf("invalid multipart form: %w", err)
		}

		name := part.FormName()
		switch {
		case name == "files" && part.FileName() != "":
			if len(docs) == maxFiles {
				part.Close()
				return nil, export.RunParams{}, pipeline.ErrTooManyDocuments
			}
			doc, err := s.readFilePart(part)
			part.Close()
			if err != nil {
				return nil, export.RunParams{}, err
			}
			docs = append(docs, doc)
		case name == "files":
			// An empty file input still sends a part with no filename.
			part.Close()
		default:
			val, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
			part.Close()
			if err != nil {
				return nil, export.RunParams{}, fmt.Errorf("read field %s: %w", name, err)
			}
			if _, seen := fields[name]; !seen {
				fields[name] = strings.TrimSpace(string(val))
			}
		}
	}

	run := export.RunParams{
		ReferralManager: fieldOr(fields, "referral_manager", s.cfg.DefaultReferralManager),
		ReferralEmail:   fieldOr(fields, "referral_email", s.cfg.DefaultReferralEmail),
		Brand:           fieldOr(fields, "brand", s.cfg.DefaultBrand),
	}
	return docs, run, nil
}

func (s *Server) readFilePart(part *multipart.Part) (pipeline.Document, error) {
	filename := sanitizeFilename(part.FileName())
	data, err := io.ReadAll(io.LimitReader(part, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return pipeline.Document{}, fmt.Errorf("read %s: %w", filename, err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return pipeline.Document{}, fmt.Errorf("%w (%s, %d bytes)", errTooLarge, filename, s.cfg.MaxUploadBytes)
	}
	return pipeline.Document{Filename: filename, Data: data}, nil
}

// fieldOr returns the form value when the field was sent at all, so an
// explicitly empty field overrides a non-empty default.
func fieldOr(fields map[string]string, key, fallback string) string {
	if v, ok := fields[key]; ok {
		return v
	}
	return fallback
}

func uploadErrorStatus(err error) int {
	var maxErr *http.MaxBytesError
	if errors.Is(err, errTooLarge) || errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// handleExtract processes the upload in the request and answers with the
// workbook directly.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	docs, run, err := s.readUpload(w, r)
	if err != nil {
		jsonError(w, err.Error(), uploadErrorStatus(err))
		return
	}

	res, err := s.orchestrator.Processor().Run(r.Context(), docs, run, nil)
	switch {
	case errors.Is(err, pipeline.ErrNoDocuments), errors.Is(err, pipeline.ErrTooManyDocuments):
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, pipeline.ErrNoLineItems):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":    err.Error(),
			"warnings": res.Warnings,
		})
		return
	case err != nil:
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data, err := export.WriteXLSX(res.Records)
	if err != nil {
		s.log.Error("xlsx export failed", "error", err)
		jsonError(w, "failed to build spreadsheet", http.StatusInternalServerError)
		return
	}

	s.log.Info("extracted", "documents", res.Documents, "line_items", len(res.Records), "warnings", len(res.Warnings))
	w.Header().Set(WarningsHeader, strconv.Itoa(len(res.Warnings)))
	for _, warning := range res.Warnings {
		w.Header().Add(WarningHeader, headerSafe(warning))
	}
	writeAttachment(w, export.XLSXFilename, export.XLSXContentType, data)
}

func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	docs, run, err := s.readUpload(w, r)
	if err != nil {
		jsonError(w, err.Error(), uploadErrorStatus(err))
		return
	}

	b := pipeline.NewBatch(docs, run)
	if err := s.orchestrator.Submit(b); err != nil {
		code := http.StatusServiceUnavailable
		if errors.Is(err, pipeline.ErrNoDocuments) || errors.Is(err, pipeline.ErrTooManyDocuments) {
			code = http.StatusBadRequest
		}
		jsonError(w, err.Error(), code)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"batch_id":  b.ID,
		"status":    pipeline.StatusQueued,
		"documents": len(docs),
		"poll_url":  fmt.Sprintf("/api/batches/%s", b.ID),
	})
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	b := s.orchestrator.GetBatch(chi.URLParam(r, "batchID"))
	if b == nil {
		jsonError(w, "batch not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, b.Snapshot())
}

func (s *Server) handleBatchXLSX(w http.ResponseWriter, r *http.Request) {
	records, ok := s.batchRecords(w, r)
	if !ok {
		return
	}
	data, err := export.WriteXLSX(records)
	if err != nil {
		s.log.Error("xlsx export failed", "error", err)
		jsonError(w, "failed to build spreadsheet", http.StatusInternalServerError)
		return
	}
	writeAttachment(w, export.XLSXFilename, export.XLSXContentType, data)
}

func (s *Server) handleBatchCSV(w http.ResponseWriter, r *http.Request) {
	records, ok := s.batchRecords(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, records); err != nil {
		s.log.Error("csv export failed", "error", err)
		jsonError(w, "failed to build csv", http.StatusInternalServerError)
		return
	}
	writeAttachment(w, export.CSVFilename, export.CSVContentType, buf.Bytes())
}

// batchRecords looks up a completed batch, writing the error response
// itself when there is none.
func (s *Server) batchRecords(w http.ResponseWriter, r *http.Request) ([]export.Record, bool) {
	b := s.orchestrator.GetBatch(chi.URLParam(r, "batchID"))
	if b == nil {
		jsonError(w, "batch not found", http.StatusNotFound)
		return nil, false
	}
	records, ok := b.Records()
	if !ok {
		snap := b.Snapshot()
		msg := fmt.Sprintf("batch is %s", snap.Status)
		if snap.Error != "" {
			msg += ": " + snap.Error
		}
		jsonError(w, msg, http.StatusConflict)
		return nil, false
	}
	return records, true
}

func writeAttachment(w http.ResponseWriter, filename, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// headerSafe folds control characters, which a header value cannot carry,
// into spaces.
func headerSafe(v string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, v)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
