package api

import (
	"bytes"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"os"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/dgallion1/quotesheet/internal/pipeline"
)

const helpMarkdown = `Upload Cadre Wire quote PDFs and download all line items in a single Excel file.

- Supports up to **100 documents** per run.
- Designed for the **same layout and alignment** as the standard Cadre quote.
- Each product line item becomes its own row in the spreadsheet.
- Text-layer PDFs only; scanned images are not read.
`

var uploadForm = template.Must(template.New("upload").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Cadre Quote PDF to Excel</title></head>
<body>
<h1>Cadre Quote PDF to Excel Extractor</h1>
<div class="help">{{.Help}}</div>
{{if .AuthEnabled}}<p><em>This server requires an API key; submit with a client that sends an Authorization header.</em></p>{{end}}
<form method="post" action="/extract" enctype="multipart/form-data">
  <p><label>Referral Manager (optional) <input type="text" name="referral_manager" value="{{.ReferralManager}}"></label></p>
  <p><label>Referral Email <input type="text" name="referral_email" value="{{.ReferralEmail}}"></label></p>
  <p><label>Brand <input type="text" name="brand" value="{{.Brand}}"></label></p>
  <p><label>Upload up to {{.MaxFiles}} quote documents <input type="file" name="files" multiple accept=".pdf,.docx,.html,.htm,.txt"></label></p>
  <p><button type="submit">Process documents</button></p>
</form>
</body>
</html>
`))

var resultPage = template.Must(template.New("result").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Cadre Quote PDF to Excel</title></head>
<body>
<h1>Cadre Quote PDF to Excel Extractor</h1>
{{range .Warnings}}<p class="warning">{{.}}</p>
{{end}}{{if .Error}}<p class="error">{{.Error}}</p>
{{else}}<p>Parsed {{.Documents}} document(s) with {{.LineItems}} total line items.</p>
<p><a href="/api/batches/{{.BatchID}}/export.xlsx">Download Excel</a> | <a href="/api/batches/{{.BatchID}}/export.csv">Download CSV</a></p>
{{end}}<p><a href="/">Process more documents</a></p>
</body>
</html>
`))

type resultPageData struct {
	BatchID   string
	Documents int
	LineItems int
	Warnings  []string
	Error     string
}

type uploadFormData struct {
	Help            template.HTML
	AuthEnabled     bool
	ReferralManager string
	ReferralEmail   string
	Brand           string
	MaxFiles        int
}

// renderHelp converts the upload page help text to HTML once at startup.
// A configured help file replaces the built-in text. The result is sanitized.
func renderHelp(path string, log *slog.Logger) template.HTML {
	src := []byte(helpMarkdown)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("read help file, using built-in help", "path", path, "error", err)
		} else {
			src = data
		}
	}

	var buf bytes.Buffer
	if err := goldmark.Convert(src, &buf); err != nil {
		log.Warn("render help markdown", "error", err)
		return template.HTML(template.HTMLEscapeString(string(src)))
	}
	return template.HTML(bluemonday.UGCPolicy().SanitizeBytes(buf.Bytes()))
}

func (s *Server) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	data := uploadFormData{
		Help:            s.help,
		AuthEnabled:     s.cfg.APIKey != "",
		ReferralManager: s.cfg.DefaultReferralManager,
		ReferralEmail:   s.cfg.DefaultReferralEmail,
		Brand:           s.cfg.DefaultBrand,
		MaxFiles:        min(s.cfg.MaxFilesPerBatch, pipeline.MaxDocuments),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := uploadForm.Execute(w, data); err != nil {
		s.log.Error("render upload form", "error", err)
	}
}

// handleExtractPage runs an upload from the form and answers with a page
// listing the skipped documents and links to the batch's exports.
func (s *Server) handleExtractPage(w http.ResponseWriter, r *http.Request) {
	docs, run, err := s.readUpload(w, r)
	if err != nil {
		s.renderResult(w, uploadErrorStatus(err), resultPageData{Error: err.Error()})
		return
	}

	b := pipeline.NewBatch(docs, run)
	err = s.orchestrator.Extract(r.Context(), b)
	snap := b.Snapshot()
	data := resultPageData{
		BatchID:   b.ID,
		Documents: snap.Progress.TotalDocuments,
		LineItems: snap.Progress.LineItems,
		Warnings:  snap.Warnings,
	}

	code := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, pipeline.ErrNoLineItems):
		code = http.StatusUnprocessableEntity
		data.Error = err.Error()
	case errors.Is(err, pipeline.ErrNoDocuments), errors.Is(err, pipeline.ErrTooManyDocuments):
		code = http.StatusBadRequest
		data.Error = err.Error()
	default:
		code = http.StatusInternalServerError
		data.Error = err.Error()
	}
	s.log.Info("extracted from form", "batch_id", b.ID, "documents", data.Documents, "line_items", data.LineItems, "warnings", len(data.Warnings))
	s.renderResult(w, code, data)
}

func (s *Server) renderResult(w http.ResponseWriter, code int, data resultPageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := resultPage.Execute(w, data); err != nil {
		s.log.Error("render result page", "error", err)
	}
}
