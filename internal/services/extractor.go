package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"visionestoque/internal/gcp"
	"visionestoque/internal/models"
	"visionestoque/internal/security"
)

// RawOutputLimit caps how much raw model output is echoed back to the client
// on the soft-failure path.
const RawOutputLimit = 500

// ObjectStore persists validated uploads and returns a location reference.
type ObjectStore interface {
	Upload(ctx context.Context, objectName string, content io.Reader, contentType string) (string, error)
}

// DocumentModel asks the multimodal model to extract structured data from a
// stored image.
type DocumentModel interface {
	ExtractFromImage(ctx context.Context, prompt, imageURI, mimeType string) (string, error)
}

// RecordStore saves extraction audit records.
type RecordStore interface {
	SaveRecord(ctx context.Context, rec *models.ExtractionRecord) error
}

// UpstreamError wraps a failed call to an external collaborator. The stage
// name is for the operator log; clients only ever see a generic message.
type UpstreamError struct {
	Stage string
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s call failed: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ExtractionRequest is what gets sent to the model: the sanitized instruction
// text plus a reference to the stored image. It is only ever built after a
// successful upload.
type ExtractionRequest struct {
	Prompt   string
	ImageURI string
	MIMEType string
}

// Outcome is the result of a completed pipeline run. Either Document and
// Summary are set, or RawOutput carries the unstructured model answer.
type Outcome struct {
	Document  *models.ExtractedDocument
	Summary   string
	RawOutput string
}

// Extractor orchestrates the upload pipeline: validation, storage, model
// call, parsing and formatting. Each request runs strictly sequentially; the
// clients it holds are constructed once at process start and reused.
type Extractor struct {
	store     ObjectStore
	model     DocumentModel
	records   RecordStore // nil disables audit records
	validator *security.Validator
	logger    logrus.FieldLogger
}

// NewExtractor wires the pipeline's collaborators together.
func NewExtractor(store ObjectStore, model DocumentModel, records RecordStore, validator *security.Validator, logger logrus.FieldLogger) *Extractor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Extractor{
		store:     store,
		model:     model,
		records:   records,
		validator: validator,
		logger:    logger,
	}
}

// Process runs the full pipeline for one upload. Validation failures come
// back as *security.ValidationError, external failures as *UpstreamError; a
// model answer that is not a JSON object is not an error and yields an
// Outcome with RawOutput set.
func (e *Extractor) Process(ctx context.Context, upload *security.Upload) (*Outcome, error) {
	info, err := e.validator.Validate(upload)
	if err != nil {
		return nil, err
	}

	logCtx := e.logger.WithField("filename", info.Filename)

	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	objectName := objectName(info.Filename)
	imageURI, err := e.store.Upload(ctx, objectName, upload.Reader, contentType)
	if err != nil {
		return nil, &UpstreamError{Stage: "storage", Err: err}
	}
	logCtx = logCtx.WithField("imageUri", imageURI)

	req := ExtractionRequest{
		Prompt:   security.SanitizePrompt(gcp.ExtractionPrompt, e.logger),
		ImageURI: imageURI,
		MIMEType: contentType,
	}

	raw, err := e.model.ExtractFromImage(ctx, req.Prompt, req.ImageURI, req.MIMEType)
	if err != nil {
		return nil, &UpstreamError{Stage: "model", Err: err}
	}

	doc, err := ParseModelOutput(raw)
	if err != nil {
		logCtx.WithError(err).Warn("gemini returned invalid JSON")
		e.saveRecord(ctx, info.Filename, imageURI, models.RecordStatusInvalidOutput, "")
		return &Outcome{RawOutput: truncate(raw, RawOutputLimit)}, nil
	}

	summary := FormatNotification(doc)

	docType := models.DocTypeUnknown
	if doc.DocumentType != nil {
		docType = *doc.DocumentType
	}
	e.saveRecord(ctx, info.Filename, imageURI, models.RecordStatusSuccess, docType)

	logCtx.Info("successfully processed document")
	return &Outcome{Document: doc, Summary: summary}, nil
}

// saveRecord writes the audit record when a record store is configured.
// Failures are logged and swallowed: auditing must never fail an upload.
func (e *Extractor) saveRecord(ctx context.Context, filename, uri, status, docType string) {
	if e.records == nil {
		return
	}
	rec := &models.ExtractionRecord{
		OriginalFilename: filename,
		ObjectURI:        uri,
		Status:           status,
		DocumentType:     docType,
		CreatedAt:        time.Now().UTC(),
	}
	if err := e.records.SaveRecord(ctx, rec); err != nil {
		e.logger.WithError(err).Warn("failed to save extraction record")
	}
}

// objectName derives the storage key from the sanitized filename. The
// timestamp suffix keeps repeated uploads of the same file from overwriting
// each other.
func objectName(filename string) string {
	base, ext := filename, ""
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		base, ext = filename[:idx], filename[idx:]
	}
	return fmt.Sprintf("invoices/%s_%d%s", base, time.Now().Unix(), ext)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
