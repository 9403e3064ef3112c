package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visionestoque/internal/models"
	"visionestoque/internal/security"
)

type fakeStore struct {
	uri string
	err error

	gotName    string
	gotType    string
	gotContent []byte
}

func (f *fakeStore) Upload(_ context.Context, objectName string, content io.Reader, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.gotName = objectName
	f.gotType = contentType
	b, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	f.gotContent = b
	return f.uri, nil
}

type fakeModel struct {
	output string
	err    error

	gotPrompt string
	gotURI    string
	gotMIME   string
}

func (f *fakeModel) ExtractFromImage(_ context.Context, prompt, imageURI, mimeType string) (string, error) {
	f.gotPrompt = prompt
	f.gotURI = imageURI
	f.gotMIME = mimeType
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

type fakeRecords struct {
	err  error
	recs []*models.ExtractionRecord
}

func (f *fakeRecords) SaveRecord(_ context.Context, rec *models.ExtractionRecord) error {
	if f.err != nil {
		return f.err
	}
	f.recs = append(f.recs, rec)
	return nil
}

func pngUpload(name string) *security.Upload {
	content := append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, bytes.Repeat([]byte{0x00}, 120)...)
	return &security.Upload{
		Filename:    name,
		ContentType: "image/png",
		Reader:      bytes.NewReader(content),
	}
}

func newTestExtractor(store ObjectStore, model DocumentModel, records RecordStore) *Extractor {
	return NewExtractor(store, model, records, security.NewValidator(0, nil), nil)
}

func TestProcessSuccess(t *testing.T) {
	store := &fakeStore{uri: "gs://test-bucket/invoices/invoice_1.png"}
	model := &fakeModel{output: `{"tipo_documento":"Nota Fiscal","itens":[]}`}
	records := &fakeRecords{}
	e := newTestExtractor(store, model, records)

	outcome, err := e.Process(context.Background(), pngUpload("invoice.png"))
	require.NoError(t, err)

	require.NotNil(t, outcome.Document)
	require.NotNil(t, outcome.Document.DocumentType)
	assert.Equal(t, "Nota Fiscal", *outcome.Document.DocumentType)
	assert.Contains(t, outcome.Summary, "Nota Fiscal")
	assert.Contains(t, outcome.Summary, "Nenhuma")
	assert.Empty(t, outcome.RawOutput)

	// The stored object carries the full original content: the validator must
	// have rewound the reader before the upload.
	assert.Len(t, store.gotContent, 128)
	assert.True(t, strings.HasPrefix(store.gotName, "invoices/invoice_"), "object name %q", store.gotName)
	assert.True(t, strings.HasSuffix(store.gotName, ".png"), "object name %q", store.gotName)
	assert.Equal(t, "image/png", store.gotType)

	assert.Equal(t, store.uri, model.gotURI)
	assert.Equal(t, "image/png", model.gotMIME)
	assert.Contains(t, model.gotPrompt, "JSON")

	require.Len(t, records.recs, 1)
	assert.Equal(t, models.RecordStatusSuccess, records.recs[0].Status)
	assert.Equal(t, "Nota Fiscal", records.recs[0].DocumentType)
	assert.Equal(t, "invoice.png", records.recs[0].OriginalFilename)
}

func TestProcessValidationFailureSkipsUpstream(t *testing.T) {
	store := &fakeStore{uri: "gs://test-bucket/x"}
	model := &fakeModel{output: "{}"}
	e := newTestExtractor(store, model, nil)

	_, err := e.Process(context.Background(), &security.Upload{
		Filename: "malware.exe",
		Reader:   bytes.NewReader([]byte("stuff")),
	})

	var verr *security.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, store.gotName, "storage must not be touched on validation failure")
	assert.Empty(t, model.gotURI, "model must not be called on validation failure")
}

func TestProcessStorageFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("bucket unavailable")}
	model := &fakeModel{output: "{}"}
	e := newTestExtractor(store, model, nil)

	_, err := e.Process(context.Background(), pngUpload("invoice.png"))

	var uerr *UpstreamError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "storage", uerr.Stage)
	assert.Empty(t, model.gotURI, "model must not be called after a storage failure")
}

func TestProcessModelFailure(t *testing.T) {
	store := &fakeStore{uri: "gs://test-bucket/x"}
	model := &fakeModel{err: errors.New("quota exceeded")}
	e := newTestExtractor(store, model, nil)

	_, err := e.Process(context.Background(), pngUpload("invoice.png"))

	var uerr *UpstreamError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "model", uerr.Stage)
}

func TestProcessUnstructuredOutputIsSoftFailure(t *testing.T) {
	store := &fakeStore{uri: "gs://test-bucket/x"}
	model := &fakeModel{output: "I cannot process this"}
	records := &fakeRecords{}
	e := newTestExtractor(store, model, records)

	outcome, err := e.Process(context.Background(), pngUpload("invoice.png"))
	require.NoError(t, err)

	assert.Nil(t, outcome.Document)
	assert.Equal(t, "I cannot process this", outcome.RawOutput)

	require.Len(t, records.recs, 1)
	assert.Equal(t, models.RecordStatusInvalidOutput, records.recs[0].Status)
}

func TestProcessTruncatesRawOutput(t *testing.T) {
	store := &fakeStore{uri: "gs://test-bucket/x"}
	model := &fakeModel{output: strings.Repeat("ã", 900)}
	e := newTestExtractor(store, model, nil)

	outcome, err := e.Process(context.Background(), pngUpload("invoice.png"))
	require.NoError(t, err)
	assert.Equal(t, RawOutputLimit, len([]rune(outcome.RawOutput)))
}

func TestProcessNonObjectJSONIsSoftFailure(t *testing.T) {
	store := &fakeStore{uri: "gs://test-bucket/x"}
	model := &fakeModel{output: `[{"tipo_documento":"Nota Fiscal"}]`}
	e := newTestExtractor(store, model, nil)

	outcome, err := e.Process(context.Background(), pngUpload("invoice.png"))
	require.NoError(t, err)
	assert.Nil(t, outcome.Document)
	assert.Equal(t, `[{"tipo_documento":"Nota Fiscal"}]`, outcome.RawOutput)
}

func TestProcessRecordFailureDoesNotFailRequest(t *testing.T) {
	store := &fakeStore{uri: "gs://test-bucket/x"}
	model := &fakeModel{output: `{"tipo_documento":"Nota Fiscal"}`}
	records := &fakeRecords{err: errors.New("firestore down")}
	e := newTestExtractor(store, model, records)

	outcome, err := e.Process(context.Background(), pngUpload("invoice.png"))
	require.NoError(t, err)
	require.NotNil(t, outcome.Document)
}
