package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topsol/fatura-copel/dto"
)

type fakeParser struct {
	docErr   error
	lastDoc  dto.Document
	lastMode dto.ParseMode
	batch    []dto.Document
}

func (f *fakeParser) ParseDocument(_ context.Context, doc dto.Document, mode dto.ParseMode) (*dto.InvoiceResponse, error) {
	f.lastDoc, f.lastMode = doc, mode
	if f.docErr != nil {
		return nil, f.docErr
	}
	return &dto.InvoiceResponse{Filename: doc.Filename, Mode: mode, Result: &dto.InvoiceResult{}}, nil
}

func (f *fakeParser) ParseText(text string, mode dto.ParseMode) (*dto.InvoiceResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, dto.ErrEmptyText
	}
	return &dto.InvoiceResponse{Mode: mode, TextSource: "text", Result: &dto.InvoiceResult{BlockSource: "document"}}, nil
}

func (f *fakeParser) ParseBatch(_ context.Context, docs []dto.Document, _ dto.ParseMode) *dto.BatchResponse {
	f.batch = docs
	items := make([]dto.BatchItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, dto.BatchItem{Filename: d.Filename})
	}
	return &dto.BatchResponse{Documents: items}
}

func newTestRouter(p InvoiceParser, maxSize int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := log.New(io.Discard)
	return NewRouter(NewInvoiceHandler(p, maxSize, logger), logger)
}

func multipartBody(t *testing.T, field string, files map[string]string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for name, content := range files {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&fakeParser{}, 1024)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestParseInvoiceMissingFile(t *testing.T) {
	router := newTestRouter(&fakeParser{}, 1024)
	body, ct := multipartBody(t, "file", nil, map[string]string{"mode": "full"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/parse", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "INVALID_REQUEST", resp.Error)
	assert.Equal(t, "abc-123", resp.RequestID)
}

func TestParseInvoiceRejectsNonPDF(t *testing.T) {
	router := newTestRouter(&fakeParser{}, 1024)
	body, ct := multipartBody(t, "file", map[string]string{"fatura.jpg": "img"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/parse", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.ErrInvalidFileType.Error(), decodeError(t, rec).Message)
}

func TestParseInvoiceRejectsLargeFile(t *testing.T) {
	router := newTestRouter(&fakeParser{}, 4)
	body, ct := multipartBody(t, "file", map[string]string{"fatura.pdf": "%PDF-1.4 grande"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/parse", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.ErrFileTooLarge.Error(), decodeError(t, rec).Message)
}

func TestParseInvoiceSuccess(t *testing.T) {
	parser := &fakeParser{}
	router := newTestRouter(parser, 1024)
	body, ct := multipartBody(t, "file",
		map[string]string{"fatura.pdf": "%PDF-1.4"},
		map[string]string{"password": "123", "mode": "legacy"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/parse", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fatura.pdf", parser.lastDoc.Filename)
	assert.Equal(t, "123", parser.lastDoc.Password)
	assert.Equal(t, []byte("%PDF-1.4"), parser.lastDoc.Data)
	assert.Equal(t, dto.ModeLegacy, parser.lastMode)
}

func TestParseInvoiceMapsServiceErrors(t *testing.T) {
	cases := map[error]int{
		dto.ErrNoExtractableText: http.StatusUnprocessableEntity,
		dto.ErrConversionTimeout: http.StatusGatewayTimeout,
		dto.ErrDecryptFailed:     http.StatusBadRequest,
		dto.ErrConversionFailed:  http.StatusInternalServerError,
	}
	for svcErr, status := range cases {
		router := newTestRouter(&fakeParser{docErr: svcErr}, 1024)
		body, ct := multipartBody(t, "file", map[string]string{"fatura.pdf": "%PDF"}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/parse", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, status, rec.Code, svcErr.Error())
		assert.Equal(t, status, decodeError(t, rec).Code)
	}
}

func TestParseBatch(t *testing.T) {
	parser := &fakeParser{}
	router := newTestRouter(parser, 1024)
	body, ct := multipartBody(t, "files[]", map[string]string{"jan.pdf": "a", "fev.pdf": "b"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/batch", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, parser.batch, 2)

	var resp dto.BatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Documents, 2)
}

func TestParseBatchWithoutFiles(t *testing.T) {
	router := newTestRouter(&fakeParser{}, 1024)
	body, ct := multipartBody(t, "files[]", nil, map[string]string{"mode": "full"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/batch", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseText(t *testing.T) {
	router := newTestRouter(&fakeParser{}, 1024)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/text",
		strings.NewReader(`{"text":"ENERGIA ELET CONSUMO kWh 350 262,50","mode":"full"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.InvoiceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, dto.ModeFull, resp.Mode)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "document", resp.Result.BlockSource)
}

func TestParseTextErrors(t *testing.T) {
	router := newTestRouter(&fakeParser{}, 1024)

	for _, body := range []string{`{"text":"   "}`, `not json`} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/text", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(&fakeParser{}, 1024)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
