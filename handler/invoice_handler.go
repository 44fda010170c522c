package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/topsol/fatura-copel/dto"
)

// InvoiceParser is the service behind the invoice endpoints.
type InvoiceParser interface {
	ParseDocument(ctx context.Context, doc dto.Document, mode dto.ParseMode) (*dto.InvoiceResponse, error)
	ParseText(text string, mode dto.ParseMode) (*dto.InvoiceResponse, error)
	ParseBatch(ctx context.Context, docs []dto.Document, mode dto.ParseMode) *dto.BatchResponse
}

type InvoiceHandler struct {
	parser      InvoiceParser
	maxFileSize int64
	logger      *log.Logger
}

func NewInvoiceHandler(parser InvoiceParser, maxFileSize int64, logger *log.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		parser:      parser,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// ParseInvoice handles POST /invoices/parse
func (h *InvoiceHandler) ParseInvoice(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "file is required", err)
		return
	}

	request := &dto.InvoiceUploadRequest{
		File:     fileHeader,
		Password: c.PostForm("password"),
		Mode:     c.DefaultPostForm("mode", c.Query("mode")),
	}
	if err := request.Validate(h.maxFileSize); err != nil {
		h.sendError(c, statusFor(err), err.Error(), err)
		return
	}

	doc, err := readDocument(fileHeader, request.Password)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "failed to read upload", err)
		return
	}

	response, err := h.parser.ParseDocument(c.Request.Context(), doc, dto.ParseModeFrom(request.Mode))
	if err != nil {
		h.sendError(c, statusFor(err), "failed to parse invoice", err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ParseBatch handles POST /invoices/batch
func (h *InvoiceHandler) ParseBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "failed to parse multipart form", err)
		return
	}

	files := form.File["files[]"]
	if len(files) == 0 {
		h.sendError(c, http.StatusBadRequest, "no files provided", nil)
		return
	}

	password := c.PostForm("password")
	docs := make([]dto.Document, 0, len(files))
	for _, fh := range files {
		if h.maxFileSize > 0 && fh.Size > h.maxFileSize {
			h.sendError(c, http.StatusBadRequest, fmt.Sprintf("%s: %s", fh.Filename, dto.ErrFileTooLarge), dto.ErrFileTooLarge)
			return
		}
		doc, err := readDocument(fh, password)
		if err != nil {
			h.sendError(c, http.StatusBadRequest, "failed to read upload", err)
			return
		}
		docs = append(docs, doc)
	}

	h.logger.Info("processing batch", "files", len(docs))
	mode := dto.ParseModeFrom(c.DefaultPostForm("mode", c.Query("mode")))
	c.JSON(http.StatusOK, h.parser.ParseBatch(c.Request.Context(), docs, mode))
}

// ParseText handles POST /invoices/text
func (h *InvoiceHandler) ParseText(c *gin.Context) {
	var request dto.TextParseRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	mode := request.Mode
	if mode == "" {
		mode = c.Query("mode")
	}
	response, err := h.parser.ParseText(request.Text, dto.ParseModeFrom(mode))
	if err != nil {
		h.sendError(c, statusFor(err), err.Error(), err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func readDocument(fh *multipart.FileHeader, password string) (dto.Document, error) {
	f, err := fh.Open()
	if err != nil {
		return dto.Document{}, fmt.Errorf("failed to open file %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return dto.Document{}, fmt.Errorf("failed to read file %s: %w", fh.Filename, err)
	}
	return dto.Document{Filename: fh.Filename, Data: data, Password: password}, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, dto.ErrInvalidFileType),
		errors.Is(err, dto.ErrFileTooLarge),
		errors.Is(err, dto.ErrEmptyText),
		errors.Is(err, dto.ErrDecryptFailed):
		return http.StatusBadRequest
	case errors.Is(err, dto.ErrNoExtractableText):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dto.ErrConversionTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	case http.StatusUnprocessableEntity:
		return "NO_EXTRACTABLE_TEXT"
	case http.StatusGatewayTimeout:
		return "CONVERSION_TIMEOUT"
	default:
		return "PARSE_FAILED"
	}
}

// sendError sends a structured error response
func (h *InvoiceHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		h.logger.Warn(message, "error", err, "status", statusCode, "request_id", c.GetString(requestIDKey))
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:     errorCode(statusCode),
		Message:   errorMsg,
		Code:      statusCode,
		RequestID: c.GetString(requestIDKey),
	})
}
