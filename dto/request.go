package dto

import (
	"fmt"
	"mime/multipart"
	"strings"
)

type ParseMode string

const (
	ModeFull   ParseMode = "full"
	ModeLegacy ParseMode = "legacy"
)

// ParseModeFrom maps a query/form value to a ParseMode. Unknown values fall back to ModeFull.
func ParseModeFrom(s string) ParseMode {
	if ParseMode(strings.ToLower(strings.TrimSpace(s))) == ModeLegacy {
		return ModeLegacy
	}
	return ModeFull
}

// InvoiceUploadRequest represents a single invoice upload
type InvoiceUploadRequest struct {
	File     *multipart.FileHeader `form:"file" binding:"required"`
	Password string                `form:"password"`
	Mode     string                `form:"mode"`
}

// Validate validates the upload request
func (r *InvoiceUploadRequest) Validate(maxSize int64) error {
	if r.File == nil {
		return fmt.Errorf("file is required")
	}
	if !strings.HasSuffix(strings.ToLower(r.File.Filename), ".pdf") {
		return ErrInvalidFileType
	}
	if maxSize > 0 && r.File.Size > maxSize {
		return ErrFileTooLarge
	}
	return nil
}

// TextParseRequest carries already-flattened invoice text.
type TextParseRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode"`
}

// Document is one in-memory document handed to the service.
type Document struct {
	Filename string
	Data     []byte
	Password string
}
