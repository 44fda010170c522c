package dto

import "errors"

// Custom errors
var (
	ErrInvalidFileType   = errors.New("invalid file type, send a PDF invoice")
	ErrNoExtractableText = errors.New("no text could be extracted from the document")
	ErrConversionFailed  = errors.New("failed to convert document to text")
	ErrConversionTimeout = errors.New("document conversion timed out")
	ErrDecryptFailed     = errors.New("failed to decrypt PDF")
	ErrFileTooLarge      = errors.New("file exceeds the maximum upload size")
	ErrEmptyText         = errors.New("text is required")
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      int    `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// InvoiceResponse is the response for a single parsed invoice document.
// Exactly one of Result and Legacy is set, depending on the requested mode.
type InvoiceResponse struct {
	Filename    string         `json:"filename,omitempty" yaml:"filename,omitempty"`
	Mode        ParseMode      `json:"mode" yaml:"mode"`
	TextSource  string         `json:"text_source" yaml:"text_source"`
	Pages       int            `json:"pages" yaml:"pages"`
	Pix         string         `json:"pix,omitempty" yaml:"pix,omitempty"`
	Result      *InvoiceResult `json:"result,omitempty" yaml:"result,omitempty"`
	Legacy      *LegacyResult  `json:"legacy,omitempty" yaml:"legacy,omitempty"`
	ProcessedAt string         `json:"processed_at" yaml:"processed_at"`
}

// BatchItem is the outcome for one document of a batch upload.
type BatchItem struct {
	Filename string           `json:"filename"`
	Response *InvoiceResponse `json:"response,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// BatchResponse is the response for a batch upload.
type BatchResponse struct {
	Documents   []BatchItem `json:"documents"`
	Failed      int         `json:"failed"`
	ProcessedAt string      `json:"processed_at"`
}
