package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/topsol/fatura-copel/dto"
	"github.com/topsol/fatura-copel/metrics"
	"github.com/topsol/fatura-copel/utils"
	"github.com/topsol/fatura-copel/utils/fatura"
)

// Text sources reported in InvoiceResponse.TextSource.
const (
	SourceLocal  = "local"
	SourceRemote = "remote"
	SourceOCR    = "ocr"
	SourceText   = "text"
)

// OCRClient reads text from one encoded page image.
type OCRClient interface {
	ExtractText(img []byte) (string, float64, error)
}

// RemoteTextExtractor converts a whole document through an external service.
type RemoteTextExtractor interface {
	ExtractPages(ctx context.Context, pdfData []byte, password string) ([]string, error)
}

// Options tunes the document conversion and the classification.
type Options struct {
	Extract           fatura.Options
	MinTextLength     int
	ConversionTimeout time.Duration
	DecodePix         bool
}

type InvoiceService struct {
	pdfProcessor PDFProcessor
	ocr          OCRClient
	remote       RemoteTextExtractor
	pix          *PixDecoder
	opts         Options
	logger       *log.Logger
}

// NewInvoiceService wires the service. ocr and remote may be nil.
func NewInvoiceService(
	pdfProcessor PDFProcessor,
	ocr OCRClient,
	remote RemoteTextExtractor,
	opts Options,
	logger *log.Logger,
) *InvoiceService {
	if opts.ConversionTimeout <= 0 {
		opts.ConversionTimeout = time.Minute
	}
	if opts.MinTextLength <= 0 {
		opts.MinTextLength = 20
	}
	s := &InvoiceService{
		pdfProcessor: pdfProcessor,
		ocr:          ocr,
		remote:       remote,
		opts:         opts,
		logger:       logger,
	}
	if opts.DecodePix {
		s.pix = NewPixDecoder()
	}
	return s
}

type conversion struct {
	text   string
	source string
	pages  int
	images []image.Image
}

// ParseDocument converts a PDF invoice to text and classifies it once.
func (s *InvoiceService) ParseDocument(ctx context.Context, doc dto.Document, mode dto.ParseMode) (*dto.InvoiceResponse, error) {
	start := time.Now()

	if !strings.HasSuffix(strings.ToLower(doc.Filename), ".pdf") {
		metrics.IncParseError(errorReason(dto.ErrInvalidFileType))
		return nil, dto.ErrInvalidFileType
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.ConversionTimeout)
	defer cancel()

	conv, err := s.convert(ctx, doc)
	if err != nil {
		s.logger.Warn("document conversion failed", "file", doc.Filename, "error", err)
		metrics.IncParseError(errorReason(err))
		metrics.ObserveParse(conv.source, metrics.ResultError, time.Since(start))
		return nil, err
	}

	resp := s.classify(conv.text, mode)
	resp.Filename = doc.Filename
	resp.TextSource = conv.source
	resp.Pages = conv.pages

	if s.pix != nil {
		resp.Pix = s.decodePix(doc, conv.images)
	}

	metrics.ObserveParse(conv.source, metrics.ResultSuccess, time.Since(start))
	metrics.ObserveBuckets(resp.Result)
	s.logger.Info("invoice parsed",
		"file", doc.Filename,
		"source", conv.source,
		"pages", conv.pages,
		"mode", resp.Mode,
		"elapsed", time.Since(start),
	)
	return resp, nil
}

// ParseText classifies text that was already extracted by the caller.
func (s *InvoiceService) ParseText(text string, mode dto.ParseMode) (*dto.InvoiceResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, dto.ErrEmptyText
	}
	start := time.Now()

	resp := s.classify(text, mode)
	resp.TextSource = SourceText

	metrics.ObserveParse(SourceText, metrics.ResultSuccess, time.Since(start))
	metrics.ObserveBuckets(resp.Result)
	return resp, nil
}

// ParseBatch parses every document concurrently. A failing document does not
// abort the others; results keep the input order.
func (s *InvoiceService) ParseBatch(ctx context.Context, docs []dto.Document, mode dto.ParseMode) *dto.BatchResponse {
	items := make([]dto.BatchItem, len(docs))
	failed := 0

	var mu sync.Mutex
	var wg sync.WaitGroup

	for i, doc := range docs {
		wg.Add(1)
		go func(i int, doc dto.Document) {
			defer wg.Done()

			resp, err := s.ParseDocument(ctx, doc, mode)

			mu.Lock()
			defer mu.Unlock()
			items[i] = dto.BatchItem{Filename: doc.Filename, Response: resp}
			if err != nil {
				items[i].Error = err.Error()
				failed++
			}
		}(i, doc)
	}

	wg.Wait()

	return &dto.BatchResponse{
		Documents:   items,
		Failed:      failed,
		ProcessedAt: time.Now().Format(time.RFC3339),
	}
}

func (s *InvoiceService) classify(text string, mode dto.ParseMode) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		Mode:        dto.ModeFull,
		ProcessedAt: time.Now().Format(time.RFC3339),
	}
	if mode == dto.ModeLegacy {
		legacy := fatura.ExtractLegacy(text)
		resp.Mode = dto.ModeLegacy
		resp.Legacy = &legacy
		return resp
	}
	result := fatura.ExtractWithOptions(text, s.opts.Extract)
	resp.Result = &result
	return resp
}

// convert runs the extraction under the deadline of ctx. The local PDF readers
// cannot be interrupted, so an expired deadline abandons them.
func (s *InvoiceService) convert(ctx context.Context, doc dto.Document) (conversion, error) {
	type outcome struct {
		conv conversion
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		conv, err := s.extract(ctx, doc)
		done <- outcome{conv, err}
	}()

	select {
	case <-ctx.Done():
		return conversion{}, fmt.Errorf("%w: %v", dto.ErrConversionTimeout, ctx.Err())
	case o := <-done:
		return o.conv, o.err
	}
}

func (s *InvoiceService) extract(ctx context.Context, doc dto.Document) (conversion, error) {
	conv := conversion{source: SourceLocal}

	pages, err := s.pdfProcessor.Validate(doc.Data, doc.Password)
	if err != nil {
		return conv, fmt.Errorf("%w: %v", dto.ErrConversionFailed, err)
	}
	conv.pages = pages

	var pageTexts []string
	if s.remote != nil {
		pageTexts, err = s.remote.ExtractPages(ctx, doc.Data, doc.Password)
		switch {
		case err != nil:
			s.logger.Warn("text service failed, using local extraction", "file", doc.Filename, "error", err)
			pageTexts = nil
		case !utils.HasText(utils.JoinPages(pageTexts), 1):
			pageTexts = nil
		default:
			conv.source = SourceRemote
		}
	}

	var localErr error
	if pageTexts == nil {
		pageTexts, localErr = s.pdfProcessor.ExtractPages(doc.Data, doc.Password)
		if errors.Is(localErr, dto.ErrDecryptFailed) {
			return conv, localErr
		}
		if localErr != nil {
			s.logger.Warn("pdf text extraction failed", "file", doc.Filename, "error", localErr)
		}
	}
	conv.text = utils.JoinPages(pageTexts)

	if !utils.HasText(conv.text, s.opts.MinTextLength) && s.ocr != nil {
		s.logger.Info("document seems scanned, attempting image-based OCR", "file", doc.Filename)
		conv.images = s.images(doc)
		if ocrText := s.ocrImages(conv.images); utils.HasText(ocrText, 1) {
			conv.text = ocrText
			conv.source = SourceOCR
		}
	}

	if !utils.HasText(conv.text, 1) {
		if localErr != nil {
			return conv, fmt.Errorf("%w: %v", dto.ErrConversionFailed, localErr)
		}
		return conv, dto.ErrNoExtractableText
	}
	return conv, nil
}

func (s *InvoiceService) images(doc dto.Document) []image.Image {
	images, err := s.pdfProcessor.ExtractImages(doc.Data, doc.Password)
	if err != nil {
		s.logger.Warn("failed to extract images", "file", doc.Filename, "error", err)
		return nil
	}
	return images
}

func (s *InvoiceService) ocrImages(images []image.Image) string {
	var combined strings.Builder
	for _, img := range images {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			s.logger.Warn("failed to encode page image", "error", err)
			continue
		}
		text, conf, err := s.ocr.ExtractText(buf.Bytes())
		if err != nil {
			s.logger.Warn("ocr failed for a page", "error", err)
			continue
		}
		s.logger.Debug("ocr page", "confidence", conf)
		combined.WriteString(text)
		combined.WriteString("\n")
	}
	return combined.String()
}

func (s *InvoiceService) decodePix(doc dto.Document, images []image.Image) string {
	if images == nil {
		images = s.images(doc)
	}
	payload, ok := s.pix.Decode(images)
	if !ok {
		s.logger.Debug("no pix qr code found", "file", doc.Filename)
	}
	return payload
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, dto.ErrInvalidFileType):
		return "invalid_file_type"
	case errors.Is(err, dto.ErrConversionTimeout):
		return "timeout"
	case errors.Is(err, dto.ErrDecryptFailed):
		return "decrypt"
	case errors.Is(err, dto.ErrNoExtractableText):
		return "no_text"
	case errors.Is(err, dto.ErrConversionFailed):
		return "conversion"
	default:
		return "unknown"
	}
}
