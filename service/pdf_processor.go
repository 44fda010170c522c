package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/topsol/fatura-copel/dto"
)

type PDFProcessor interface {
	// Validate checks that data is a readable PDF and returns its page count.
	Validate(pdfData []byte, password string) (int, error)
	// ExtractPages returns the text of every page, one row per line.
	ExtractPages(pdfData []byte, password string) ([]string, error)
	// ExtractImages returns the raster images embedded in the document.
	ExtractImages(pdfData []byte, password string) ([]image.Image, error)
}

type pdfProcessor struct{}

func NewPDFProcessor() PDFProcessor {
	return &pdfProcessor{}
}

func pdfConfig(password string) *model.Configuration {
	conf := model.NewDefaultConfiguration()
	if password != "" {
		conf.UserPW = password
		conf.OwnerPW = password
	}
	return conf
}

func (p *pdfProcessor) Validate(pdfData []byte, password string) (int, error) {
	n, err := api.PageCount(bytes.NewReader(pdfData), pdfConfig(password))
	if err != nil {
		return 0, fmt.Errorf("invalid pdf: %w", err)
	}
	return n, nil
}

// decrypt returns a plain copy of an encrypted document. ledongthuc/pdf can only
// read documents protected by an empty user password.
func (p *pdfProcessor) decrypt(pdfData []byte, password string) ([]byte, error) {
	if password == "" {
		return pdfData, nil
	}
	var out bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(pdfData), &out, pdfConfig(password)); err != nil {
		return nil, fmt.Errorf("%w: %v", dto.ErrDecryptFailed, err)
	}
	return out.Bytes(), nil
}

func (p *pdfProcessor) ExtractPages(pdfData []byte, password string) ([]string, error) {
	data, err := p.decrypt(pdfData, password)
	if err != nil {
		return nil, err
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	totalPage := r.NumPage()
	pages := make([]string, 0, totalPage)
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", pageIndex, err)
		}

		var sb strings.Builder
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				if s := strings.TrimSpace(word.S); s != "" {
					words = append(words, s)
				}
			}
			sb.WriteString(strings.Join(words, " "))
			sb.WriteString("\n")
		}
		pages = append(pages, sb.String())
	}
	return pages, nil
}

// ExtractImages decodes the page images in memory. Formats the image package
// cannot decode (JPX, CCITT) are skipped.
func (p *pdfProcessor) ExtractImages(pdfData []byte, password string) ([]image.Image, error) {
	data, err := p.decrypt(pdfData, password)
	if err != nil {
		return nil, err
	}

	var images []image.Image
	collect := func(img model.Image, _ bool, _ int) error {
		if decoded, _, err := image.Decode(img); err == nil {
			images = append(images, decoded)
		}
		return nil
	}
	// nil selects every page
	if err := api.ExtractImages(bytes.NewReader(data), nil, collect, pdfConfig("")); err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}
	return images, nil
}
