package client

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/otiai10/gosseract/v2"
)

type TesseractClient struct {
	dataPath string
	language string
	logger   *log.Logger
}

func NewTesseractClient(dataPath, language string, logger *log.Logger) *TesseractClient {
	if language == "" {
		language = "por"
	}
	return &TesseractClient{
		dataPath: dataPath,
		language: language,
		logger:   logger,
	}
}

// ExtractText runs OCR over one encoded page image (PNG, JPEG or TIFF) and
// returns the text with the mean word confidence.
func (tc *TesseractClient) ExtractText(img []byte) (string, float64, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if tc.dataPath != "" {
		if err := client.SetTessdataPrefix(tc.dataPath); err != nil {
			return "", 0, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(tc.language); err != nil {
		return "", 0, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(img); err != nil {
		return "", 0, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("failed to extract text: %w", err)
	}

	// Get bounding boxes to calculate confidence
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return text, 0, nil
	}

	var total float64
	for _, box := range boxes {
		total += box.Confidence
	}
	conf := 0.0
	if len(boxes) > 0 {
		conf = total / float64(len(boxes))
	}

	tc.logger.Debug("ocr page done", "chars", len(text), "confidence", conf, "lang", tc.language)
	return text, conf, nil
}

// Close performs cleanup
func (tc *TesseractClient) Close() {
	tc.logger.Debug("tesseract client closed")
}
