package service

import (
	"fmt"
	"image"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// pixPayloadPrefix opens every BR Code (EMV merchant-presented QR) payload.
const pixPayloadPrefix = "000201"

// PixDecoder reads the PIX "copia e cola" payload from the QR code printed on the invoice.
type PixDecoder struct {
	reader gozxing.Reader
}

func NewPixDecoder() *PixDecoder {
	return &PixDecoder{reader: qrcode.NewQRCodeReader()}
}

// DecodeImage decodes a single image. It fails when the image holds no QR code
// or the QR code is not a PIX payload.
func (d *PixDecoder) DecodeImage(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("failed to create binary bitmap: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{gozxing.DecodeHintType_TRY_HARDER: true}
	result, err := d.reader.Decode(bmp, hints)
	if err != nil {
		return "", fmt.Errorf("failed to decode QR code: %w", err)
	}

	text := strings.TrimSpace(result.GetText())
	if !strings.HasPrefix(text, pixPayloadPrefix) {
		return "", fmt.Errorf("QR code is not a PIX payload")
	}
	return text, nil
}

// Decode returns the first PIX payload found among images.
func (d *PixDecoder) Decode(images []image.Image) (string, bool) {
	for _, img := range images {
		if payload, err := d.DecodeImage(img); err == nil {
			return payload, true
		}
	}
	return "", false
}
