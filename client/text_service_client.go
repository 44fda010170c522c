package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
)

// TextServiceClient calls a remote document-to-text service. The service takes
// a base64 PDF and answers with the flattened text of every page.
type TextServiceClient struct {
	url        string
	httpClient *http.Client
	logger     *log.Logger
}

type convertRequest struct {
	Document string `json:"document"`
	Password string `json:"password,omitempty"`
}

type convertResponse struct {
	Pages []string `json:"pages"`
	Error string   `json:"error,omitempty"`
}

func NewTextServiceClient(url string, httpClient *http.Client, logger *log.Logger) *TextServiceClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TextServiceClient{
		url:        url,
		httpClient: httpClient,
		logger:     logger,
	}
}

// ExtractPages posts the document and returns the text of each page. The
// deadline of ctx bounds the whole round trip.
func (c *TextServiceClient) ExtractPages(ctx context.Context, pdfData []byte, password string) ([]string, error) {
	payload, err := json.Marshal(convertRequest{
		Document: base64.StdEncoding.EncodeToString(pdfData),
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call text service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("text service returned status %d: %s", resp.StatusCode, string(body))
	}

	var result convertResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode text service response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("text service error: %s", result.Error)
	}

	c.logger.Debug("text service converted document", "pages", len(result.Pages), "bytes", len(pdfData))
	return result.Pages, nil
}
