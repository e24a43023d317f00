// internal/launch/metadata.go
package launch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// TokenMetadata is the off-chain metadata published for a new token.
type TokenMetadata struct {
	Name        string
	Symbol      string
	Description string
	Twitter     string
	Telegram    string
	Website     string
	Image       []byte // optional, raw image bytes
}

// MetadataUploader publishes token metadata to pump.fun's IPFS endpoint and
// returns the resulting metadata URI for the on-chain create instruction.
type MetadataUploader struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewMetadataUploader(endpoint string, logger *zap.Logger) *MetadataUploader {
	return &MetadataUploader{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger.Named("metadata"),
	}
}

// Upload publishes the metadata and returns its URI.
func (u *MetadataUploader) Upload(ctx context.Context, meta TokenMetadata) (string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	fields := map[string]string{
		"name":        meta.Name,
		"symbol":      meta.Symbol,
		"description": meta.Description,
		"twitter":     meta.Twitter,
		"telegram":    meta.Telegram,
		"website":     meta.Website,
		"showName":    "true",
	}
	for key, value := range fields {
		if value == "" && key != "name" && key != "symbol" && key != "showName" {
			continue
		}
		if err := form.WriteField(key, value); err != nil {
			return "", fmt.Errorf("write form field %s: %w", key, err)
		}
	}

	if len(meta.Image) > 0 {
		part, err := form.CreateFormFile("file", "token.png")
		if err != nil {
			return "", fmt.Errorf("create image part: %w", err)
		}
		if _, err := part.Write(meta.Image); err != nil {
			return "", fmt.Errorf("write image: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload metadata: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("metadata upload failed: status %d: %s", resp.StatusCode, body)
	}

	var parsed struct {
		MetadataURI string `json:"metadataUri"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if parsed.MetadataURI == "" {
		return "", fmt.Errorf("metadata upload returned no URI")
	}

	u.logger.Info("Token metadata uploaded", zap.String("uri", parsed.MetadataURI))
	return parsed.MetadataURI, nil
}
