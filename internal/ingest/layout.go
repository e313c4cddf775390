package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// HTTPLayoutDetector calls an external layout inference service that accepts a
// page image and returns detected regions. When no endpoint is configured the
// detector is a no-op and layout input to the pipeline is simply empty.
type HTTPLayoutDetector struct {
	endpoint   string
	httpClient *http.Client
	logger     *log.Logger
}

func NewHTTPLayoutDetector(endpoint string, timeout time.Duration) *HTTPLayoutDetector {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPLayoutDetector{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.New(log.Writer(), "[LAYOUT] ", log.LstdFlags),
	}
}

// DetectLayout posts the JPEG image to the inference service and decodes the
// detected elements. Returns nil when the detector is disabled.
func (d *HTTPLayoutDetector) DetectLayout(ctx context.Context, image []byte) ([]LayoutElement, error) {
	if d.endpoint == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, "POST", d.endpoint, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("layout service returned status: %d", resp.StatusCode)
	}

	var out struct {
		Elements []LayoutElement `json:"elements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	d.logger.Printf("detected %d layout elements", len(out.Elements))
	return out.Elements, nil
}
