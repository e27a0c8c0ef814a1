package antares

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client posts content instances to the sensor platform.
type Client struct {
	httpClient *http.Client
	postURL    string
	accessKey  string
	logger     *zap.Logger
}

func NewClient(postURL, accessKey string, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		postURL:    postURL,
		accessKey:  accessKey,
		logger:     logger,
	}
}

// GuardianNearby posts a posisi_ortu_dekat content instance for the device.
// The inner content travels double-encoded inside "con", as the platform
// expects.
func (c *Client) GuardianNearby(ctx context.Context, deviceID string) error {
	if c.postURL == "" || c.accessKey == "" {
		return fmt.Errorf("antares client not configured")
	}

	inner, err := json.Marshal(content{
		Condition: ConditionGuardianNearby,
		DeviceID:  deviceID,
	})
	if err != nil {
		return fmt.Errorf("marshal content: %w", err)
	}

	payload, err := json.Marshal(map[string]any{
		"m2m:cin": map[string]any{
			"con": string(inner),
		},
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.postURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-M2M-Origin", c.accessKey)
	req.Header.Set("Content-Type", "application/json;ty=4")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post to antares: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
	default:
		return fmt.Errorf("antares responded %d", resp.StatusCode)
	}

	c.logger.Info("Guardian-nearby signal sent",
		zap.String("device_id", deviceID),
		zap.Int("status", resp.StatusCode),
	)

	return nil
}
