package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// NonCompliant is the verdict the model returns for text that failed
// moderation. Any other verdict counts as compliant.
const NonCompliant = "不合规"

// Client asks the LLM sidecar to moderate user-provided text (nicknames
// and signatures).
type Client struct {
	http *http.Client
	url  string
}

// New builds a client for the moderation endpoint
// http://<host>:<port>/<serviceName>.
func New(host string, port int, serviceName string) *Client {
	return &Client{
		http: &http.Client{Timeout: 10 * time.Second},
		url:  fmt.Sprintf("http://%s:%d/%s", host, port, serviceName),
	}
}

// Classify returns the model's verdict for text.
func (c *Client) Classify(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("LLM请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("LLM请求失败, 状态码: %d", resp.StatusCode)
	}

	var out struct {
		Classification string `json:"classification"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("解析JSON失败: %w", err)
	}
	return out.Classification, nil
}
