package venturelinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Ventureline HTTP API client.
type Client struct {
	BaseURL     string
	UserID      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
	}
}

// Venture represents the API venture model.
type Venture struct {
	ID           string `json:"id"`
	UserID       string `json:"userId"`
	Title        string `json:"title"`
	CurrentStage int    `json:"currentStage"`
	IsCompleted  bool   `json:"isCompleted"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

// StageContent represents one stage's content row.
type StageContent struct {
	ID          string         `json:"id"`
	VentureID   string         `json:"ventureId"`
	Stage       string         `json:"stage"`
	Content     map[string]any `json:"content"`
	AIAnalysis  map[string]any `json:"aiAnalysis,omitempty"`
	IsCompleted bool           `json:"isCompleted"`
	UpdatedAt   string         `json:"updatedAt"`
}

// ChatMessage is one conversation entry.
type ChatMessage struct {
	ID        string `json:"id"`
	VentureID string `json:"ventureId"`
	Stage     string `json:"stage"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Turn is the result of submitting a chat message.
type Turn struct {
	UserMessage      ChatMessage    `json:"userMessage"`
	AssistantMessage ChatMessage    `json:"assistantMessage"`
	AIAnalysis       map[string]any `json:"aiAnalysis,omitempty"`
}

// Slide is one pitch deck entry.
type Slide struct {
	Title   string `json:"title"`
	Content any    `json:"content"`
}

// Report is the synthesized venture report.
type Report struct {
	ID            string         `json:"id"`
	VentureID     string         `json:"ventureId"`
	Title         string         `json:"title"`
	FullReport    map[string]any `json:"fullReport"`
	PitchDeck     []Slide        `json:"pitchDeck"`
	ElevatorPitch string         `json:"elevatorPitch"`
	FullPitch     string         `json:"fullPitch"`
	CreatedAt     string         `json:"createdAt"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// ListVentures returns the caller's ventures, most recent first.
func (c *Client) ListVentures(ctx context.Context) ([]Venture, error) {
	var resp []Venture
	err := c.do(ctx, http.MethodGet, "ventures", nil, &resp)
	return resp, err
}

// CreateVenture creates a venture and seeds its welcome message.
func (c *Client) CreateVenture(ctx context.Context, title string) (Venture, error) {
	var resp Venture
	err := c.do(ctx, http.MethodPost, "ventures", map[string]any{"title": title}, &resp)
	return resp, err
}

// GetVenture fetches a venture by id.
func (c *Client) GetVenture(ctx context.Context, id string) (Venture, error) {
	var resp Venture
	err := c.do(ctx, http.MethodGet, "ventures/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// AdvanceStage moves the venture's stage pointer.
func (c *Client) AdvanceStage(ctx context.Context, id string, rank int) (Venture, error) {
	var resp Venture
	err := c.do(ctx, http.MethodPatch, "ventures/"+url.PathEscape(id), map[string]any{"currentStage": rank}, &resp)
	return resp, err
}

// DeleteVenture deletes a venture and everything it owns.
func (c *Client) DeleteVenture(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "ventures/"+url.PathEscape(id), nil, nil)
}

// ListStageContents returns all stage content rows in stage order.
func (c *Client) ListStageContents(ctx context.Context, ventureID string) ([]StageContent, error) {
	var resp []StageContent
	err := c.do(ctx, http.MethodGet, c.venturePath(ventureID, "stages"), nil, &resp)
	return resp, err
}

// GetStageContent fetches one stage's content.
func (c *Client) GetStageContent(ctx context.Context, ventureID, stage string) (StageContent, error) {
	var resp StageContent
	err := c.do(ctx, http.MethodGet, c.venturePath(ventureID, "stages/"+url.PathEscape(stage)), nil, &resp)
	return resp, err
}

// SaveStageContent upserts a stage's content. Nil fields keep their stored
// values.
func (c *Client) SaveStageContent(ctx context.Context, ventureID, stage string, content map[string]any, isCompleted *bool) (StageContent, error) {
	body := map[string]any{}
	if content != nil {
		body["content"] = content
	}
	if isCompleted != nil {
		body["isCompleted"] = *isCompleted
	}
	var resp StageContent
	err := c.do(ctx, http.MethodPost, c.venturePath(ventureID, "stages/"+url.PathEscape(stage)), body, &resp)
	return resp, err
}

// ListMessages returns a stage's conversation in order.
func (c *Client) ListMessages(ctx context.Context, ventureID, stage string) ([]ChatMessage, error) {
	var resp []ChatMessage
	err := c.do(ctx, http.MethodGet, c.venturePath(ventureID, "stages/"+url.PathEscape(stage)+"/messages"), nil, &resp)
	return resp, err
}

// SendMessage submits a chat message and returns the full turn.
func (c *Client) SendMessage(ctx context.Context, ventureID, stage, content string) (Turn, error) {
	var resp Turn
	err := c.do(ctx, http.MethodPost, c.venturePath(ventureID, "stages/"+url.PathEscape(stage)+"/messages"), map[string]any{"content": content}, &resp)
	return resp, err
}

// GenerateReport synthesizes the venture report. All six working stages
// must be complete first.
func (c *Client) GenerateReport(ctx context.Context, ventureID string) (Report, error) {
	var resp Report
	err := c.do(ctx, http.MethodPost, c.venturePath(ventureID, "report"), nil, &resp)
	return resp, err
}

// GetReport fetches an existing report.
func (c *Client) GetReport(ctx context.Context, ventureID string) (Report, error) {
	var resp Report
	err := c.do(ctx, http.MethodGet, c.venturePath(ventureID, "report"), nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/api/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.UserID != "":
		req.Header.Set("X-User-Id", c.UserID)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) venturePath(ventureID, p string) string {
	return fmt.Sprintf("ventures/%s/%s", url.PathEscape(ventureID), strings.TrimLeft(p, "/"))
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
