package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ActivityPoster/internal/config"
	"ActivityPoster/internal/domain"
	"ActivityPoster/internal/ports"
	"ActivityPoster/internal/retry"
)

// Notion rejects rich_text items longer than 2000 characters.
const maxRichTextLen = 2000

// Client writes generated posts into a Notion database, one page per post.
type Client struct {
	apiURL     string
	token      string
	databaseID string
	version    string
	httpClient *http.Client
	policy     retry.Policy
	logger     *slog.Logger
}

var _ ports.PostStore = (*Client)(nil)

// NewClient builds a post store from configuration.
func NewClient(cfg config.NotionConfig, httpClient *http.Client, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	version := cfg.Version
	if version == "" {
		version = "2022-06-28"
	}
	return &Client{
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		token:      cfg.Token,
		databaseID: cfg.DatabaseID,
		version:    version,
		httpClient: httpClient,
		policy:     retry.DefaultPolicy(),
		logger:     log,
	}
}

// CreatePost inserts one page with Date/Platform/Status properties and the
// post content as paragraph blocks. Returns the created page id.
func (c *Client) CreatePost(ctx context.Context, post domain.GeneratedPost) (string, error) {
	if c.token == "" || c.databaseID == "" {
		return "", fmt.Errorf("notion client misconfigured")
	}

	body, err := json.Marshal(pageRequest(c.databaseID, post))
	if err != nil {
		return "", fmt.Errorf("marshal page payload: %w", err)
	}

	var pageID string
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/v1/pages", bytes.NewReader(body))
		if err != nil {
			return retry.Permanent(fmt.Errorf("new request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Notion-Version", c.version)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("create page: %w (%w)", err, domain.ErrNetwork)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return retry.Permanent(fmt.Errorf("notion status %s: %w", resp.Status, domain.ErrAuth))
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("notion status %s: %w", resp.Status, domain.ErrNetwork)
		case resp.StatusCode != http.StatusOK:
			payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return retry.Permanent(fmt.Errorf("notion status %s: %s", resp.Status, strings.TrimSpace(string(payload))))
		}

		var decoded struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return retry.Permanent(fmt.Errorf("decode page response: %w", err))
		}
		pageID = decoded.ID
		return nil
	}

	if err := retry.Do(ctx, c.policy, op); err != nil {
		return "", err
	}

	c.debug("page created", "page_id", pageID, "title", post.Title)
	return pageID, nil
}

func pageRequest(databaseID string, post domain.GeneratedPost) map[string]any {
	children := make([]map[string]any, 0, 1)
	for _, chunk := range chunkText(post.Content, maxRichTextLen) {
		children = append(children, map[string]any{
			"object": "block",
			"type":   "paragraph",
			"paragraph": map[string]any{
				"rich_text": []map[string]any{
					{"type": "text", "text": map[string]any{"content": chunk}},
				},
			},
		})
	}

	return map[string]any{
		"parent": map[string]any{"database_id": databaseID},
		"properties": map[string]any{
			"Title": map[string]any{
				"title": []map[string]any{
					{"text": map[string]any{"content": post.Title}},
				},
			},
			"Date": map[string]any{
				"date": map[string]any{"start": post.Date.Format("2006-01-02")},
			},
			"Platform": map[string]any{
				"select": map[string]any{"name": string(post.Platform)},
			},
			"Status": map[string]any{
				"select": map[string]any{"name": string(post.Status)},
			},
		},
		"children": children,
	}
}

// chunkText splits on rune boundaries so multi-byte content never lands
// split across a block edge.
func chunkText(text string, limit int) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	chunks := make([]string, 0, len(runes)/limit+1)
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
