package llm

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

const systemPrompt = "You are a helpful assistant."

// OpenAIGenerator produces marketing post drafts from the weekly summary
// via the chat-completions API.
type OpenAIGenerator struct {
	endpoint    string
	model       string
	apiKey      string
	expandPosts bool
	platform    domain.Platform
	httpClient  *http.Client
	policy      retry.Policy
	logger      *slog.Logger
}

var _ ports.PostGenerator = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator builds a generator from configuration.
func NewOpenAIGenerator(cfg config.OpenAIConfig, platform domain.Platform, httpClient *http.Client, log *slog.Logger) *OpenAIGenerator {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if platform == "" {
		platform = domain.PlatformLinkedIn
	}
	return &OpenAIGenerator{
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		expandPosts: cfg.ExpandPosts,
		platform:    platform,
		httpClient:  httpClient,
		policy:      retry.DefaultPolicy(),
		logger:      log,
	}
}

// GeneratePosts asks for exactly count distinct post ideas in one request
// and, when expansion is enabled, turns each idea into a full post with one
// further request. Any shortfall fails the whole run: fewer than count
// usable posts is never returned.
func (g *OpenAIGenerator) GeneratePosts(ctx context.Context, summary string, count int) ([]domain.GeneratedPost, error) {
	if strings.TrimSpace(summary) == "" {
		return nil, fmt.Errorf("empty summary: %w", domain.ErrGeneration)
	}

	raw, err := g.chatComplete(ctx, ideasPrompt(summary, count))
	if err != nil {
		return nil, fmt.Errorf("request ideas: %w: %w", domain.ErrGeneration, err)
	}

	ideas, err := parseIdeas(raw, count)
	if err != nil {
		return nil, err
	}
	g.debug("ideas parsed", "count", len(ideas), "expand", g.expandPosts)

	posts := make([]domain.GeneratedPost, 0, count)
	for _, idea := range ideas {
		content := idea.Body
		if g.expandPosts {
			content, err = g.chatComplete(ctx, postPrompt(idea.Body))
			if err != nil {
				return nil, fmt.Errorf("expand post %q: %w: %w", idea.Heading, domain.ErrGeneration, err)
			}
			content = strings.TrimSpace(content)
		}
		posts = append(posts, domain.GeneratedPost{
			Title:    idea.Heading,
			Content:  content,
			Platform: g.platform,
			Status:   domain.StatusDraft,
		})
	}

	if err := validatePosts(posts, count); err != nil {
		return nil, err
	}
	return posts, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (g *OpenAIGenerator) chatComplete(ctx context.Context, userPrompt string) (string, error) {
	if g.apiKey == "" || g.endpoint == "" || g.model == "" {
		return "", fmt.Errorf("openai client misconfigured")
	}

	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	var content string
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
		if err != nil {
			return retry.Permanent(fmt.Errorf("new request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("send chat request: %w (%w)", err, domain.ErrNetwork)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("openai status %s: %w", resp.Status, domain.ErrNetwork)
		case resp.StatusCode != http.StatusOK:
			payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return retry.Permanent(fmt.Errorf("openai status %s: %s", resp.Status, strings.TrimSpace(string(payload))))
		}

		var decoded chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return retry.Permanent(fmt.Errorf("decode chat response: %w", err))
		}
		if len(decoded.Choices) == 0 {
			return retry.Permanent(fmt.Errorf("chat response has no choices"))
		}
		content = decoded.Choices[0].Message.Content
		return nil
	}

	if err := retry.Do(ctx, g.policy, op); err != nil {
		return "", err
	}
	return content, nil
}

// parseIdeas decodes the model reply into exactly count usable ideas.
// Wrapping code fences are tolerated even though the prompt forbids them.
func parseIdeas(raw string, count int) ([]domain.PostIdea, error) {
	trimmed := stripCodeFence(raw)

	var ideas []domain.PostIdea
	if err := json.Unmarshal([]byte(trimmed), &ideas); err != nil {
		return nil, fmt.Errorf("parse ideas response: %w: %w", domain.ErrGeneration, err)
	}

	if len(ideas) != count {
		return nil, fmt.Errorf("got %d parseable ideas, want %d: %w", len(ideas), count, domain.ErrGeneration)
	}
	for i, idea := range ideas {
		if strings.TrimSpace(idea.Heading) == "" || strings.TrimSpace(idea.Body) == "" {
			return nil, fmt.Errorf("idea %d is blank: %w", i+1, domain.ErrGeneration)
		}
	}
	return ideas, nil
}

func validatePosts(posts []domain.GeneratedPost, count int) error {
	if len(posts) != count {
		return fmt.Errorf("got %d posts, want %d: %w", len(posts), count, domain.ErrGeneration)
	}
	seen := make(map[string]int, count)
	for i, post := range posts {
		if strings.TrimSpace(post.Content) == "" {
			return fmt.Errorf("post %d is empty: %w", i+1, domain.ErrGeneration)
		}
		if prev, ok := seen[post.Content]; ok {
			return fmt.Errorf("posts %d and %d have identical content: %w", prev+1, i+1, domain.ErrGeneration)
		}
		seen[post.Content] = i
	}
	return nil
}

func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func (g *OpenAIGenerator) debug(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}

func ideasPrompt(summary string, count int) string {
	return fmt.Sprintf(`You are a social media marketer.

Task:
- List %d unique topics that I worked on that can be turned into LinkedIn posts based on the following weekly GitHub activity summary.

Note:
- Do not add any emojis.
- Respond with a bare JSON array of objects, no markdown and no code blocks.
- Each object has exactly two fields:
- heading: a short title for the post
- body: a detailed explanation of the topic suitable for a LinkedIn post

Summary:
%s`, count, summary)
}

func postPrompt(brief string) string {
	return fmt.Sprintf(`You are a social media marketer and a good story writer with solid technical knowledge.

Your tasks:
- Based on the following brief, create a LinkedIn post.
- Make it personal and add story-telling.
- Add reasons supporting why I would have done this.

Notes:
- Always write in first person, like a human and not like a bot.
- Emojis and a tiny bit of humor are fine if relevant.
- Only provide the post body without any markdown or wrapping text.
- Keep the language simple, professional yet engaging.

Brief:
%s`, brief)
}
