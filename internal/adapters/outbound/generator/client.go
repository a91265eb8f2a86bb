// Package generator produces listing content through an OpenAI-compatible
// API: chat completions for text and an asynchronous image job endpoint.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/abdidvp/shelfready/internal/domain"
	"github.com/abdidvp/shelfready/internal/logging"
)

// Options configures the client. ImageEndpoint defaults to Endpoint.
type Options struct {
	Endpoint        string
	APIKey          string
	Model           string
	ImageEndpoint   string
	ImageModel      string
	PollInterval    time.Duration
	MaxPollAttempts int
	RetryMax        int
	Timeout         time.Duration
}

type Client struct {
	opts   Options
	client *retryablehttp.Client
	log    logrus.FieldLogger
}

var errPending = errors.New("image still pending")

func New(opts Options, log logrus.FieldLogger) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("generator endpoint is required")
	}
	opts.Endpoint = strings.TrimRight(opts.Endpoint, "/")
	if opts.ImageEndpoint == "" {
		opts.ImageEndpoint = opts.Endpoint
	}
	opts.ImageEndpoint = strings.TrimRight(opts.ImageEndpoint, "/")
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	if opts.ImageModel == "" {
		opts.ImageModel = "gpt-image-1"
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.MaxPollAttempts <= 0 {
		opts.MaxPollAttempts = 30
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	log = log.WithField("component", "generator")
	client := retryablehttp.NewClient()
	client.RetryMax = opts.RetryMax
	client.HTTPClient.Timeout = opts.Timeout
	client.Logger = logging.Leveled{Log: log}
	return &Client{opts: opts, client: client, log: log}, nil
}

func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) (domain.Generated, error) {
	if req.Listing == nil {
		return domain.Generated{}, fmt.Errorf("generation request has no listing")
	}
	if req.Kind == domain.GenerateImage {
		return c.image(ctx, req)
	}
	prompt, err := Prompt(req)
	if err != nil {
		return domain.Generated{}, err
	}

	body, err := c.post(ctx, c.opts.Endpoint+"/chat/completions", map[string]any{
		"model": c.opts.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt},
		},
		"temperature": 0.4,
	})
	if err != nil {
		return domain.Generated{}, err
	}
	text := cleanText(gjson.GetBytes(body, "choices.0.message.content").String())
	if text == "" {
		return domain.Generated{}, fmt.Errorf("the generator returned no content")
	}
	if req.Kind == domain.GenerateTags {
		return domain.Generated{Items: splitItems(text, atoi(req.Options["count"]))}, nil
	}
	return domain.Generated{Text: text}, nil
}

// image starts an image job and polls it a bounded number of times. Providers
// that answer synchronously skip the poll loop.
func (c *Client) image(ctx context.Context, req domain.GenerationRequest) (domain.Generated, error) {
	payload := map[string]any{"model": c.opts.ImageModel, "prompt": req.Options["prompt"], "n": 1}
	if style := req.Options["style"]; style != "" {
		payload["style"] = style
	}
	body, err := c.post(ctx, c.opts.ImageEndpoint+"/images/generations", payload)
	if err != nil {
		return domain.Generated{}, err
	}
	if url := gjson.GetBytes(body, "data.0.url").String(); url != "" {
		return domain.Generated{ImageURL: url}, nil
	}
	jobID := gjson.GetBytes(body, "id").String()
	if jobID == "" {
		return domain.Generated{}, fmt.Errorf("the generator returned neither an image nor a job id")
	}

	var url string
	polls := 0
	backoff := retry.WithMaxRetries(uint64(c.opts.MaxPollAttempts-1), retry.NewConstant(c.opts.PollInterval))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		polls++
		status, body, err := c.do(ctx, http.MethodGet, c.opts.ImageEndpoint+"/images/generations/"+jobID, nil)
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("polling image job %s: status %d", jobID, status)
		}
		switch gjson.GetBytes(body, "status").String() {
		case "succeeded", "completed":
			url = gjson.GetBytes(body, "data.0.url").String()
			if url == "" {
				return fmt.Errorf("image job %s finished without an image", jobID)
			}
			return nil
		case "failed", "cancelled":
			msg := gjson.GetBytes(body, "error.message").String()
			if msg == "" {
				msg = "no reason given"
			}
			return fmt.Errorf("image job %s failed: %s", jobID, msg)
		default:
			return retry.RetryableError(errPending)
		}
	})
	if errors.Is(err, errPending) {
		return domain.Generated{}, fmt.Errorf("image generation did not finish after %d polls", polls)
	}
	if err != nil {
		return domain.Generated{}, err
	}
	c.log.WithFields(logrus.Fields{"job_id": jobID, "polls": polls}).Debug("image generated")
	return domain.Generated{ImageURL: url}, nil
}

func (c *Client) post(ctx context.Context, url string, payload map[string]any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	status, body, err := c.do(ctx, http.MethodPost, url, data)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		if msg := gjson.GetBytes(body, "error.message").String(); msg != "" {
			return nil, fmt.Errorf("generator returned status %d: %s", status, msg)
		}
		return nil, fmt.Errorf("generator returned status %d", status)
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("calling generator: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading generator response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// cleanText strips code fences and wrapping quotes models like to add.
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

// splitItems reads a comma or newline separated list, dropping bullets and
// duplicates. limit <= 0 keeps everything.
func splitItems(s string, limit int) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' })
	seen := make(map[string]bool, len(fields))
	var out []string
	for _, f := range fields {
		f = stripBullet(f)
		key := strings.ToLower(f)
		if f == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func stripBullet(s string) string {
	s = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), "-*•"))
	if i := strings.IndexAny(s, ".)"); i > 0 && i <= 3 {
		if _, err := strconv.Atoi(s[:i]); err == nil {
			s = s[i+1:]
		}
	}
	return strings.TrimSpace(s)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
