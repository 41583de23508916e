// Package api is the HTTP client for the voxread backend: cloud synthesis,
// document text extraction, voice listings and preference sync.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/voxread/voxread/internal/identity"
	"github.com/voxread/voxread/tts"
)

// ErrBackendStatus wraps non-2xx responses.
var ErrBackendStatus = errors.New("backend returned error status")

// ClientConfig holds construction options for the backend client.
type ClientConfig struct {
	// BaseURL of the backend, without a trailing slash.
	BaseURL string

	// Tokens supplies bearer tokens for authenticated endpoints.
	Tokens identity.TokenSource

	// RequestsPerMinute throttles synthesis calls. Defaults to 30.
	RequestsPerMinute int

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client

	Logger *log.Logger
}

// Client talks to the voxread backend.
type Client struct {
	baseURL string
	tokens  identity.TokenSource
	http    *http.Client
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewClient creates a backend client.
func NewClient(cfg ClientConfig) *Client {
	rpm := cfg.RequestsPerMinute
	if rpm == 0 {
		rpm = 30
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		tokens:  cfg.Tokens,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		logger:  logger,
	}
}

// Synthesize posts a synthesis request and streams the binary audio response
// to destPath. Implements tts.CloudSynthesizer.
func (c *Client) Synthesize(ctx context.Context, req tts.Request, destPath string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode synthesis request: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/tts/synthesize", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: synthesis returned %d", ErrBackendStatus, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create audio directory: %w", err)
	}
	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		os.Remove(destPath)
		return fmt.Errorf("write audio file: %w", err)
	}
	c.logger.Debug("cloud audio received", "bytes", n, "path", destPath)
	return nil
}

// ExtractText uploads a document and returns the extracted plain text. The
// backend responds with {"text": ...} on success or {"error": ...}.
func (c *Client) ExtractText(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("finish upload: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/files/extract-text", &buf)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("extraction request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Text  string `json:"text"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode extraction response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: extraction returned %d: %s", ErrBackendStatus, resp.StatusCode, result.Error)
	}
	if result.Error != "" {
		return "", fmt.Errorf("extraction failed: %s", result.Error)
	}
	return result.Text, nil
}

// PutPreferences pushes the full preference snapshot. The snapshot type
// lives with the config package; anything JSON-shaped like the contract
// works here.
func (c *Client) PutPreferences(ctx context.Context, prefs any) error {
	body, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPut, "/preferences", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("preferences request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: preferences returned %d", ErrBackendStatus, resp.StatusCode)
	}
	return nil
}

// Voices lists the cloud voices for a provider. Failures yield an empty
// list and an error the caller may choose to log rather than surface.
func (c *Client) Voices(ctx context.Context, provider string) ([]tts.Voice, error) {
	httpReq, err := c.newRequest(ctx, http.MethodGet, "/voices/"+provider, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("voices request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: voices returned %d", ErrBackendStatus, resp.StatusCode)
	}

	var voices []tts.Voice
	if err := json.NewDecoder(resp.Body).Decode(&voices); err != nil {
		return nil, fmt.Errorf("decode voices: %w", err)
	}
	return voices, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err == nil {
			req.Header.Set("Authorization", "Bearer "+token)
		} else if !errors.Is(err, identity.ErrUnauthenticated) {
			return nil, fmt.Errorf("fetch token: %w", err)
		}
	}
	return req, nil
}
