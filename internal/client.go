package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultAPIPrefix is where the backend mounts its JSON API
const DefaultAPIPrefix = "/api"

// URLResolver builds playable URLs for session files
type URLResolver interface {
	MediaURL(sessionID string, kind FileKind, name string) string
}

// Client talks to the video-editing backend
type Client struct {
	base       *url.URL
	prefix     string
	http       *http.Client
	cacheToken func() string
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces http.DefaultClient
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithAPIPrefix overrides DefaultAPIPrefix ("" mounts at the root)
func WithAPIPrefix(prefix string) ClientOption {
	return func(c *Client) {
		c.prefix = "/" + strings.Trim(prefix, "/")
		if c.prefix == "/" {
			c.prefix = ""
		}
	}
}

// WithCacheBuster replaces the cache-busting token generator
func WithCacheBuster(token func() string) ClientOption {
	return func(c *Client) {
		c.cacheToken = token
	}
}

// NewClient creates a client for the backend at baseURL
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base:       u,
		prefix:     DefaultAPIPrefix,
		http:       http.DefaultClient,
		cacheToken: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// HTTPClient returns the underlying http.Client
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// endpoint joins escaped path segments under the API prefix. A segment
// containing "/" is escaped piecewise so nested asset names keep their
// directory structure.
func (c *Client) endpoint(segments ...string) string {
	var b strings.Builder
	b.WriteString(c.base.String())
	b.WriteString(c.prefix)
	for _, seg := range segments {
		b.WriteByte('/')
		b.WriteString(escapePath(seg))
	}
	return b.String()
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// MediaURL returns the raw file URL for an asset or output. Output URLs
// carry a cache-busting token since the agent re-renders them in place.
func (c *Client) MediaURL(sessionID string, kind FileKind, name string) string {
	if kind == KindOutput {
		u := c.endpoint("sessions", sessionID, "outputs", name)
		if c.cacheToken != nil {
			u += "?v=" + url.QueryEscape(c.cacheToken())
		}
		return u
	}
	return c.endpoint("sessions", sessionID, "assets", name)
}

// EventsURL returns the server-push stream URL of a session
func (c *Client) EventsURL(sessionID string) string {
	return c.endpoint("sessions", sessionID, "events")
}

// ListSessions returns all session ids
func (c *Client) ListSessions(ctx context.Context) ([]string, error) {
	var out struct {
		Sessions []string `json:"sessions"`
	}
	if err := c.getJSON(ctx, "list sessions", c.endpoint("sessions"), &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// CreateSession creates a session and returns the id the backend assigned
func (c *Client) CreateSession(ctx context.Context, name string) (string, error) {
	body, contentType, err := buildForm(func(w *multipart.Writer) error {
		return w.WriteField("name", name)
	})
	if err != nil {
		return "", err
	}
	var out struct {
		Session string `json:"session"`
	}
	if err := c.post(ctx, "create session", c.endpoint("sessions"), body, contentType, &out); err != nil {
		return "", err
	}
	if out.Session == "" {
		return "", &TransportError{Op: "create session", URL: c.endpoint("sessions"), Err: errors.New("empty session id in response")}
	}
	return out.Session, nil
}

// DeleteSession deletes a session
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	u := c.endpoint("sessions", id)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return &TransportError{Op: "delete session", URL: u, Err: err}
	}
	return c.do(req, "delete session", nil)
}

// ListMessages returns the transcript of a session
func (c *Client) ListMessages(ctx context.Context, id string) ([]Message, error) {
	var out struct {
		Messages []Message `json:"messages"`
	}
	if err := c.getJSON(ctx, "list messages", c.endpoint("sessions", id, "messages"), &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// ListAssets returns the asset inventory of a session
func (c *Client) ListAssets(ctx context.Context, id string) ([]FileDescriptor, error) {
	var out struct {
		Assets []FileDescriptor `json:"assets"`
	}
	if err := c.getJSON(ctx, "list assets", c.endpoint("sessions", id, "assets"), &out); err != nil {
		return nil, err
	}
	for i := range out.Assets {
		out.Assets[i].Kind = KindAsset
	}
	return out.Assets, nil
}

// ListOutputs returns the output inventory of a session, newest first
func (c *Client) ListOutputs(ctx context.Context, id string) ([]FileDescriptor, error) {
	var out struct {
		Outputs []FileDescriptor `json:"outputs"`
	}
	if err := c.getJSON(ctx, "list outputs", c.endpoint("sessions", id, "outputs"), &out); err != nil {
		return nil, err
	}
	for i := range out.Outputs {
		out.Outputs[i].Kind = KindOutput
	}
	return out.Outputs, nil
}

// UploadAssets uploads local files as session assets
func (c *Client) UploadAssets(ctx context.Context, id string, paths []string) error {
	if len(paths) == 0 {
		return errors.New("no files to upload")
	}
	body, contentType, err := buildForm(func(w *multipart.Writer) error {
		for _, p := range paths {
			if err := addFormFile(w, "files", p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return c.post(ctx, "upload assets", c.endpoint("sessions", id, "assets", "upload"), body, contentType, nil)
}

// DeleteAssets deletes assets by name
func (c *Client) DeleteAssets(ctx context.Context, id string, names []string) (*AssetDeleteResult, error) {
	body, contentType, err := buildForm(func(w *multipart.Writer) error {
		for _, name := range names {
			if err := w.WriteField("asset_names", name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	var out AssetDeleteResult
	if err := c.post(ctx, "delete assets", c.endpoint("sessions", id, "assets", "delete"), body, contentType, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendMessage sends a prompt to the agent and returns its reply
func (c *Client) SendMessage(ctx context.Context, id, text, model string, assetNames []string) (string, error) {
	body, contentType, err := buildForm(func(w *multipart.Writer) error {
		if err := w.WriteField("message", text); err != nil {
			return err
		}
		if model != "" {
			if err := w.WriteField("model", model); err != nil {
				return err
			}
		}
		if len(assetNames) > 0 {
			encoded, err := json.Marshal(assetNames)
			if err != nil {
				return err
			}
			if err := w.WriteField("asset_names", string(encoded)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	var out struct {
		Reply string `json:"reply"`
	}
	if err := c.post(ctx, "send message", c.endpoint("sessions", id, "message"), body, contentType, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

// OpenEventStream starts the server-push subscription of a session
func (c *Client) OpenEventStream(ctx context.Context, id string) (io.ReadCloser, error) {
	u := c.EventsURL(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &TransportError{Op: "subscribe", URL: u, Err: err}
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "subscribe", URL: u, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, &TransportError{Op: "subscribe", URL: u, Status: resp.StatusCode, Err: errors.New(readErrorBody(resp.Body, resp.Status))}
	}
	return resp.Body, nil
}

func (c *Client) getJSON(ctx context.Context, op, u string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &TransportError{Op: op, URL: u, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, op, v)
}

func (c *Client) post(ctx context.Context, op, u string, body io.Reader, contentType string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return &TransportError{Op: op, URL: u, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	return c.do(req, op, v)
}

func (c *Client) do(req *http.Request, op string, v interface{}) error {
	u := req.URL.String()
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{Op: op, URL: u, Status: resp.StatusCode, Err: errors.New(readErrorBody(resp.Body, resp.Status))}
	}
	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &TransportError{Op: op, URL: u, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// readErrorBody extracts {"error": "..."} when present, else the status text
func readErrorBody(r io.Reader, status string) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(data, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Detail != "" {
			return payload.Detail
		}
	}
	return status
}

func buildForm(fill func(w *multipart.Writer) error) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := fill(w); err != nil {
		return nil, "", fmt.Errorf("failed to build form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to build form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func addFormFile(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}
