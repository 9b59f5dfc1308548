// Package qbittorrent implements the subset of the qBittorrent WebUI API
// that curation needs: adding torrents, tagging them, and tracking their
// verification state.
package qbittorrent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"curator/internal/services"
)

// Info describes one torrent as reported by the WebUI.
type Info struct {
	Hash     string  `json:"hash"`
	Name     string  `json:"name"`
	State    string  `json:"state"`
	Progress float64 `json:"progress"`
	SavePath string  `json:"save_path"`
	Tags     string  `json:"tags"`
}

// AddOptions controls a single torrent submission.
type AddOptions struct {
	TorrentPath string
	SavePath    string
	Category    string
	Tags        []string
	Paused      bool
	SkipVerify  bool
}

// Service defines the qBittorrent operations used by curation.
type Service interface {
	Login(ctx context.Context) error
	AddTorrent(ctx context.Context, opts AddOptions) error
	InfoByTag(ctx context.Context, tag string) ([]Info, error)
	Resume(ctx context.Context, hashes []string) error
	EnsureCategory(ctx context.Context, category string) error
}

// Client talks to a qBittorrent WebUI over HTTP. Sessions are cookie
// based; a 403 triggers one silent re-login before the request fails.
type Client struct {
	host       string
	username   string
	password   string
	httpClient *http.Client
}

var _ Service = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. The client's cookie
// jar is replaced so login sessions still stick.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a qBittorrent client for the WebUI at host.
func New(host, username, password string, opts ...Option) (*Client, error) {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return nil, errors.New("qbittorrent host required")
	}
	client := &Client{
		host:       host,
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		client.httpClient.Jar = jar
	}
	return client, nil
}

// Login authenticates against the WebUI. qBittorrent answers 200 with a
// literal "Ok." or "Fails." body rather than a status code.
func (c *Client) Login(ctx context.Context) error {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/v2/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternal, "qbittorrent", "login", "execute login request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return fmt.Errorf("read login response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrExternal, "qbittorrent", "login",
			fmt.Sprintf("login returned %d", resp.StatusCode), nil)
	}
	if strings.TrimSpace(string(body)) != "Ok." {
		return services.Wrap(services.ErrExternal, "qbittorrent", "login", "credentials rejected", nil)
	}
	return nil
}

// AddTorrent submits a .torrent file. The WebUI responds 200 "Ok." on
// success even for duplicates.
func (c *Client) AddTorrent(ctx context.Context, opts AddOptions) error {
	data, err := os.ReadFile(opts.TorrentPath)
	if err != nil {
		return services.Wrap(services.ErrNotFound, "qbittorrent", "add", "read torrent file", err)
	}
	if len(data) == 0 {
		return services.Wrap(services.ErrValidation, "qbittorrent", "add",
			fmt.Sprintf("torrent file %q is empty", opts.TorrentPath), nil)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("torrents", filepath.Base(opts.TorrentPath))
	if err != nil {
		return fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("write torrent payload: %w", err)
	}
	fields := map[string]string{
		"savepath": opts.SavePath,
		"category": opts.Category,
	}
	if len(opts.Tags) > 0 {
		fields["tags"] = strings.Join(opts.Tags, ",")
	}
	if opts.Paused {
		fields["paused"] = "true"
		fields["stopped"] = "true"
	}
	if opts.SkipVerify {
		fields["skip_checking"] = "true"
	}
	for key, value := range fields {
		if value == "" {
			continue
		}
		if err := writer.WriteField(key, value); err != nil {
			return fmt.Errorf("write form field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize multipart body: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/api/v2/torrents/add", writer.FormDataContentType(), buf.Bytes())
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(body)) != "Ok." {
		return services.Wrap(services.ErrExternal, "qbittorrent", "add",
			fmt.Sprintf("add rejected: %s", strings.TrimSpace(string(body))), nil)
	}
	return nil
}

// InfoByTag returns the torrents carrying the given tag.
func (c *Client) InfoByTag(ctx context.Context, tag string) ([]Info, error) {
	endpoint := "/api/v2/torrents/info?tag=" + url.QueryEscape(tag)
	body, err := c.do(ctx, http.MethodGet, endpoint, "", nil)
	if err != nil {
		return nil, err
	}
	var infos []Info
	if err := json.Unmarshal(body, &infos); err != nil {
		return nil, fmt.Errorf("decode torrent info: %w", err)
	}
	return infos, nil
}

// Resume starts the given torrents.
func (c *Client) Resume(ctx context.Context, hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}
	form := url.Values{}
	form.Set("hashes", strings.Join(hashes, "|"))
	_, err := c.do(ctx, http.MethodPost, "/api/v2/torrents/resume",
		"application/x-www-form-urlencoded", []byte(form.Encode()))
	return err
}

// EnsureCategory creates the category if it does not exist. A 409 means
// the category is already there and is not an error.
func (c *Client) EnsureCategory(ctx context.Context, category string) error {
	if strings.TrimSpace(category) == "" {
		return nil
	}
	form := url.Values{}
	form.Set("category", category)
	_, err := c.do(ctx, http.MethodPost, "/api/v2/torrents/createCategory",
		"application/x-www-form-urlencoded", []byte(form.Encode()))
	var statusErr *statusError
	if errors.As(err, &statusErr) && statusErr.code == http.StatusConflict {
		return nil
	}
	return err
}

type statusError struct {
	code int
	path string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qbittorrent %s returned %d", e.path, e.code)
}

// do runs one authenticated request, retrying once after a fresh login
// when the session cookie has expired.
func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte) ([]byte, error) {
	respBody, status, err := c.roundTrip(ctx, method, path, contentType, body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "qbittorrent", "request", "execute "+path, err)
	}
	if status == http.StatusForbidden {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
		respBody, status, err = c.roundTrip(ctx, method, path, contentType, body)
		if err != nil {
			return nil, services.Wrap(services.ErrExternal, "qbittorrent", "request", "execute "+path, err)
		}
	}
	if status != http.StatusOK {
		return nil, services.Wrap(services.ErrExternal, "qbittorrent", "request", "", &statusError{code: status, path: path})
	}
	return respBody, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path, contentType string, body []byte) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.host+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}
