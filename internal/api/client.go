package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/admobkit/admob"
	"github.com/admobkit/admob/internal/log"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

const (
	defaultHTTPTimeout = 60 * time.Second

	DefaultPageSize = 1000
)

// Error is a non-2xx response from a Google API.
type Error struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *Error) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client calls JSON endpoints relative to a base URL and hands back the
// decoded body as a gjson.Result.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	logger     *log.Logger
}

func NewClient(baseURL string, ts oauth2.TokenSource, logger *log.Logger) (*Client, error) {
	u, err := url.ParseRequestURI(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	if logger == nil {
		logger = log.NewTextLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   defaultHTTPTimeout,
			Transport: &oauth2.Transport{Source: ts},
		},
		baseURL: u,
		logger:  logger,
	}, nil
}

func (c *Client) Get(ctx context.Context, path string, params url.Values) (gjson.Result, error) {
	return c.Do(ctx, http.MethodGet, path, params, "", nil)
}

// Post sends body as JSON.
func (c *Client) Post(ctx context.Context, path string, params url.Values, body []byte) (gjson.Result, error) {
	return c.Do(ctx, http.MethodPost, path, params, "application/json", bytes.NewReader(body))
}

func (c *Client) Do(ctx context.Context, method, path string, params url.Values, contentType string, body io.Reader) (gjson.Result, error) {
	u := c.baseURL.ResolveReference(&url.URL{Path: path})
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return gjson.Result{}, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", admob.UserAgent())

	logger := c.logger.With("method", method, "url", u.String())
	logger.Debug("calling api")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, err
	}

	logger.Debug("api response", "status", resp.StatusCode, "bytes", len(b))

	if resp.StatusCode >= http.StatusBadRequest {
		return gjson.Result{}, decodeError(resp, b)
	}

	if len(bytes.TrimSpace(b)) == 0 {
		return gjson.Result{}, nil
	}
	if !gjson.ValidBytes(b) {
		return gjson.Result{}, fmt.Errorf("invalid JSON response from %s", u.Path)
	}

	return gjson.ParseBytes(b), nil
}

// List walks a paginated collection, calling fn for every element of the
// itemsField array. It stops on an empty response or when no
// nextPageToken is returned.
func (c *Client) List(ctx context.Context, path string, params url.Values, itemsField string, fn func(gjson.Result) error) error {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	if q.Get("pageSize") == "" {
		q.Set("pageSize", fmt.Sprint(DefaultPageSize))
	}

	for {
		resp, err := c.Get(ctx, path, q)
		if err != nil {
			return err
		}

		if !resp.Exists() || (resp.IsObject() && len(resp.Map()) == 0) {
			return nil
		}

		for _, item := range resp.Get(itemsField).Array() {
			if err := fn(item); err != nil {
				return err
			}
		}

		next := resp.Get("nextPageToken").String()
		if next == "" {
			return nil
		}
		q.Set("pageToken", next)
	}
}

func decodeError(resp *http.Response, b []byte) error {
	e := &Error{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(b)),
	}

	if gjson.ValidBytes(b) {
		r := gjson.ParseBytes(b)
		if msg := r.Get("error.message"); msg.Exists() {
			e.Message = msg.String()
			e.Status = r.Get("error.status").String()
		} else if desc := r.Get("error_description"); desc.Exists() {
			e.Message = desc.String()
			e.Status = r.Get("error").String()
		}
	}

	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}

	return e
}
