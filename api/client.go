// Package api is the HTTP client for the back-office REST backend. It knows nothing about
// sessions: callers pass the access token to attach, and every failure comes back as a *Failure.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-practice-client/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	RequestIDHeader = "X-Request-ID"

	defaultTimeout      = 30 * time.Second
	defaultMaxBodyBytes = 32 << 20
)

// Response is a successful (2xx) backend response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if v == nil || len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &Failure{Kind: KindDecode, Status: r.Status, Message: "response is not the expected JSON", Cause: err}
	}
	return nil
}

type Client struct {
	baseURL      string
	httpClient   *http.Client
	userAgent    string
	maxBodyBytes int64
}

type ClientOption func(*Client)

// WithHTTPClient sets the underlying http client (primarily for testing)
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithMaxBodyBytes caps the response body size. Larger responses fail with KindDecode.
func WithMaxBodyBytes(n int64) ClientOption {
	return func(c *Client) {
		c.maxBodyBytes = n
	}
}

// NewClient creates a client for the backend rooted at baseURL.
func NewClient(baseURL string, options ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidConfig, "base url %q", baseURL)
	}
	c := &Client{
		baseURL:      strings.TrimRight(u.String(), "/"),
		httpClient:   &http.Client{Timeout: defaultTimeout},
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL resolves an endpoint and query against the base URL.
func (c *Client) URL(endpoint string, query url.Values) string {
	target := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}

// Send issues req once. accessToken is attached as a bearer credential when not empty.
// Non-2xx responses are returned as a *Failure of kind KindHTTP.
func (c *Client) Send(ctx context.Context, req Request, accessToken string) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		r, err := req.Body.reader()
		if err != nil {
			return nil, &Failure{Kind: KindEncode, Cause: err}
		}
		body = r
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.URL(req.Endpoint, req.Query), body)
	if err != nil {
		return nil, &Failure{Kind: KindTransport, Message: "build request", Cause: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", req.Body.ContentType())
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set(RequestIDHeader, requestID)
	if accessToken != "" {
		(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}).SetAuthHeader(httpReq)
	}

	started := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Debug().Err(err).Str("route", req.Route()).Str("request_id", requestID).Msg("api request failed")
		return nil, &Failure{Kind: KindTransport, Message: "no response from backend", Cause: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, &Failure{Kind: KindTransport, Status: httpResp.StatusCode, Message: "read response body", Cause: err}
	}
	if int64(len(data)) > c.maxBodyBytes {
		return nil, &Failure{
			Kind:    KindDecode,
			Status:  httpResp.StatusCode,
			Message: "response too large",
			Cause:   apperrors.Wrapf(apperrors.ErrResponseTooLarge, "limit is %d bytes", c.maxBodyBytes),
		}
	}

	log.Debug().
		Str("route", req.Route()).
		Str("request_id", requestID).
		Int("status", httpResp.StatusCode).
		Dur("took", time.Since(started)).
		Msg("api request")

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, httpFailure(httpResp.StatusCode, data)
	}
	return &Response{Status: httpResp.StatusCode, Header: httpResp.Header, Body: data}, nil
}
