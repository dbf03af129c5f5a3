package httpx

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

	"github.com/dmitrijs2005/todoboard/internal/common"
)

// BasicAuth replaces the bearer credential for calls made with a shared key.
type BasicAuth struct {
	Username string
	Password string
}

// Request describes one JSON call relative to the transport's base URL.
// Body may be nil, a json.RawMessage, []byte or any JSON-encodable value.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   any
	Basic  *BasicAuth

	// Anonymous sends no credential at all.
	Anonymous bool
}

// Transport performs authenticated JSON calls against one base URL.
type Transport struct {
	baseURL        string
	client         *http.Client
	creds          CredentialProvider
	onUnauthorized func(ctx context.Context)
}

type Option func(*Transport)

// WithHTTPClient swaps the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) { t.client = c }
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) { t.client.Timeout = d }
}

// WithUnauthorizedHook registers fn to run whenever a bearer call gets a 401.
func WithUnauthorizedHook(fn func(ctx context.Context)) Option {
	return func(t *Transport) { t.onUnauthorized = fn }
}

func NewTransport(baseURL string, creds CredentialProvider, opts ...Option) *Transport {
	t := &Transport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		creds:   creds,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Do sends req and decodes a 2xx JSON reply into out (which may be nil).
// Without Basic auth the bearer credential is mandatory: when the provider has
// none, Do returns common.ErrNoCredential without touching the network.
func (t *Transport) Do(ctx context.Context, req Request, out any) error {
	var token string
	bearer := req.Basic == nil && !req.Anonymous
	if bearer {
		if t.creds == nil {
			return common.ErrNoCredential
		}
		var err error
		token, err = t.creds.Credential(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrNoCredential, err)
		}
		if token == "" {
			return common.ErrNoCredential
		}
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	u := t.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	switch {
	case req.Basic != nil:
		httpReq.SetBasicAuth(req.Basic.Username, req.Basic.Password)
	case bearer:
		httpReq.Header.Set(common.AuthorizationHeader, common.BearerPrefix+token)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized && bearer && t.onUnauthorized != nil {
			t.onUnauthorized(ctx)
		}
		return ParseError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func encodeBody(v any) (io.Reader, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return bytes.NewReader(b), nil
	case []byte:
		return bytes.NewReader(b), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(data), nil
	}
}
