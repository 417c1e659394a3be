// Package fetch speaks the upstream cache server's wire protocol.
//
// Grounded in the original crawler's utils/download.py: a GET to
// http://{host}:{port}/?q={url}&u={user_agent} whose body is a CBOR-encoded
// record. Here decoded with github.com/fxamacker/cbor/v2, the ecosystem's
// standard CBOR codec (no stdlib equivalent exists), since spec.md §6
// requires speaking this protocol bit-for-bit.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"
)

// RawResponse carries the final URL and raw body content the cache server
// retrieved, mirroring resp.raw_response in the Python original.
type RawResponse struct {
	URL     string `cbor:"url"`
	Content []byte `cbor:"content"`
}

// Response is the decoded (or synthesized) result of a download attempt.
type Response struct {
	URL         string       `cbor:"url"`
	Status      int          `cbor:"status"`
	Error       string       `cbor:"error"`
	RawResponse *RawResponse `cbor:"response"`
}

// Client issues requests to the cache server. Stateless and retry-free, as
// spec.md §4.4 requires.
type Client struct {
	httpClient *http.Client
	host       string
	port       int
	userAgent  string
	log        zerolog.Logger
}

// NewClient builds a Client targeting host:port, identifying itself with
// userAgent in every request's "u" query parameter.
func NewClient(host string, port int, userAgent string, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{},
		host:       host,
		port:       port,
		userAgent:  userAgent,
		log:        log.With().Str("component", "fetch").Logger(),
	}
}

// Download fetches rawURL through the cache server. It never returns a Go
// error: transport failures and decode failures both become synthetic
// Response values so the caller (the worker) can always mark the URL
// complete and move on, per spec.md §4.4 and §7.
func (c *Client) Download(ctx context.Context, rawURL string) *Response {
	endpoint := fmt.Sprintf("http://%s:%d/", c.host, c.port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return c.transportError(rawURL, err)
	}
	q := url.Values{}
	q.Set("q", rawURL)
	q.Set("u", c.userAgent)
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("url", rawURL).Msg("struggling to connect to cache server")
		return c.transportError(rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.decodeError(rawURL, resp.StatusCode, err)
	}

	var rec Response
	if len(body) == 0 {
		return c.decodeError(rawURL, resp.StatusCode, fmt.Errorf("empty cache response body"))
	}
	if err := cbor.Unmarshal(body, &rec); err != nil {
		return c.decodeError(rawURL, resp.StatusCode, err)
	}
	return &rec
}

func (c *Client) transportError(rawURL string, err error) *Response {
	return &Response{
		URL:    rawURL,
		Status: 600,
		Error:  fmt.Sprintf("connection error: %v", err),
	}
}

func (c *Client) decodeError(rawURL string, status int, err error) *Response {
	c.log.Error().Err(err).Str("url", rawURL).Msg("cache response decode error")
	return &Response{
		URL:    rawURL,
		Status: status,
		Error:  fmt.Sprintf("response decode error: %v", err),
	}
}
