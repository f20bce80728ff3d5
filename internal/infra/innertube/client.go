// Package innertube provides a client for the music service's internal web API.
package innertube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

const (
	defaultBootstrapRetry = time.Minute
	defaultBaseURL        = "https://music.youtube.com/youtubei/v1"
	defaultWebURL         = "https://music.youtube.com"
	defaultClientName     = "WEB_REMIX"
	defaultClientVersion  = "1.20241023.01.00"
	userAgent             = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var (
	visitorDataRe   = regexp.MustCompile(`"VISITOR_DATA"\s*:\s*"([^"]+)"`)
	clientVersionRe = regexp.MustCompile(`"INNERTUBE_CLIENT_VERSION"\s*:\s*"([^"]+)"`)
)

// Config represents innertube client configuration.
type Config struct {
	BaseURL       string
	WebURL        string // Page scraped for visitor data; empty disables the bootstrap
	ClientName    string
	ClientVersion string
	HL            string // Interface language
	GL            string // Content region
	APIKey        string
	Timeout       time.Duration
}

// Client is an innertube API client.
type Client struct {
	baseURL    string
	webURL     string
	apiKey     string
	clientName string
	hl, gl     string
	httpClient *http.Client

	bootstrapMu    sync.Mutex
	bootstrapped   bool
	lastBootstrap  time.Time
	bootstrapRetry time.Duration
	visitorData    string
	clientVersion  string
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("innertube: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("innertube: HTTP %d: %s", e.StatusCode, e.Message)
}

// New creates a new innertube client.
func New(cfg Config) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		webURL:        cfg.WebURL,
		apiKey:        cfg.APIKey,
		clientName:    cfg.ClientName,
		clientVersion: cfg.ClientVersion,
		hl:            cfg.HL,
		gl:            cfg.GL,
		httpClient:    &http.Client{Timeout: cfg.Timeout},

		bootstrapRetry: defaultBootstrapRetry,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.clientName == "" {
		c.clientName = defaultClientName
	}
	if c.clientVersion == "" {
		c.clientVersion = defaultClientVersion
	}
	if c.hl == "" {
		c.hl = "en"
	}
	if c.gl == "" {
		c.gl = "US"
	}
	if cfg.Timeout <= 0 {
		c.httpClient.Timeout = 10 * time.Second
	}
	return c
}

// NewDefault creates a client against the public endpoints.
func NewDefault() *Client {
	return New(Config{WebURL: defaultWebURL})
}

// VisitorData returns the visitor ID sent with requests, bootstrapping it if needed.
func (c *Client) VisitorData(ctx context.Context) string {
	c.bootstrap(ctx)
	return c.visitorID()
}

func (c *Client) visitorID() string {
	c.bootstrapMu.Lock()
	defer c.bootstrapMu.Unlock()
	return c.visitorData
}

// bootstrap scrapes the web page for the visitor ID and client version until one
// scrape succeeds. Failed scrapes are retried at most once per bootstrapRetry;
// requests proceed without the values meanwhile.
func (c *Client) bootstrap(ctx context.Context) {
	c.bootstrapMu.Lock()
	defer c.bootstrapMu.Unlock()

	if c.bootstrapped || c.webURL == "" {
		return
	}
	if !c.lastBootstrap.IsZero() && time.Since(c.lastBootstrap) < c.bootstrapRetry {
		return
	}
	c.lastBootstrap = time.Now()

	if err := c.scrape(ctx); err != nil {
		zlog.Warn().Msgf("innertube: bootstrap failed, retrying in %s: %v", c.bootstrapRetry, err)
		return
	}
	c.bootstrapped = true

	zlog.Debug().Msgf("innertube: bootstrap done: visitor_data=%t client_version=%s", c.visitorData != "", c.clientVersion)
}

// scrape reads ytcfg values from the web page. Callers hold bootstrapMu.
func (c *Client) scrape(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.webURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create bootstrap request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", c.hl)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "bootstrap request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to parse bootstrap page")
	}

	doc.Find("script").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, "ytcfg.set") {
			return true
		}
		if m := visitorDataRe.FindStringSubmatch(text); m != nil {
			c.visitorData = m[1]
		}
		if m := clientVersionRe.FindStringSubmatch(text); m != nil {
			c.clientVersion = m[1]
		}
		return c.visitorData == ""
	})
	return nil
}

func (c *Client) requestContext() map[string]any {
	c.bootstrapMu.Lock()
	defer c.bootstrapMu.Unlock()

	client := map[string]any{
		"clientName":    c.clientName,
		"clientVersion": c.clientVersion,
		"hl":            c.hl,
		"gl":            c.gl,
	}
	if c.visitorData != "" {
		client["visitorData"] = c.visitorData
	}
	return map[string]any{"client": client}
}

// post sends body to the endpoint and decodes the response into out.
func (c *Client) post(ctx context.Context, endpoint string, body map[string]any, out any) error {
	c.bootstrap(ctx)

	body["context"] = c.requestContext()
	data, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "failed to encode request")
	}

	params := url.Values{}
	params.Set("prettyPrint", "false")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	reqURL := c.baseURL + "/" + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.webURL != "" {
		req.Header.Set("Origin", c.webURL)
	}
	if vd := c.visitorID(); vd != "" {
		req.Header.Set("X-Goog-Visitor-Id", vd)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &StatusError{StatusCode: resp.StatusCode}
		var envelope apiError
		if err := json.Unmarshal(respBody, &envelope); err == nil && envelope.Error != nil {
			serr.Message = envelope.Error.Message
		}
		return serr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return errors.Wrap(err, "failed to parse response")
	}
	return nil
}
