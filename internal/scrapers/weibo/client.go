// Package weibo talks to the comment api of the mobile weibo site.
package weibo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"weibo-analysis/internal/components/failure"
	"weibo-analysis/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_fetch_page = "client.fetch-page"
)

const (
	DefaultBaseUrl   = "https://m.weibo.cn"
	// NoRateLimit as RequestsPerSecond sends requests as fast as the server answers.
	NoRateLimit = -1

	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

type Config struct {
	// Cookie is the raw `Cookie` header copied from a logged in browser session.
	Cookie                  string  `json:"cookie"`
	BaseUrl                 string  `json:"base_url"`
	UserAgent               string  `json:"user_agent"`
	TimeoutSeconds          int     `json:"timeout_seconds"`
	RequestsPerSecond       float64 `json:"requests_per_second"`
	RetryCount              int     `json:"retry_count"`
	RetryWaitMillis         int     `json:"retry_wait_millis"`
	DisableCloudflareBypass bool    `json:"disable_cloudflare_bypass"`
}

// WithDefaults fills every zero field with its default value.
func (c Config) WithDefaults() Config {
	if c.BaseUrl == "" {
		c.BaseUrl = DefaultBaseUrl
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 10
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = 1
	}
	if c.RetryCount == 0 {
		c.RetryCount = 3
	}
	if c.RetryWaitMillis == 0 {
		c.RetryWaitMillis = 500
	}
	return c
}

var errOffsiteRedirect = errors.New("redirected off the api host")

type Client struct {
	http *resty.Client
	tel  telemetry.API
}

// NewClient creates a client from `cfg`, zero fields take their defaults.
// `output` may be nil.
func NewClient(cfg Config, tel telemetry.API, output telemetry.MessageOutput) (*Client, error) {
	cfg = cfg.WithDefaults()
	tel = telemetry.NewScopedAPI("weibo_scraper", tel)

	if cfg.Cookie == "" {
		return nil, failure.Config("weibo client", fmt.Errorf("cookie is required"))
	}
	if cfg.RetryCount < 0 || cfg.TimeoutSeconds < 0 {
		return nil, failure.Config("weibo client", fmt.Errorf("negative timeout or retry count"))
	}
	if cfg.RequestsPerSecond < 0 && cfg.RequestsPerSecond != NoRateLimit {
		return nil, failure.Config("weibo client", fmt.Errorf("requests per second must be positive or %d, got %v", NoRateLimit, cfg.RequestsPerSecond))
	}
	parsedBaseUrl, err := url.Parse(cfg.BaseUrl)
	if err != nil {
		return nil, failure.Config("weibo client", fmt.Errorf("parse base url: %w", err))
	}
	host := parsedBaseUrl.Hostname()

	httpClient := resty.New()
	httpClient.SetBaseURL(cfg.BaseUrl)
	if !cfg.DisableCloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	httpClient.SetHeader("User-Agent", cfg.UserAgent)
	httpClient.SetHeader("Cookie", cfg.Cookie)
	httpClient.SetHeader("Accept", "application/json, text/plain, */*")
	httpClient.SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)

	// an expired session is bounced to the passport login page on another host,
	// this must surface as an error and not as a successfully parsed html page.
	httpClient.SetRedirectPolicy(resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		if req.URL.Hostname() != host {
			return errOffsiteRedirect
		}
		if len(via) >= 10 {
			return fmt.Errorf("stopped after 10 redirects")
		}
		return nil
	}))

	httpClient.SetRetryCount(cfg.RetryCount)
	wait := time.Duration(cfg.RetryWaitMillis) * time.Millisecond
	httpClient.SetRetryWaitTime(wait)
	httpClient.SetRetryMaxWaitTime(wait * 8)
	httpClient.AddRetryCondition(shouldRetry)

	telemetry.InstrumentResty(httpClient, "weibo-analysis/internal/scrapers/weibo", tel, output)

	limit := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond == NoRateLimit {
		limit = rate.Inf
	}
	rateLimiter := rate.NewLimiter(limit, 1)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	return &Client{
		http: httpClient,
		tel:  tel,
	}, nil
}

func shouldRetry(res *resty.Response, err error) bool {
	if err != nil {
		if errors.Is(err, errOffsiteRedirect) ||
			errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		return true
	}
	if res == nil {
		return false
	}
	status := res.StatusCode()
	return status == http.StatusTooManyRequests || status >= 500
}

// FetchPage fetches page `page` (1 indexed) of the hot comments of `postID`,
// `cursor` is the MaxID of the previous page.
//
// A page with no comments means there is nothing left to fetch.
func (c *Client) FetchPage(ctx context.Context, postID string, page int, cursor int64) (Page, error) {
	stage := fmt.Sprintf("collect page %d", page)

	params := map[string]string{
		"id":          postID,
		"mid":         postID,
		"max_id_type": "0",
		"page":        strconv.Itoa(page),
	}
	if cursor != 0 {
		params["max_id"] = strconv.FormatInt(cursor, 10)
	}

	c.tel.ReportDebug(report_client_fetch_page, postID, page)

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("/comments/hotflow")
	if err != nil {
		if errors.Is(err, errOffsiteRedirect) {
			return Page{}, failure.Auth(stage, fmt.Errorf("session cookie rejected: %w", err))
		}
		if ctx.Err() != nil {
			return Page{}, failure.Network(stage, ctx.Err())
		}
		c.tel.ReportBroken(report_client_fetch_page, fmt.Errorf("fetch: %w", err), page)
		return Page{}, failure.Network(stage, err)
	}

	switch status := res.StatusCode(); {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return Page{}, failure.Auth(stage, fmt.Errorf("session cookie rejected: %s", res.Status()))
	case status >= 400:
		c.tel.ReportBroken(report_client_fetch_page, fmt.Errorf("unexpected status %s", res.Status()), page)
		return Page{}, failure.Network(stage, fmt.Errorf("unexpected status %s", res.Status()))
	}

	body := bytes.TrimSpace(res.Body())
	if len(body) > 0 && body[0] == '<' {
		// login walls are served as html with a 200
		return Page{}, failure.Auth(stage, fmt.Errorf("got an html page instead of json, the session cookie is probably expired"))
	}

	var parsed apiResponse
	err = json.Unmarshal(body, &parsed)
	if err != nil {
		c.tel.ReportBroken(report_client_fetch_page, fmt.Errorf("parse: %w", err), page)
		return Page{}, failure.Data(stage, fmt.Errorf("parse response: %w", err))
	}

	if parsed.Ok == okLoginRequired {
		return Page{}, failure.Auth(stage, fmt.Errorf("login required: %s", parsed.Msg))
	}
	if parsed.Ok != 1 || parsed.Data == nil {
		c.tel.ReportDebug(report_client_fetch_page, "empty page", page, parsed.Ok, parsed.Msg)
		return Page{}, nil
	}

	return Page{
		Comments: commentsFromApi(parsed.Data.Data),
		MaxID:    parsed.Data.MaxID,
	}, nil
}
