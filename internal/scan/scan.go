// Package scan submits files to the VirusTotal v3 API and reports a verdict.
package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/keshon/termcord/pkg/retrylimit"
)

const DefaultBaseURL = "https://www.virustotal.com/api/v3"

// MaxUploadSize is the largest file the plain upload endpoint accepts.
const MaxUploadSize = 32 << 20

type Status string

const (
	StatusSkipped    Status = "skipped"
	StatusClean      Status = "clean"
	StatusSuspicious Status = "suspicious"
	StatusMalicious  Status = "malicious"
	StatusPending    Status = "pending"
)

// Report is the outcome of one scan.
type Report struct {
	Status     Status
	AnalysisID string
	Reason     string
	Malicious  int
	Suspicious int
	Harmless   int
	Undetected int
}

// StatusError is a non-2xx API response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("virustotal: status %d: %s", e.Code, e.Body)
}

// StatusCode implements retrylimit.StatusCoder.
func (e *StatusError) StatusCode() int { return e.Code }

// Client talks to the VirusTotal API. A Client without an API key skips every
// scan.
type Client struct {
	apiKey   string
	baseURL  string
	http     *http.Client
	limiter  *retrylimit.AdaptiveLimiter
	retry    retrylimit.Policy
	interval time.Duration
	maxPolls int
	log      *zap.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithLimiter(l *retrylimit.AdaptiveLimiter) Option { return func(c *Client) { c.limiter = l } }

func WithRetry(p retrylimit.Policy) Option { return func(c *Client) { c.retry = p } }

// WithPolling sets how often and how many times an analysis is polled before
// the scan is reported as pending.
func WithPolling(interval time.Duration, maxPolls int) Option {
	return func(c *Client) {
		c.interval = interval
		c.maxPolls = maxPolls
	}
}

func WithLogger(log *zap.Logger) Option { return func(c *Client) { c.log = log } }

func New(apiKey string, opts ...Option) *Client {
	retry := retrylimit.DefaultPolicy()
	retry.Attempts = 4

	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
		// public API keys allow four requests a minute
		limiter:  retrylimit.NewAdaptiveLimiter(rate.Every(15*time.Second), rate.Every(time.Minute), rate.Every(15*time.Second), 0, 0.5),
		retry:    retry,
		interval: 15 * time.Second,
		maxPolls: 8,
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	c.retry.OnRetry = func(attempt int, err error) {
		c.log.Warn("virustotal request retry", zap.Int("attempt", attempt), zap.Error(err))
	}
	return c
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c.apiKey != "" }

// ScanFile uploads path and waits for the analysis verdict.
func (c *Client) ScanFile(ctx context.Context, path string) (Report, error) {
	if !c.Enabled() {
		return Report{Status: StatusSkipped, Reason: "no scanning credential configured"}, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return Report{}, fmt.Errorf("stat %s: %w", filepath.Base(path), err)
	}
	if info.Size() > MaxUploadSize {
		return Report{Status: StatusSkipped, Reason: "file too large to scan"}, nil
	}

	id, err := c.upload(ctx, path)
	if err != nil {
		return Report{}, err
	}

	for poll := 0; poll < c.maxPolls; poll++ {
		if poll > 0 {
			if err := retrylimit.Sleep(ctx, c.interval); err != nil {
				return Report{Status: StatusPending, AnalysisID: id}, err
			}
		}
		rep, done, err := c.analysis(ctx, id)
		if err != nil {
			return Report{}, err
		}
		if done {
			return rep, nil
		}
	}
	return Report{Status: StatusPending, AnalysisID: id}, nil
}

func (c *Client) upload(ctx context.Context, path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(raw); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var out struct {
		Data struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"data"`
	}
	err = c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", bytes.NewReader(body.Bytes()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req, nil
	}, &out)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	if out.Data.ID == "" {
		return "", fmt.Errorf("upload: empty analysis id")
	}
	return out.Data.ID, nil
}

func (c *Client) analysis(ctx context.Context, id string) (Report, bool, error) {
	var out struct {
		Data struct {
			Attributes struct {
				Status string `json:"status"`
				Stats  struct {
					Malicious  int `json:"malicious"`
					Suspicious int `json:"suspicious"`
					Harmless   int `json:"harmless"`
					Undetected int `json:"undetected"`
				} `json:"stats"`
			} `json:"attributes"`
		} `json:"data"`
	}
	err := c.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/analyses/"+id, nil)
	}, &out)
	if err != nil {
		return Report{}, false, fmt.Errorf("analysis %s: %w", id, err)
	}

	attr := out.Data.Attributes
	if attr.Status != "completed" {
		return Report{}, false, nil
	}
	rep := Report{
		AnalysisID: id,
		Malicious:  attr.Stats.Malicious,
		Suspicious: attr.Stats.Suspicious,
		Harmless:   attr.Stats.Harmless,
		Undetected: attr.Stats.Undetected,
	}
	switch {
	case rep.Malicious > 0:
		rep.Status = StatusMalicious
	case rep.Suspicious > 0:
		rep.Status = StatusSuspicious
	default:
		rep.Status = StatusClean
	}
	return rep, true, nil
}

// do sends the request built by build with retries and decodes a JSON
// response into out. Client errors other than 429 are not retried.
func (c *Client) do(ctx context.Context, build func() (*http.Request, error), out any) error {
	return c.retry.Do(ctx, c.limiter, func() error {
		req, err := build()
		if err != nil {
			return retrylimit.Fatal(err)
		}
		req.Header.Set("x-apikey", c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			serr := &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
			if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
				return retrylimit.Fatal(serr)
			}
			return serr
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return retrylimit.Fatal(fmt.Errorf("decode response: %w", err))
		}
		return nil
	})
}
