// Package fetch performs the single synchronous "GET url, return body" step
// of a crawl cycle.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly"

	"jobcrawler/internal/logger"
	"jobcrawler/internal/telemetry"
)

// TransportError covers non-2xx responses, timeouts and connection failures.
type TransportError struct {
	URL        string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("fetch %s: timeout: %v", e.URL, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// Response is a successfully fetched page.
type Response struct {
	URL        string
	StatusCode int
	Body       string
}

// Getter is the capability the rest of the pipeline depends on.
type Getter interface {
	Get(ctx context.Context, kind, url string) (*Response, error)
}

type Options struct {
	Timeout  time.Duration
	Strategy HeaderStrategy
}

type Fetcher struct {
	opts Options
	log  *logger.Logger
}

func New(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Strategy == "" {
		opts.Strategy = StrategyModernBrowser
	}
	return &Fetcher{opts: opts, log: logger.New("Fetcher")}
}

// Get fetches url. kind labels the request in metrics ("listing" or "detail").
// Redirects are followed; any failure is returned as *TransportError.
func (f *Fetcher) Get(ctx context.Context, kind, url string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}

	// A fresh collector per call keeps callbacks bound to this request only.
	c := colly.NewCollector(colly.AllowURLRevisit())
	c.SetRequestTimeout(f.opts.Timeout)

	var (
		resp      *Response
		status    int
		abortedBy error
	)
	c.OnRequest(func(r *colly.Request) {
		if err := ctx.Err(); err != nil {
			abortedBy = err
			r.Abort()
			return
		}
		GetHeaderProfile(f.opts.Strategy).Apply(r.Headers)
	})
	c.OnResponse(func(r *colly.Response) {
		resp = &Response{URL: r.Request.URL.String(), StatusCode: r.StatusCode, Body: string(r.Body)}
	})
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	start := time.Now()
	err := c.Visit(url)
	result := "ok"
	defer func() {
		telemetry.FetchDuration.WithLabelValues(kind, result).Observe(time.Since(start).Seconds())
	}()

	if abortedBy != nil {
		result = "error"
		return nil, &TransportError{URL: url, Err: abortedBy}
	}
	if err != nil {
		result = "error"
		terr := &TransportError{URL: url, StatusCode: status, Err: err, Timeout: isTimeout(err)}
		if terr.Timeout {
			result = "timeout"
		}
		f.log.LogWarnf("fetch %s failed: %v", url, terr)
		return nil, terr
	}
	if resp == nil {
		result = "error"
		return nil, &TransportError{URL: url, Err: errors.New("no response")}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result = "error"
		return nil, &TransportError{URL: url, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}
	f.log.LogDebugf("fetch %s ok status=%d bytes=%d", url, resp.StatusCode, len(resp.Body))
	return resp, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
