package fetcher

import (
	"context"
	"time"

	"github.com/gocolly/colly/v2"

	appErrors "telegram-schedule-bot/internal/errors"
	"telegram-schedule-bot/internal/metrics"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Options struct {
	Timeout   time.Duration
	UserAgent string
	Metrics   *metrics.Metrics
}

// Fetcher performs single-attempt requests against the schedule site.
// Any transport failure or non-2xx answer is reported as ErrSourceUnavailable.
type Fetcher struct {
	base    *colly.Collector
	metrics *metrics.Metrics
}

func New(opts Options) *Fetcher {
	c := colly.NewCollector(colly.AllowURLRevisit())
	c.UserAgent = defaultUserAgent
	if opts.UserAgent != "" {
		c.UserAgent = opts.UserAgent
	}
	if opts.Timeout > 0 {
		c.SetRequestTimeout(opts.Timeout)
	}
	return &Fetcher{base: c, metrics: opts.Metrics}
}

// Get returns the body of url.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	return f.do(ctx, "get", url, func(c *colly.Collector) error {
		return c.Visit(url)
	})
}

// PostForm sends form url-encoded and returns the response body.
func (f *Fetcher) PostForm(ctx context.Context, url string, form map[string]string) ([]byte, error) {
	return f.do(ctx, "post", url, func(c *colly.Collector) error {
		return c.Post(url, form)
	})
}

func (f *Fetcher) do(ctx context.Context, kind, url string, visit func(*colly.Collector) error) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrSourceUnavailable, err, url)
	}

	// a clone per request keeps callbacks of concurrent chats apart
	c := f.base.Clone()
	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	start := time.Now()
	err := visit(c)
	f.metrics.ObserveFetch(kind, time.Since(start), err)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrSourceUnavailable, err, url)
	}
	return body, nil
}
