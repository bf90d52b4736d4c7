// Package fetch retrieves per-firm fragments from the REGAFI website. The
// register only exposes a firm's authorizations through its internal page id,
// so every firm costs two requests: an advanced search by CIB to discover the
// page link, then the page itself.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/equinoxe-ovh/regafind/internal/regafi"
)

const (
	cibSearchPath = "/spip.php?page=results&type=advanced&id_secteur=&lang=fr&denomination=&siren=&cib=%s&bic=&nom=&siren_agent=&num=&cat=0&retrait=0"
	numSearchPath = "/spip.php?page=results&type=advanced&id_secteur=&lang=fr&denomination=&siren=&cib=&bic=&nom=&siren_agent=&num=%s&cat=0&retrait=0"

	resultsTableSummary = "Résultat de votre recherche"

	// Identifiers at or above this value are registration numbers (agents),
	// not CIBs.
	agentThreshold = 100000
)

var resultsDivClasses = []string{"main", "main_evol"}

// Options configures the registry client.
type Options struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	// RequestsPerSecond throttles all traffic to the registry. The register
	// is a small public site; stay polite.
	RequestsPerSecond float64
}

// Client fetches firm fragments from the registry.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	opts    Options
}

// New creates a registry client with rate limiting and retries.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://www.regafi.fr"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "regafind/1.0"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = 2
	}
	return &Client{
		http:    &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		opts:    opts,
	}
}

// FirmFragment downloads the search-results fragment for one identifier and
// returns it rendered as HTML, ready to be saved or extracted.
func (c *Client) FirmFragment(ctx context.Context, cib string) ([]byte, error) {
	pageURI, err := c.findPageURI(ctx, cib)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: locate page for cib %s", cib)
	}

	doc, err := c.get(ctx, c.opts.BaseURL+pageURI)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: firm page for cib %s", cib)
	}

	fragment := regafi.Find(doc, func(n *html.Node) bool {
		return regafi.IsElement(n, "div") && regafi.HasClass(n, resultsDivClasses...)
	})
	if fragment == nil {
		return nil, eris.Errorf("fetch: results fragment not found for cib %s", cib)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, fragment); err != nil {
		return nil, eris.Wrapf(err, "fetch: render fragment for cib %s", cib)
	}
	return buf.Bytes(), nil
}

// findPageURI runs the advanced search and pulls the firm-page link (the one
// carrying an internal id) out of the results table.
func (c *Client) findPageURI(ctx context.Context, cib string) (string, error) {
	searchPath := cibSearchPath
	if n, err := strconv.Atoi(cib); err == nil && n >= agentThreshold {
		searchPath = numSearchPath
	}

	doc, err := c.get(ctx, c.opts.BaseURL+fmt.Sprintf(searchPath, cib))
	if err != nil {
		return "", err
	}

	table := regafi.Find(doc, func(n *html.Node) bool {
		summary, ok := regafi.Attr(n, "summary")
		return ok && summary == resultsTableSummary
	})
	if table == nil {
		return "", eris.New("fetch: results table not found")
	}

	link := regafi.Find(table, func(n *html.Node) bool {
		if !regafi.IsElement(n, "a") {
			return false
		}
		href, ok := regafi.Attr(n, "href")
		return ok && strings.Contains(href, ";id=")
	})
	if link == nil {
		return "", eris.New("fetch: firm page link not found")
	}

	href, _ := regafi.Attr(link, "href")
	return href, nil
}

// get fetches and parses one URL, honoring the rate limit and retrying
// transient failures.
func (c *Client) get(ctx context.Context, url string) (*html.Node, error) {
	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "fetch: rate limit wait")
		}
		if attempt > 0 {
			delay := backoff(attempt)
			zap.L().Debug("fetch: retrying",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", delay),
			)
			select {
			case <-ctx.Done():
				return nil, eris.Wrap(ctx.Err(), "fetch: retry wait")
			case <-time.After(delay):
			}
		}

		doc, err := c.getOnce(ctx, url)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) getOnce(ctx context.Context, url string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: build request")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, eris.Errorf("fetch: unexpected status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: parse response")
	}
	return doc, nil
}

// IsAgent reports whether an identifier is a registration number rather than
// a CIB; agents carry no authorization data and are skipped.
func IsAgent(cib string) bool {
	n, err := strconv.Atoi(cib)
	return err == nil && n >= agentThreshold
}
