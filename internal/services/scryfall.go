package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/codyseavey/manabase-builder/backend/internal/metrics"
	"github.com/codyseavey/manabase-builder/backend/internal/models"
)

const (
	scryfallBaseURL    = "https://api.scryfall.com"
	requestTimeout     = 10 * time.Second
	downloadTimeout    = 5 * time.Minute
	minRequestInterval = 125 * time.Millisecond // ~8 req/s
	maxRetries         = 3
	defaultRetryAfter  = 2 * time.Second
)

// ScryfallClient performs all outbound Scryfall calls under a process-wide
// minimum-interval constraint. The rate limiter is shared by every caller;
// concurrent callers queue behind the same pacing gate.
type ScryfallClient struct {
	client         *http.Client
	downloadClient *http.Client
	limiter        *rate.Limiter
	baseURL        string
	userAgent      string
}

func NewScryfallClient() *ScryfallClient {
	return &ScryfallClient{
		client: &http.Client{
			Timeout: requestTimeout,
		},
		downloadClient: &http.Client{
			Timeout: downloadTimeout,
		},
		limiter:   rate.NewLimiter(rate.Every(minRequestInterval), 1),
		baseURL:   scryfallBaseURL,
		userAgent: "manabase-builder/1.0",
	}
}

// BulkManifest is the metadata pointer for a Scryfall bulk dataset.
type BulkManifest struct {
	DownloadURI string `json:"download_uri"`
	UpdatedAt   string `json:"updated_at"`
	Size        int64  `json:"size"`
}

type printsPage struct {
	Data    []models.Printing `json:"data"`
	HasMore bool              `json:"has_more"`
}

// NamedFuzzy resolves a free-text name to a single printing via Scryfall's
// fuzzy named lookup. Returns NotFoundError when nothing matches.
func (c *ScryfallClient) NamedFuzzy(ctx context.Context, name string) (*models.Printing, error) {
	reqURL := fmt.Sprintf("%s/cards/named?fuzzy=%s", c.baseURL, url.QueryEscape(name))

	var p models.Printing
	if err := c.FetchJSON(ctx, reqURL, &p); err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return nil, &NotFoundError{Name: name}
		}
		return nil, err
	}
	return &p, nil
}

// GetCard fetches a single printing by Scryfall ID.
func (c *ScryfallClient) GetCard(ctx context.Context, id string) (*models.Printing, error) {
	reqURL := fmt.Sprintf("%s/cards/%s", c.baseURL, url.PathEscape(id))

	var p models.Printing
	if err := c.FetchJSON(ctx, reqURL, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// FetchPrints follows a prints_search_uri and returns the printings on the
// first page. The builder only needs enough prints to find the cheapest
// one; pagination past page one is not worth the extra upstream calls.
func (c *ScryfallClient) FetchPrints(ctx context.Context, printsURI string) ([]models.Printing, error) {
	var page printsPage
	if err := c.FetchJSON(ctx, printsURI, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// DefaultCardsManifest fetches the bulk-data pointer for the full catalog.
func (c *ScryfallClient) DefaultCardsManifest(ctx context.Context) (*BulkManifest, error) {
	reqURL := fmt.Sprintf("%s/bulk-data/default-cards", c.baseURL)

	var m BulkManifest
	if err := c.FetchJSON(ctx, reqURL, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Download streams a bulk payload to w. The download shares the global
// pacing gate but uses a longer timeout than point lookups.
func (c *ScryfallClient) Download(ctx context.Context, uri string, w io.Writer) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.downloadClient.Do(req)
	if err != nil {
		return &UpstreamError{URL: uri, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &UpstreamError{URL: uri, StatusCode: resp.StatusCode}
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to write download: %w", err)
	}
	return nil
}

// FetchJSON performs a GET with rate limiting and bounded 429 retries,
// decoding the response into v. Every attempt waits on the shared limiter,
// so pacing holds across retries and across concurrent callers. Any
// non-success status other than 429 fails immediately; 404 is reported as
// a NotFoundError so callers can degrade to a stub.
func (c *ScryfallClient) FetchJSON(ctx context.Context, reqURL string, v interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			metrics.UpstreamRequestsTotal.WithLabelValues("error").Inc()
			return &UpstreamError{URL: reqURL, Err: err}
		}

		switch resp.StatusCode {
		case http.StatusOK:
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("failed to read response body: %w", err)
			}
			if err := json.Unmarshal(body, v); err != nil {
				return fmt.Errorf("failed to decode scryfall response: %w", err)
			}
			metrics.UpstreamRequestsTotal.WithLabelValues("success").Inc()
			return nil

		case http.StatusTooManyRequests:
			delay := retryAfterDelay(resp)
			resp.Body.Close()
			metrics.UpstreamRequestsTotal.WithLabelValues("rate_limited").Inc()
			lastErr = &UpstreamError{URL: reqURL, StatusCode: http.StatusTooManyRequests}

			if attempt < maxRetries {
				log.Printf("Scryfall: rate limited, retrying in %v (attempt %d/%d)", delay, attempt+1, maxRetries)
				if err := sleepCtx(ctx, delay); err != nil {
					return err
				}
				continue
			}
			return lastErr

		case http.StatusNotFound:
			resp.Body.Close()
			metrics.UpstreamRequestsTotal.WithLabelValues("not_found").Inc()
			return &NotFoundError{Name: reqURL}

		default:
			status := resp.StatusCode
			resp.Body.Close()
			metrics.UpstreamRequestsTotal.WithLabelValues("error").Inc()
			return &UpstreamError{URL: reqURL, StatusCode: status}
		}
	}

	return lastErr
}

// retryAfterDelay reads a server-provided Retry-After (seconds), falling
// back to 2s when absent or unparseable.
func retryAfterDelay(resp *http.Response) time.Duration {
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultRetryAfter
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
