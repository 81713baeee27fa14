package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Armin-kho/fx-crossrates/internal/crossrate"
	"github.com/Armin-kho/fx-crossrates/internal/currency"
)

// ErrProvider marks failures reported by (or while talking to) the rate provider.
var ErrProvider = errors.New("rate provider error")

type apiError struct {
	Code int    `json:"code"`
	Type string `json:"type"`
	Info string `json:"info"`
}

type latestResponse struct {
	Success bool           `json:"success"`
	Base    string         `json:"base"`
	Date    string         `json:"date"`
	Rates   map[string]any `json:"rates"`
	Error   *apiError      `json:"error"`
}

// Client fetches the latest reference-relative rates from an
// exchangeratesapi-compatible endpoint.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	retries uint64
	debug   bool

	newBackOff func() backoff.BackOff
}

func NewClient(baseURL, apiKey string, timeout time.Duration, retries int, debug bool) *Client {
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	if retries < 0 {
		retries = 0
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		retries: uint64(retries),
		debug:   debug,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxElapsedTime = time.Minute
			return b
		},
	}
}

// Latest returns the provider's rates for the fixed currency set.
// Transport failures, 429 and 5xx are retried; everything else is final.
func (c *Client) Latest(ctx context.Context) (crossrate.RateMap, error) {
	q := url.Values{
		"access_key": {c.apiKey},
		"symbols":    {currency.Symbols()},
	}
	u := c.baseURL + "/latest?" + q.Encode()

	var body []byte
	attempt := 0
	op := func() error {
		attempt++
		b, err := httpGet(ctx, c.client, u)
		if err == nil {
			body = b
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		log.Printf("[sources] attempt %d failed: %v", attempt, err)
		return err
	}
	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.retries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, fmt.Errorf("%w: fetch latest: %w", ErrProvider, err)
	}
	if c.debug {
		log.Printf("[sources] latest fetched in %d attempt(s), %d bytes", attempt, len(body))
	}
	return decodeLatest(body)
}

func decodeLatest(body []byte) (crossrate.RateMap, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var resp latestResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: decode latest: %w (%s)", ErrProvider, err, snippet(body))
	}
	if !resp.Success {
		if resp.Error != nil {
			return nil, fmt.Errorf("%w: api returned error %d %s: %s", ErrProvider, resp.Error.Code, resp.Error.Type, resp.Error.Info)
		}
		return nil, fmt.Errorf("%w: api returned unsuccessful response: %s", ErrProvider, snippet(body))
	}
	if resp.Base != "" && !strings.EqualFold(resp.Base, currency.Reference.String()) {
		return nil, fmt.Errorf("%w: rates quoted against %s, want %s", ErrProvider, resp.Base, currency.Reference)
	}

	out := make(crossrate.RateMap, len(resp.Rates))
	for code, v := range resp.Rates {
		out[strings.ToUpper(code)] = rateText(v)
	}
	return out, nil
}

// rateText keeps numbers in the exact form the provider sent them.
func rateText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case json.Number:
		return t.String()
	case string:
		return strings.TrimSpace(t)
	default:
		return fmt.Sprint(t)
	}
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
