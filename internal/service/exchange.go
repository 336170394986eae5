package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"camera_market/internal/apperror"
	"camera_market/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	exchangeCacheTTL     = 30 * time.Minute
	exchangeFetchTimeout = 10 * time.Second
)

// Quote is one exchange rate from BaseCurrency to QuoteCurrency.
type Quote struct {
	BaseCurrency  string    `json:"base_currency"`
	QuoteCurrency string    `json:"quote_currency"`
	Rate          float64   `json:"rate"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type latestRatesResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// ExchangeService fetches currency rates from an upstream API, cached in Redis.
type ExchangeService struct {
	baseURL string
	client  *http.Client
	cache   redis.Cmdable
	group   singleflight.Group
	now     func() time.Time
}

// NewExchangeService points the service at an exchangerate.host compatible API.
func NewExchangeService(baseURL string, cache redis.Cmdable) *ExchangeService {
	return &ExchangeService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: exchangeFetchTimeout},
		cache:   cache,
		now:     time.Now,
	}
}

func exchangeCacheKey(base string, symbols []string) string {
	joined := strings.Join(symbols, ",")
	if joined == "" {
		joined = "ALL"
	}
	return "exchange:" + base + ":" + joined
}

func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// FetchRates returns rates from base to each symbol; no symbols means every rate the API knows.
func (s *ExchangeService) FetchRates(ctx context.Context, base string, symbols []string) (map[string]float64, error) {
	base, err := currencyCode("base", base, "")
	if err != nil {
		return nil, err
	}
	symbols = normalizeSymbols(symbols)
	key := exchangeCacheKey(base, symbols)

	var rates map[string]float64
	found, err := utils.GetCacheOrEvict(ctx, s.cache, key, &rates)
	if err == nil && found {
		return rates, nil
	}
	if err != nil && !errors.Is(err, utils.ErrCorruptEntry) {
		logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Exchange cache read failed")
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		rates, err := s.fetch(ctx, base, symbols)
		if err != nil {
			return nil, err
		}
		if err := utils.SetCache(ctx, s.cache, key, rates, exchangeCacheTTL); err != nil {
			logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Exchange cache write failed")
		}
		return rates, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]float64), nil
}

func (s *ExchangeService) fetch(ctx context.Context, base string, symbols []string) (map[string]float64, error) {
	params := url.Values{"base": {base}}
	if len(symbols) > 0 {
		params.Set("symbols", strings.Join(symbols, ","))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/latest?"+params.Encode(), nil)
	if err != nil {
		return nil, apperror.Unavailable("exchange rate service", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperror.Unavailable("exchange rate service", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperror.Unavailable("exchange rate service", fmt.Errorf("upstream status %d", resp.StatusCode))
	}

	var payload latestRatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperror.Unavailable("exchange rate service", fmt.Errorf("decode rates: %w", err))
	}
	if payload.Rates == nil {
		payload.Rates = map[string]float64{}
	}
	return payload.Rates, nil
}

// Quote returns one quote per rate, ordered by quote currency.
func (s *ExchangeService) Quote(ctx context.Context, base string, symbols []string) ([]Quote, error) {
	rates, err := s.FetchRates(ctx, base, symbols)
	if err != nil {
		return nil, err
	}
	base = strings.ToUpper(strings.TrimSpace(base))
	now := s.now().UTC()

	quotes := make([]Quote, 0, len(rates))
	for currency, rate := range rates {
		quotes = append(quotes, Quote{
			BaseCurrency:  base,
			QuoteCurrency: currency,
			Rate:          rate,
			UpdatedAt:     now,
		})
	}
	sort.Slice(quotes, func(i, j int) bool {
		return quotes[i].QuoteCurrency < quotes[j].QuoteCurrency
	})
	return quotes, nil
}
