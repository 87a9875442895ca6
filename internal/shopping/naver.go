// Package shopping finds products: by keyword through the Naver shopping
// search API and by URL through the product page's meta tags.
package shopping

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/Kerhoff/moamoa/internal/apperr"
)

const (
	searchTimeout = 10 * time.Second
	cacheTTL      = 10 * time.Minute
)

// Product is a normalised search or crawl result.
type Product struct {
	ProductName string `json:"productName"`
	Price       int64  `json:"price"`
	ImageURL    string `json:"productImageUrl"`
	URL         string `json:"url"`
	MallName    string `json:"mallName,omitempty"`
	Brand       string `json:"brand,omitempty"`
	Category    string `json:"category,omitempty"`
}

// Store caches search results. *cache.Cache satisfies it.
type Store interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
}

// Config holds the Naver API credentials.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
}

// Client calls the Naver shopping search API.
type Client struct {
	cfg    Config
	http   *http.Client
	store  Store
	logger *logrus.Logger
}

// NewClient creates a search client. store may be nil.
func NewClient(cfg Config, store Store, logger *logrus.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: searchTimeout},
		store:  store,
		logger: logger,
	}
}

// Search returns up to display products for query ordered by relevance.
func (c *Client) Search(ctx context.Context, query string, display int) ([]Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("INVALID_QUERY", "검색어를 입력해주세요")
	}
	if c.cfg.ClientID == "" || c.cfg.ClientSecret == "" {
		return nil, apperr.Unavailable("SHOPPING_NOT_CONFIGURED", "상품 검색 서비스가 설정되지 않았습니다")
	}

	key := fmt.Sprintf("shop:%d:%s", display, query)
	if c.store != nil {
		var cached []Product
		ok, err := c.store.Get(ctx, key, &cached)
		if err != nil {
			c.logger.WithError(err).Warn("Shopping cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("display", strconv.Itoa(display))
	q.Set("start", "1")
	q.Set("sort", "sim")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build shopping request: %w", err)
	}
	req.Header.Set("X-Naver-Client-Id", c.cfg.ClientID)
	req.Header.Set("X-Naver-Client-Secret", c.cfg.ClientSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Unavailable("SHOPPING_UNAVAILABLE", "상품 검색 중 오류가 발생했습니다").WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read shopping response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, body)
	}

	products := parseItems(body)
	if c.store != nil {
		if err := c.store.Set(ctx, key, products, cacheTTL); err != nil {
			c.logger.WithError(err).Warn("Shopping cache write failed")
		}
	}
	return products, nil
}

func statusError(status int, body []byte) error {
	msg := gjson.GetBytes(body, "errorMessage").String()
	cause := fmt.Errorf("naver shopping returned %d: %s", status, msg)
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperr.Unavailable("SHOPPING_AUTH_FAILED", "네이버 API 인증에 실패했습니다").WithCause(cause)
	case http.StatusTooManyRequests:
		return apperr.RateLimited("SHOPPING_RATE_LIMITED", "네이버 API 요청 한도를 초과했습니다").WithCause(cause)
	case http.StatusBadRequest:
		return apperr.Validation("SHOPPING_BAD_REQUEST", "잘못된 검색 요청입니다").WithCause(cause)
	default:
		return apperr.Unavailable("SHOPPING_UNAVAILABLE", "상품 검색 중 오류가 발생했습니다").WithCause(cause)
	}
}

func parseItems(body []byte) []Product {
	items := gjson.GetBytes(body, "items").Array()
	products := make([]Product, 0, len(items))
	for _, item := range items {
		price := parsePrice(item.Get("lprice").String())
		if price == 0 {
			price = parsePrice(item.Get("hprice").String())
		}
		products = append(products, Product{
			ProductName: CleanText(item.Get("title").String()),
			Price:       price,
			ImageURL:    item.Get("image").String(),
			URL:         item.Get("link").String(),
			MallName:    item.Get("mallName").String(),
			Brand:       item.Get("brand").String(),
			Category:    joinNonEmpty(" > ", item.Get("category1").String(), item.Get("category2").String(), item.Get("category3").String()),
		})
	}
	return products
}

func parsePrice(s string) int64 {
	v, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
