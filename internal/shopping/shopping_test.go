package shopping

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/moamoa/internal/apperr"
)

const searchBody = `{
  "total": 2,
  "items": [
    {"title": "<b>나이키</b> 에어포스 &amp; 운동화", "link": "https://shop/1", "image": "https://img/1.jpg",
     "lprice": "119000", "hprice": "", "mallName": "네이버", "brand": "나이키",
     "category1": "패션잡화", "category2": "남성신발", "category3": ""},
    {"title": "운동화 끈", "link": "https://shop/2", "image": "", "lprice": "", "hprice": "3,000"}
  ]
}`

type memStore struct {
	data map[string]any
}

func (m *memStore) Get(_ context.Context, key string, dst any) (bool, error) {
	v, ok := m.data[key]
	if !ok {
		return false, nil
	}
	*(dst.(*[]Product)) = v.([]Product)
	return true, nil
}

func (m *memStore) Set(_ context.Context, key string, v any, _ time.Duration) error {
	m.data[key] = v
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestSearchParsesItems(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "id", r.Header.Get("X-Naver-Client-Id"))
		assert.Equal(t, "secret", r.Header.Get("X-Naver-Client-Secret"))
		assert.Equal(t, "나이키 운동화", r.URL.Query().Get("query"))
		assert.Equal(t, "sim", r.URL.Query().Get("sort"))
		assert.Equal(t, "10", r.URL.Query().Get("display"))
		w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	store := &memStore{data: map[string]any{}}
	c := NewClient(Config{BaseURL: srv.URL, ClientID: "id", ClientSecret: "secret"}, store, quietLogger())

	products, err := c.Search(context.Background(), "  나이키 운동화 ", 10)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "나이키 에어포스 & 운동화", products[0].ProductName)
	assert.Equal(t, int64(119000), products[0].Price)
	assert.Equal(t, "패션잡화 > 남성신발", products[0].Category)
	assert.Equal(t, int64(3000), products[1].Price)

	_, err = c.Search(context.Background(), "나이키 운동화", 10)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestSearchMapsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"errorMessage":"limit"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, ClientID: "id", ClientSecret: "secret"}, nil, quietLogger())
	_, err := c.Search(context.Background(), "키보드", 5)
	assert.True(t, apperr.IsKind(err, apperr.KindRateLimited))
}

func TestSearchRequiresCredentials(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://unused"}, nil, quietLogger())
	_, err := c.Search(context.Background(), "키보드", 5)
	assert.True(t, apperr.IsKind(err, apperr.KindUnavailable))

	_, err = c.Search(context.Background(), "   ", 5)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestParsePage(t *testing.T) {
	page := `<html><head>
<title>fallback</title>
<meta property="og:title" content=" 무선 키보드 K380 ">
<meta property="og:image" content="https://img/k380.png">
<meta property="product:price:amount" content="45900.00">
</head><body></body></html>`

	p, err := ParsePage(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "무선 키보드 K380", p.ProductName)
	assert.Equal(t, "https://img/k380.png", p.ImageURL)
	assert.Equal(t, int64(45900), p.Price)
}

func TestParsePageFallsBackToTitle(t *testing.T) {
	p, err := ParsePage(strings.NewReader(`<html><head><title>머그컵</title></head></html>`))
	require.NoError(t, err)
	assert.Equal(t, "머그컵", p.ProductName)
	assert.Zero(t, p.Price)
}

func TestCrawlerFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "MoamoaBot")
		w.Write([]byte(`<meta name="og:title" content="텀블러"><meta property="og:price:amount" content="12,000">`))
	}))
	defer srv.Close()

	p, err := newCrawler(allowAll).Fetch(context.Background(), srv.URL+"/p/1")
	require.NoError(t, err)
	assert.Equal(t, "텀블러", p.ProductName)
	assert.Equal(t, int64(12000), p.Price)
	assert.Equal(t, srv.URL+"/p/1", p.URL)
}

func TestCrawlerFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newCrawler(allowAll).Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}

func allowAll(string) error { return nil }

func TestCrawlerRefusesInternalAddresses(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`<meta property="og:title" content="SECRET-ADMIN-PAGE">`))
	}))
	defer srv.Close()

	p, err := NewCrawler().Fetch(context.Background(), srv.URL+"/admin")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBlockedAddress)
	assert.Empty(t, p.ProductName)
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestCrawlerChecksRedirectTargets(t *testing.T) {
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<meta property="og:title" content="SECRET">`))
	}))
	defer internal.Close()
	public := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, internal.URL+"/latest/meta-data", http.StatusFound)
	}))
	defer public.Close()

	blocked := strings.TrimPrefix(internal.URL, "http://")
	c := newCrawler(func(address string) error {
		if address == blocked {
			return ErrBlockedAddress
		}
		return nil
	})

	_, err := c.Fetch(context.Background(), public.URL)
	assert.ErrorIs(t, err, ErrBlockedAddress)
}

func TestCrawlerRejectsOtherSchemes(t *testing.T) {
	_, err := NewCrawler().Fetch(context.Background(), "file:///etc/passwd")
	assert.Error(t, err)
}

func TestPublicAddress(t *testing.T) {
	blocked := []string{
		"127.0.0.1:80", "10.1.2.3:80", "172.16.0.1:443", "192.168.0.10:8080",
		"169.254.169.254:80", "0.0.0.0:80", "100.64.0.1:80", "224.0.0.1:80",
		"[::1]:80", "[fe80::1]:80", "[fc00::1]:80", "[::ffff:127.0.0.1]:80",
		"localhost:80", "garbage",
	}
	for _, addr := range blocked {
		assert.ErrorIs(t, PublicAddress(addr), ErrBlockedAddress, addr)
	}
	for _, addr := range []string{"8.8.8.8:443", "[2001:4860:4860::8888]:443", "223.130.195.200:80"} {
		assert.NoError(t, PublicAddress(addr), addr)
	}
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a <b> & c", CleanText("a &lt;b&gt; &amp;  <b>c</b>"))
	assert.Equal(t, "", CleanText(""))
}
