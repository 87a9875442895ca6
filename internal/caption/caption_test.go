package caption

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/moamoa/internal/apperr"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name    string
		caption string
		want    []string
	}{
		{"brand and category", "흰 나이키 운동화", []string{"나이키 운동화"}},
		{"brand category color", "검정 나이키 운동화 한 켤레", []string{"나이키 운동화", "검정"}},
		{"category with modifier", "가죽 가방, 가죽 가방", []string{"가방", "가죽"}},
		{"longest words", "귀여운 고양이 인형", []string{"귀여운", "고양이", "인형"}},
		{"latin and digits dropped", "nike 2024", []string{}},
		{"empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractKeywords(tt.caption))
		})
	}
}

func TestSearchQuery(t *testing.T) {
	assert.Equal(t, "나이키 운동화 검정", SearchQuery([]string{"나이키 운동화", "검정"}))
	assert.Equal(t, "", SearchQuery(nil))
}

func TestAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/caption", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://img/shoe.jpg", body["image_url"])
		w.Write([]byte(`{"caption_en":"white nike running shoes","caption_ko":"흰 나이키 운동화"}`))
	}))
	defer srv.Close()

	a, err := NewClient(srv.URL).Analyze(context.Background(), "https://img/shoe.jpg")
	require.NoError(t, err)
	assert.Equal(t, "white nike running shoes", a.CaptionEN)
	assert.Equal(t, []string{"나이키 운동화"}, a.ExtractedKeywords)
	assert.Equal(t, "나이키 운동화", a.SearchKeyword)
	assert.False(t, a.AnalyzedAt.IsZero())
}

func TestAnalyzeFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"caption_en":"something"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Analyze(context.Background(), "https://img/a.jpg")
	assert.True(t, apperr.IsKind(err, apperr.KindUnavailable))

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	_, err = NewClient(down.URL).Analyze(context.Background(), "https://img/a.jpg")
	assert.True(t, apperr.IsKind(err, apperr.KindUnavailable))
}
