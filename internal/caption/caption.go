// Package caption turns a product photo into a shopping search query using
// the image captioning server.
package caption

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/Kerhoff/moamoa/internal/apperr"
)

const captionTimeout = 30 * time.Second

// Analysis is what the captioning step learned about an image.
type Analysis struct {
	CaptionEN         string    `json:"caption_en"`
	CaptionKO         string    `json:"caption_ko"`
	ExtractedKeywords []string  `json:"extractedKeywords"`
	SearchKeyword     string    `json:"searchKeyword"`
	AnalyzedAt        time.Time `json:"analyzedAt"`
}

// Client calls POST {baseURL}/caption.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: captionTimeout}}
}

// Analyze captions imageURL and derives the search keywords from the Korean
// caption.
func (c *Client) Analyze(ctx context.Context, imageURL string) (*Analysis, error) {
	payload, err := json.Marshal(map[string]string{"image_url": imageURL})
	if err != nil {
		return nil, fmt.Errorf("failed to encode caption request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/caption", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build caption request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Unavailable("CAPTION_UNAVAILABLE", "이미지 분석 서버에 연결할 수 없습니다").WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read caption response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Unavailable("CAPTION_UNAVAILABLE", "이미지 분석에 실패했습니다").
			WithCause(fmt.Errorf("caption server returned %d", resp.StatusCode))
	}

	res := gjson.ParseBytes(body)
	a := &Analysis{
		CaptionEN:  res.Get("caption_en").String(),
		CaptionKO:  res.Get("caption_ko").String(),
		AnalyzedAt: time.Now(),
	}
	if a.CaptionKO == "" {
		return nil, apperr.Unavailable("CAPTION_EMPTY", "이미지에서 상품을 인식하지 못했습니다")
	}

	a.ExtractedKeywords = ExtractKeywords(a.CaptionKO)
	a.SearchKeyword = SearchQuery(a.ExtractedKeywords)
	return a, nil
}
