package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/moamoa/internal/apperr"
	"github.com/Kerhoff/moamoa/internal/caption"
	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/shopping"
	"github.com/Kerhoff/moamoa/internal/storage"
)

type stubCrawler struct {
	product shopping.Product
	err     error
}

func (s stubCrawler) Fetch(context.Context, string) (shopping.Product, error) {
	return s.product, s.err
}

type stubShopping struct {
	products []shopping.Product
	queries  []string
}

func (s *stubShopping) Search(_ context.Context, q string, _ int) ([]shopping.Product, error) {
	s.queries = append(s.queries, q)
	return s.products, nil
}

type stubCaptioner struct{ analysis *caption.Analysis }

func (s stubCaptioner) Analyze(context.Context, string) (*caption.Analysis, error) {
	cp := *s.analysis
	return &cp, nil
}

type stubUploader struct{}

func (stubUploader) PresignUpload(_ context.Context, folder, fileName string) (*storage.Upload, error) {
	return &storage.Upload{Key: folder + "/" + fileName, Method: "PUT"}, nil
}

func TestCreateWishlistManual(t *testing.T) {
	f := newFixture(t)

	w, err := f.svc.CreateWishlist(f.ctx, 1, WishlistInput{InsertType: models.InsertTypeManual, ProductName: " 머그컵 ", Price: 12000, IsPublic: true})
	require.NoError(t, err)
	assert.Equal(t, "머그컵", w.ProductName)
	assert.Equal(t, int64(1), w.UserID)

	_, err = f.svc.CreateWishlist(f.ctx, 1, WishlistInput{InsertType: models.InsertTypeImage, ProductName: ""})
	requireAppErr(t, err, apperr.KindValidation, "INVALID_PRODUCT_NAME")

	_, err = f.svc.CreateWishlist(f.ctx, 1, WishlistInput{InsertType: "FAX"})
	requireAppErr(t, err, apperr.KindValidation, "INVALID_INSERT_TYPE")
}

func TestCreateWishlistFromURL(t *testing.T) {
	f := newFixture(t)
	shop := &stubShopping{products: []shopping.Product{{ProductName: "hit", Price: 39000, ImageURL: "https://img/hit.jpg"}}}
	f.svc.ext.Crawler = stubCrawler{product: shopping.Product{ProductName: "무선 이어폰"}}
	f.svc.ext.Shopping = shop

	w, err := f.svc.CreateWishlist(f.ctx, 1, WishlistInput{InsertType: models.InsertTypeURL, URL: "https://shop.example/p/1"})
	require.NoError(t, err)
	assert.Equal(t, "무선 이어폰", w.ProductName)
	assert.Equal(t, int64(39000), w.Price)
	assert.Equal(t, "https://img/hit.jpg", w.ProductImageURL)
	assert.Equal(t, "https://shop.example/p/1", w.ProductURL)
	assert.Equal(t, []string{"무선 이어폰"}, shop.queries)

	_, err = f.svc.CreateWishlist(f.ctx, 1, WishlistInput{InsertType: models.InsertTypeURL, URL: "ftp://x"})
	requireAppErr(t, err, apperr.KindValidation, "INVALID_URL")

	f.svc.ext.Crawler = stubCrawler{err: errors.New("403")}
	_, err = f.svc.CreateWishlist(f.ctx, 1, WishlistInput{InsertType: models.InsertTypeURL, URL: "https://shop.example/p/2"})
	requireAppErr(t, err, apperr.KindValidation, "PRODUCT_FETCH_FAILED")
}

func TestCreateWishlistFromURLWithoutName(t *testing.T) {
	f := newFixture(t)
	f.svc.ext.Crawler = stubCrawler{product: shopping.Product{Price: 5000}}

	w, err := f.svc.CreateWishlist(f.ctx, 1, WishlistInput{InsertType: models.InsertTypeURL, URL: "https://shop.example/p/3"})
	require.NoError(t, err)
	assert.Equal(t, unknownProductName, w.ProductName)
	assert.Equal(t, int64(5000), w.Price)
}

func TestUpdateAndDeleteWishlistOwnership(t *testing.T) {
	f := newFixture(t)
	f.wish(100, 1, 1000)

	name := "new"
	_, err := f.svc.UpdateWishlist(f.ctx, 2, 100, WishlistUpdate{ProductName: &name})
	requireAppErr(t, err, apperr.KindForbidden, "NOT_WISHLIST_OWNER")

	_, err = f.svc.UpdateWishlist(f.ctx, 1, 999, WishlistUpdate{ProductName: &name})
	requireAppErr(t, err, apperr.KindNotFound, "WISHLIST_NOT_FOUND")

	negative := int64(-1)
	_, err = f.svc.UpdateWishlist(f.ctx, 1, 100, WishlistUpdate{Price: &negative})
	requireAppErr(t, err, apperr.KindValidation, "INVALID_PRICE")

	private := false
	w, err := f.svc.UpdateWishlist(f.ctx, 1, 100, WishlistUpdate{ProductName: &name, IsPublic: &private})
	require.NoError(t, err)
	assert.Equal(t, "new", w.ProductName)
	assert.False(t, w.IsPublic)
	assert.Equal(t, int64(1000), w.Price)

	requireAppErr(t, f.svc.DeleteWishlist(f.ctx, 2, 100), apperr.KindForbidden, "NOT_WISHLIST_OWNER")
	require.NoError(t, f.svc.DeleteWishlist(f.ctx, 1, 100))
	assert.Empty(t, f.db.wishlists)
}

func TestMyWishlistsPaging(t *testing.T) {
	f := newFixture(t)
	for id := int64(100); id < 105; id++ {
		f.wish(id, 1, 1000)
	}
	f.wish(200, 2, 1000)

	page, err := f.svc.MyWishlists(f.ctx, 1, PageRequest{Direction: "next", Limit: 3})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, int64(104), page.Items[0].ID)
	assert.True(t, page.Pagination.HasNext)

	rest, err := f.svc.MyWishlists(f.ctx, 1, PageRequest{Cursor: *page.Pagination.NextCursor, Direction: "next", Limit: 3})
	require.NoError(t, err)
	require.Len(t, rest.Items, 2)
	assert.Equal(t, int64(100), rest.Items[1].ID)
	assert.False(t, rest.Pagination.HasNext)
}

func TestAnalyzeImage(t *testing.T) {
	f := newFixture(t)
	analysis := &caption.Analysis{
		CaptionKO:         "귀여운 고양이 인형",
		ExtractedKeywords: []string{"고양이", "인형"},
		SearchKeyword:     "고양이 인형",
		AnalyzedAt:        time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC),
	}
	f.svc.ext.Captioner = stubCaptioner{analysis: analysis}

	shop := &stubShopping{}
	f.svc.ext.Shopping = shop
	res, err := f.svc.AnalyzeImage(f.ctx, 1, "https://img.example/cat.jpg", true)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Nil(t, res.Wishlist)
	assert.Equal(t, "고양이 인형", res.AnalysisData.SearchKeyword)
	assert.Empty(t, f.db.wishlists)

	shop.products = []shopping.Product{{ProductName: "고양이 인형 30cm", Price: 15900, ImageURL: "https://img/doll.jpg", URL: "https://shop/doll"}}
	res, err = f.svc.AnalyzeImage(f.ctx, 1, "https://img.example/cat.jpg", true)
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.NotNil(t, res.Wishlist)
	assert.Equal(t, models.InsertTypeImage, res.Wishlist.InsertType)
	assert.Equal(t, int64(15900), res.Wishlist.Price)
	assert.True(t, res.Wishlist.IsPublic)
	assert.Equal(t, []string{"고양이 인형", "고양이 인형"}, shop.queries)

	_, err = f.svc.AnalyzeImage(f.ctx, 1, "not a url", false)
	requireAppErr(t, err, apperr.KindValidation, "INVALID_IMAGE_URL")
}

func TestIntegrationsUnavailable(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ShoppingSearch(f.ctx, "cup", 10)
	requireAppErr(t, err, apperr.KindUnavailable, "FEATURE_UNAVAILABLE")
	_, err = f.svc.PresignUpload(f.ctx, "wishlists", "a.png")
	requireAppErr(t, err, apperr.KindUnavailable, "FEATURE_UNAVAILABLE")
	_, err = f.svc.AnalyzeImage(f.ctx, 1, "https://img.example/cat.jpg", false)
	requireAppErr(t, err, apperr.KindUnavailable, "FEATURE_UNAVAILABLE")

	f.svc.ext.Uploads = stubUploader{}
	up, err := f.svc.PresignUpload(f.ctx, "wishlists", "a.png")
	require.NoError(t, err)
	assert.Equal(t, "wishlists/a.png", up.Key)
}
