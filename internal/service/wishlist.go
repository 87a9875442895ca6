package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Kerhoff/moamoa/internal/apperr"
	"github.com/Kerhoff/moamoa/internal/caption"
	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/pagination"
	"github.com/Kerhoff/moamoa/internal/repository"
	"github.com/Kerhoff/moamoa/internal/shopping"
	"github.com/Kerhoff/moamoa/internal/storage"
)

const unknownProductName = "상품명 미확인"

// WishlistPage is one page of the viewer's own wishlist.
type WishlistPage struct {
	Items      []*models.Wishlist `json:"items"`
	Pagination pagination.Info    `json:"pagination"`
}

// MyWishlists pages through the viewer's wishlist newest first.
func (s *Service) MyWishlists(ctx context.Context, userID int64, req PageRequest) (*WishlistPage, error) {
	cursor, err := decodeTimeCursor(req.Cursor)
	if err != nil {
		return nil, err
	}
	rows, err := s.Wishlists.ListByUser(ctx, userID, repository.CursorFilters{
		Cursor: cursor, Direction: req.Direction, Limit: req.Limit + 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlists: %w", err)
	}
	page, hasMore := pagination.Window(rows, req.Limit, req.Direction)
	return &WishlistPage{
		Items: page,
		Pagination: pagination.NewInfo(page, req.Direction, hasMore, cursor != nil, func(w *models.Wishlist) string {
			return pagination.EncodeTimeCursor(pagination.TimeCursor{ID: w.ID, CreatedAt: w.CreatedAt})
		}),
	}, nil
}

// WishlistInput creates a wishlist item. URL items only use URL and
// IsPublic; the other kinds take the product fields as given.
type WishlistInput struct {
	InsertType  models.InsertType
	URL         string
	ProductName string
	Price       int64
	ImageURL    string
	IsPublic    bool
}

// CreateWishlist adds an item to the viewer's wishlist.
func (s *Service) CreateWishlist(ctx context.Context, userID int64, in WishlistInput) (*models.Wishlist, error) {
	w := &models.Wishlist{UserID: userID, InsertType: in.InsertType, IsPublic: in.IsPublic}

	switch in.InsertType {
	case models.InsertTypeURL:
		p, err := s.productFromURL(ctx, in.URL)
		if err != nil {
			return nil, err
		}
		w.ProductName = p.ProductName
		w.Price = p.Price
		w.ProductImageURL = p.ImageURL
		w.ProductURL = in.URL
	case models.InsertTypeImage, models.InsertTypeManual:
		name := strings.TrimSpace(in.ProductName)
		if name == "" {
			return nil, apperr.Validation("INVALID_PRODUCT_NAME", "상품명을 입력해주세요")
		}
		if in.Price < 0 {
			return nil, apperr.Validation("INVALID_PRICE", "가격은 0원 이상이어야 합니다")
		}
		w.ProductName = name
		w.Price = in.Price
		w.ProductImageURL = in.ImageURL
		w.ProductURL = in.URL
	default:
		return nil, apperr.Validation("INVALID_INSERT_TYPE", "유효하지 않은 등록 방식입니다")
	}

	created, err := s.Wishlists.Create(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("failed to create wishlist: %w", err)
	}
	s.logger.WithField("user_id", userID).Infof("Wishlist item %d created via %s", created.ID, in.InsertType)
	return created, nil
}

// productFromURL crawls the shop page. When the page has no price the
// shopping API is asked for the crawled title.
func (s *Service) productFromURL(ctx context.Context, rawURL string) (shopping.Product, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return shopping.Product{}, apperr.Validation("INVALID_URL", "올바른 상품 URL을 입력해주세요")
	}
	if s.ext.Crawler == nil {
		return shopping.Product{}, unavailable("URL 등록")
	}

	p, err := s.ext.Crawler.Fetch(ctx, u.String())
	if err != nil {
		s.logger.WithError(err).WithField("url", u.String()).Warn("Failed to crawl product page")
		return shopping.Product{}, apperr.Validation("PRODUCT_FETCH_FAILED", "상품 정보를 가져올 수 없습니다").WithCause(err)
	}

	if p.Price == 0 && p.ProductName != "" && s.ext.Shopping != nil {
		found, err := s.ext.Shopping.Search(ctx, p.ProductName, 1)
		if err != nil {
			s.logger.WithError(err).Debug("Shopping fallback failed")
		} else if len(found) > 0 {
			p.Price = found[0].Price
			if p.ImageURL == "" {
				p.ImageURL = found[0].ImageURL
			}
		}
	}
	if strings.TrimSpace(p.ProductName) == "" {
		p.ProductName = unknownProductName
	}
	return p, nil
}

func (s *Service) ownWishlist(ctx context.Context, userID, wishlistID int64) (*models.Wishlist, error) {
	w, err := s.Wishlists.GetByID(ctx, wishlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}
	if w == nil {
		return nil, apperr.NotFound("WISHLIST_NOT_FOUND", "위시리스트를 찾을 수 없습니다")
	}
	if w.UserID != userID {
		return nil, apperr.Forbidden("NOT_WISHLIST_OWNER", "본인의 위시리스트만 수정할 수 있습니다")
	}
	return w, nil
}

// WishlistUpdate patches a wishlist item; nil fields stay unchanged.
type WishlistUpdate struct {
	ProductName *string
	Price       *int64
	ImageURL    *string
	IsPublic    *bool
}

// UpdateWishlist edits the owner's item.
func (s *Service) UpdateWishlist(ctx context.Context, userID, wishlistID int64, in WishlistUpdate) (*models.Wishlist, error) {
	w, err := s.ownWishlist(ctx, userID, wishlistID)
	if err != nil {
		return nil, err
	}
	if in.ProductName != nil {
		name := strings.TrimSpace(*in.ProductName)
		if name == "" {
			return nil, apperr.Validation("INVALID_PRODUCT_NAME", "상품명을 입력해주세요")
		}
		w.ProductName = name
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, apperr.Validation("INVALID_PRICE", "가격은 0원 이상이어야 합니다")
		}
		w.Price = *in.Price
	}
	if in.ImageURL != nil {
		w.ProductImageURL = *in.ImageURL
	}
	if in.IsPublic != nil {
		w.IsPublic = *in.IsPublic
	}

	updated, err := s.Wishlists.Update(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("failed to update wishlist: %w", err)
	}
	return updated, nil
}

// DeleteWishlist removes the owner's item.
func (s *Service) DeleteWishlist(ctx context.Context, userID, wishlistID int64) error {
	if _, err := s.ownWishlist(ctx, userID, wishlistID); err != nil {
		return err
	}
	if err := s.Wishlists.Delete(ctx, wishlistID); err != nil {
		return fmt.Errorf("failed to delete wishlist: %w", err)
	}
	return nil
}

// ImageAnalysisResult is the outcome of registering a product from a photo.
// Success is false when the search found nothing; Wishlist is then nil.
type ImageAnalysisResult struct {
	Success      bool              `json:"success"`
	Message      string            `json:"message"`
	Wishlist     *models.Wishlist  `json:"wishlist,omitempty"`
	AnalysisData *caption.Analysis `json:"analysisData"`
}

// AnalyzeImage captions a product photo, searches the shopping API with the
// extracted keywords and saves the best hit.
func (s *Service) AnalyzeImage(ctx context.Context, userID int64, imageURL string, isPublic bool) (*ImageAnalysisResult, error) {
	u, err := url.Parse(strings.TrimSpace(imageURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, apperr.Validation("INVALID_IMAGE_URL", "올바른 이미지 URL을 입력해주세요")
	}
	if s.ext.Captioner == nil {
		return nil, unavailable("이미지 분석")
	}
	if s.ext.Shopping == nil {
		return nil, unavailable("상품 검색")
	}

	analysis, err := s.ext.Captioner.Analyze(ctx, u.String())
	if err != nil {
		return nil, err
	}
	analysis.AnalyzedAt = analysis.AnalyzedAt.In(s.clock.Location())

	var products []shopping.Product
	if analysis.SearchKeyword != "" {
		products, err = s.ext.Shopping.Search(ctx, analysis.SearchKeyword, 10)
		if err != nil {
			return nil, err
		}
	}
	if len(products) == 0 {
		s.logger.WithField("keyword", analysis.SearchKeyword).Info("No products found for image")
		return &ImageAnalysisResult{
			Message:      "검색 결과가 없으므로, 위시리스트에 저장되지 않았습니다",
			AnalysisData: analysis,
		}, nil
	}

	best := products[0]
	w, err := s.CreateWishlist(ctx, userID, WishlistInput{
		InsertType:  models.InsertTypeImage,
		ProductName: best.ProductName,
		Price:       best.Price,
		ImageURL:    best.ImageURL,
		URL:         best.URL,
		IsPublic:    isPublic,
	})
	if err != nil {
		return nil, err
	}
	return &ImageAnalysisResult{
		Success:      true,
		Message:      "이미지 분석 완료 및 위시리스트에 성공적으로 등록되었습니다",
		Wishlist:     w,
		AnalysisData: analysis,
	}, nil
}

// ShoppingSearch proxies a keyword search.
func (s *Service) ShoppingSearch(ctx context.Context, query string, display int) ([]shopping.Product, error) {
	if s.ext.Shopping == nil {
		return nil, unavailable("상품 검색")
	}
	return s.ext.Shopping.Search(ctx, strings.TrimSpace(query), display)
}

// PresignUpload signs a direct upload for the client.
func (s *Service) PresignUpload(ctx context.Context, folder, fileName string) (*storage.Upload, error) {
	if s.ext.Uploads == nil {
		return nil, unavailable("파일 업로드")
	}
	return s.ext.Uploads.PresignUpload(ctx, folder, fileName)
}
