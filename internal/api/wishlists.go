package api

import (
	"net/http"

	"github.com/Kerhoff/moamoa/internal/apperr"
	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/pagination"
	"github.com/Kerhoff/moamoa/internal/service"
)

type createWishlistRequest struct {
	InsertType  string `json:"insertType" validate:"required,oneof=URL IMAGE MANUAL"`
	URL         string `json:"url" validate:"required_if=InsertType URL"`
	ProductName string `json:"productName" validate:"max=255"`
	Price       int64  `json:"price" validate:"gte=0"`
	ImageURL    string `json:"imageUrl"`
	IsPublic    *bool  `json:"isPublic"`
}

type updateWishlistRequest struct {
	ProductName *string `json:"productName" validate:"omitempty,max=255"`
	Price       *int64  `json:"price" validate:"omitempty,gte=0"`
	ImageURL    *string `json:"imageUrl"`
	IsPublic    *bool   `json:"isPublic"`
}

type analyzeImageRequest struct {
	ImageURL string `json:"imageUrl" validate:"required"`
	IsPublic *bool  `json:"isPublic"`
}

type presignRequest struct {
	FileName string `json:"fileName" validate:"required,max=255"`
	Folder   string `json:"folder" validate:"max=64"`
}

func (s *Server) handleMyWishlists(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r, 10, 50)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	page, err := s.svc.MyWishlists(r.Context(), viewer(r), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, page)
}

func (s *Server) handleCreateWishlist(w http.ResponseWriter, r *http.Request) {
	var req createWishlistRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	item, err := s.svc.CreateWishlist(r.Context(), viewer(r), service.WishlistInput{
		InsertType:  models.InsertType(req.InsertType),
		URL:         req.URL,
		ProductName: req.ProductName,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		IsPublic:    boolOr(req.IsPublic, true),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondCreated(w, item)
}

func (s *Server) handleUpdateWishlist(w http.ResponseWriter, r *http.Request) {
	wishlistID, err := pathID(r, "wishlistId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req updateWishlistRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	item, err := s.svc.UpdateWishlist(r.Context(), viewer(r), wishlistID, service.WishlistUpdate{
		ProductName: req.ProductName,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, item)
}

func (s *Server) handleDeleteWishlist(w http.ResponseWriter, r *http.Request) {
	wishlistID, err := pathID(r, "wishlistId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.svc.DeleteWishlist(r.Context(), viewer(r), wishlistID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, map[string]int64{"deletedWishlistId": wishlistID})
}

func (s *Server) handleAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	var req analyzeImageRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.svc.AnalyzeImage(r.Context(), viewer(r), req.ImageURL, boolOr(req.IsPublic, true))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, result)
}

func (s *Server) handleShoppingSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		s.respondError(w, r, apperr.Validation("INVALID_QUERY", "검색어를 입력해주세요"))
		return
	}
	display, err := pagination.ParseLimit(q.Get("display"), 10, 1, 100)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	products, err := s.svc.ShoppingSearch(r.Context(), query, display)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, map[string]any{"items": products})
}

func (s *Server) handlePresignUpload(w http.ResponseWriter, r *http.Request) {
	var req presignRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	upload, err := s.svc.PresignUpload(r.Context(), req.Folder, req.FileName)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, upload)
}
