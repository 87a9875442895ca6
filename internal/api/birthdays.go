package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/pagination"
	"github.com/Kerhoff/moamoa/internal/service"
)

// ---------------------------------------------------------------------------
// Upcoming birthdays & moas
// ---------------------------------------------------------------------------

func (s *Server) handleUpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r, 3, 10)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	page, err := s.svc.UpcomingBirthdays(r.Context(), viewer(r), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, page)
}

func (s *Server) handleMoas(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r, 1, 20)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	page, err := s.svc.Moas(r.Context(), viewer(r), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, page)
}

// ---------------------------------------------------------------------------
// Event detail & participation
// ---------------------------------------------------------------------------

type participateRequest struct {
	ParticipationType string `json:"participationType" validate:"required"`
	Amount            int64  `json:"amount" validate:"gte=0"`
	Message           string `json:"message" validate:"max=200"`
}

func (s *Server) handleEventDetail(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	detail, err := s.svc.EventDetail(r.Context(), viewer(r), eventID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, detail)
}

func (s *Server) handleParticipate(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req participateRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	p, err := s.svc.Participate(r.Context(), viewer(r), eventID, service.ParticipateInput{
		ParticipationType: models.ParticipationType(req.ParticipationType),
		Amount:            req.Amount,
		Message:           req.Message,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondCreated(w, p)
}

// ---------------------------------------------------------------------------
// Votes
// ---------------------------------------------------------------------------

type wishlistIDsRequest struct {
	WishlistIDs []int64 `json:"wishlistIds" validate:"required"`
}

func (s *Server) handleVoteOptions(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	opts, err := s.svc.VoteOptions(r.Context(), viewer(r), eventID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, opts)
}

func (s *Server) handleCastVotes(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req wishlistIDsRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	results, err := s.svc.CastVotes(r.Context(), viewer(r), eventID, req.WishlistIDs)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, results)
}

func (s *Server) handleVoteResults(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	results, err := s.svc.VoteResults(r.Context(), viewer(r), eventID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, results)
}

// ---------------------------------------------------------------------------
// The owner's event
// ---------------------------------------------------------------------------

type donateRequest struct {
	OrganizationID int64 `json:"organizationId" validate:"required,gt=0"`
}

func (s *Server) handleMyEventResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.MyEventResult(r.Context(), viewer(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, result)
}

func (s *Server) handleMyEventWishlist(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sortBy, err := service.ParseWishlistSort(q.Get("sortBy"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	limit, err := pagination.ParseLimit(q.Get("limit"), 10, 1, 50)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	page, err := s.svc.MyEventWishlist(r.Context(), viewer(r), service.EventWishlistRequest{
		SortBy: sortBy,
		Cursor: q.Get("cursor"),
		Limit:  limit,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, page)
}

func (s *Server) handleSelectWishlist(w http.ResponseWriter, r *http.Request) {
	var req wishlistIDsRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	sel, err := s.svc.SelectWishlistItems(r.Context(), viewer(r), req.WishlistIDs)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, sel)
}

func (s *Server) handleConfirmBudget(w http.ResponseWriter, r *http.Request) {
	var req wishlistIDsRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	check, err := s.svc.ConfirmBudget(r.Context(), viewer(r), req.WishlistIDs)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, check)
}

func (s *Server) handleEventStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.svc.EventStatus(r.Context(), viewer(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, status)
}

func (s *Server) handleRemainingOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := s.svc.RemainingOptions(r.Context(), viewer(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, opts)
}

func (s *Server) handleConversionPreview(w http.ResponseWriter, r *http.Request) {
	preview, err := s.svc.ConversionPreview(r.Context(), viewer(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, preview)
}

func (s *Server) handleDonate(w http.ResponseWriter, r *http.Request) {
	var req donateRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.svc.Donate(r.Context(), viewer(r), req.OrganizationID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, result)
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.ConvertToCoins(r.Context(), viewer(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, result)
}

func (s *Server) handleEventLetters(w http.ResponseWriter, r *http.Request) {
	letters, err := s.svc.EventLetters(r.Context(), viewer(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, letters)
}

func (s *Server) handleSettlement(w http.ResponseWriter, r *http.Request) {
	link, err := s.svc.SettlementLink(r.Context(), viewer(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, link)
}

func (s *Server) handleOrganizations(w http.ResponseWriter, _ *http.Request) {
	s.respondOK(w, s.svc.Organizations())
}

// ---------------------------------------------------------------------------
// Completion, purchase proof & share links
// ---------------------------------------------------------------------------

type purchaseProofRequest struct {
	ProofImages []string `json:"proofImages" validate:"required,min=1,max=5"`
	Message     string   `json:"message" validate:"required,max=500"`
}

func (s *Server) handleCompleteMyEvent(w http.ResponseWriter, r *http.Request) {
	status, err := s.svc.CompleteMyEvent(r.Context(), viewer(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, status)
}

func (s *Server) handleCreatePurchaseProof(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req purchaseProofRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.svc.CreatePurchaseProof(r.Context(), viewer(r), eventID, service.PurchaseProofInput{
		ProofImages: req.ProofImages,
		Message:     req.Message,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondCreated(w, result)
}

func (s *Server) handlePurchaseProof(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	proof, err := s.svc.PurchaseProof(r.Context(), viewer(r), eventID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, map[string]any{"purchaseProof": proof})
}

func (s *Server) handleCreateShareLink(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	// The body is optional.
	var req service.ShareLinkInput
	if r.ContentLength > 0 {
		if err := s.decodeJSON(w, r, &req); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	link, err := s.svc.CreateShareLink(r.Context(), viewer(r), eventID, req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondCreated(w, link)
}

func (s *Server) handleSharedEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.svc.SharedEvent(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOK(w, event)
}
