package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Kerhoff/moamoa/internal/apperr"
	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/notify"
	"github.com/Kerhoff/moamoa/internal/repository"
)

const (
	maxProofImages  = 5
	maxProofMessage = 500
)

var proofImagePattern = regexp.MustCompile(`(?i)^https?://.+\.(jpg|jpeg|png|gif|webp)$`)

// PurchaseProofInput is the owner's proof of purchase.
type PurchaseProofInput struct {
	ProofImages []string `json:"proofImages"`
	Message     string   `json:"message"`
}

// ProofSummary identifies a stored proof.
type ProofSummary struct {
	ID          int64    `json:"id"`
	EventID     int64    `json:"eventId"`
	ProofImages []string `json:"proofImages"`
}

// ThankYouMessage describes the message sent along with a proof.
type ThankYouMessage struct {
	TotalSent  int           `json:"totalSent"`
	Message    string        `json:"message"`
	SentAt     time.Time     `json:"sentAt"`
	Recipients []UserSummary `json:"recipients"`
}

// PurchaseProofResult is returned after the owner posts a proof.
type PurchaseProofResult struct {
	PurchaseProof   ProofSummary    `json:"purchaseProof"`
	ThankYouMessage ThankYouMessage `json:"thankYouMessage"`
}

func validateProof(in PurchaseProofInput) (PurchaseProofInput, error) {
	if len(in.ProofImages) == 0 || len(in.ProofImages) > maxProofImages {
		return in, apperr.Validation("INVALID_PROOF_IMAGES", "인증 이미지는 1개 이상 %d개 이하로 등록해주세요", maxProofImages)
	}
	for _, img := range in.ProofImages {
		if !proofImagePattern.MatchString(img) {
			return in, apperr.Validation("INVALID_PROOF_IMAGES", "올바른 이미지 URL이 아닙니다").
				WithData(map[string]string{"proofImage": img})
		}
	}
	in.Message = strings.TrimSpace(in.Message)
	if n := utf8.RuneCountInString(in.Message); n == 0 || n > maxProofMessage {
		return in, apperr.Validation("INVALID_MESSAGE", "감사 메시지는 1자 이상 %d자 이하로 입력해주세요", maxProofMessage)
	}
	return in, nil
}

func proofExists() error {
	return apperr.Conflict("PROOF_ALREADY_EXISTS", "이미 구매 인증을 등록했습니다")
}

// CreatePurchaseProof records the owner's proof for a completed event and
// sends the thank-you message to every participant. One proof per event.
func (s *Service) CreatePurchaseProof(ctx context.Context, ownerID, eventID int64, in PurchaseProofInput) (*PurchaseProofResult, error) {
	in, err := validateProof(in)
	if err != nil {
		return nil, err
	}
	event, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsOwner(ownerID) {
		return nil, apperr.Forbidden("NOT_EVENT_OWNER", "본인의 생일 이벤트에만 구매 인증을 등록할 수 있습니다")
	}
	if !event.IsCompleted() {
		return nil, apperr.Validation("EVENT_NOT_COMPLETED", "완료된 이벤트에만 구매 인증을 등록할 수 있습니다")
	}

	existing, err := s.Proofs.GetByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase proof: %w", err)
	}
	if existing != nil {
		return nil, proofExists()
	}

	participants, err := s.participantUsers(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return nil, apperr.Validation("NO_PARTICIPANTS", "감사 메시지를 받을 참여자가 없습니다")
	}
	owner, err := s.user(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	title := "구매 인증 등록"
	body := fmt.Sprintf("%s님의 생일 모아에서 구매 인증이 등록되었습니다!", owner.DisplayName())
	notes := make([]*models.Notification, 0, len(participants))
	for _, u := range participants {
		id := eventID
		notes = append(notes, &models.Notification{
			UserID:  u.ID,
			Kind:    models.NotificationPurchaseProof,
			Title:   title,
			Body:    body,
			EventID: &id,
		})
	}

	proof := &models.PurchaseProof{EventID: eventID, ProofImages: in.ProofImages, Message: in.Message}
	err = s.Proofs.Create(ctx, proof, notes)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, proofExists()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create purchase proof: %w", err)
	}

	recipients := make([]UserSummary, 0, len(participants))
	msgs := make([]notify.Message, 0, len(participants))
	for _, u := range participants {
		recipients = append(recipients, summarize(u))
		msgs = append(msgs, messageFor(u, title, body))
	}
	s.push("purchase_proof", msgs...)

	s.logger.WithField("event_id", eventID).Infof("Purchase proof sent to %d participants", len(participants))
	return &PurchaseProofResult{
		PurchaseProof: ProofSummary{ID: proof.ID, EventID: eventID, ProofImages: proof.ProofImages},
		ThankYouMessage: ThankYouMessage{
			TotalSent:  len(participants),
			Message:    proof.Message,
			SentAt:     s.clock.Now(),
			Recipients: recipients,
		},
	}, nil
}

// PurchaseProof returns the event's proof to its owner or a participant.
func (s *Service) PurchaseProof(ctx context.Context, viewerID, eventID int64) (*models.PurchaseProof, error) {
	event, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsOwner(viewerID) {
		p, err := s.Participants.Get(ctx, eventID, viewerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load participation: %w", err)
		}
		if p == nil {
			return nil, apperr.Forbidden("EVENT_ACCESS_DENIED", "이 생일 이벤트를 볼 수 없습니다")
		}
	}

	proof, err := s.Proofs.GetByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase proof: %w", err)
	}
	if proof == nil {
		return nil, apperr.NotFound("PURCHASE_PROOF_NOT_FOUND", "등록된 구매 인증이 없습니다")
	}
	proof.CreatedAt = proof.CreatedAt.In(s.clock.Location())
	return proof, nil
}
