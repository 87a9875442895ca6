package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/moamoa/internal/apperr"
	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/repository"
	"github.com/Kerhoff/moamoa/internal/settlement"
)

// CoinConversionRate is the advertised coins-per-1000-won rate.
const CoinConversionRate = 1.2

// EventStatus is the leftover state of the owner's completed event.
type EventStatus struct {
	EventID             int64             `json:"eventId"`
	TotalReceivedAmount int64             `json:"totalReceivedAmount"`
	SelectedItemsAmount int64             `json:"selectedItemsAmount"`
	RemainingAmount     int64             `json:"remainingAmount"`
	Status              settlement.Status `json:"status"`
	Message             string            `json:"message"`
	IsProcessed         bool              `json:"isProcessed"`
	CanViewLetters      bool              `json:"canViewLetters"`
}

// RemainingOption is one way to dispose of the leftover.
type RemainingOption struct {
	Type  models.ProcessType `json:"type"`
	Label string             `json:"label"`
}

// RemainingOptions lists what the owner can do with the leftover.
type RemainingOptions struct {
	TotalReceivedAmount int64             `json:"totalReceivedAmount"`
	SelectedItemsAmount int64             `json:"selectedItemsAmount"`
	RemainingAmount     int64             `json:"remainingAmount"`
	Message             string            `json:"message"`
	Description         string            `json:"description"`
	Options             []RemainingOption `json:"options"`
}

// ConversionPreview shows the coins a conversion would yield.
type ConversionPreview struct {
	settlement.Conversion
	ConversionRate float64 `json:"conversionRate"`
	MinimumUnit    int64   `json:"minimumUnit"`
	Message        string  `json:"message"`
	Description    string  `json:"description"`
}

// DonationResult is returned after a donation.
type DonationResult struct {
	OrganizationName string    `json:"organizationName"`
	DonatedAmount    int64     `json:"donatedAmount"`
	Message          string    `json:"message"`
	Description      string    `json:"description"`
	DonatedAt        time.Time `json:"donatedAt"`
}

// ConversionResult is returned after a coin conversion.
type ConversionResult struct {
	ConvertedAmount int64     `json:"convertedAmount"`
	ConvertedCoins  int64     `json:"convertedCoins"`
	Message         string    `json:"message"`
	Description     string    `json:"description"`
	ConvertedAt     time.Time `json:"convertedAt"`
}

// EventLetter is a letter in the owner's letterbox.
type EventLetter struct {
	ID         int64     `json:"id"`
	SenderName string    `json:"senderName"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

// EventLetters is the owner's letterbox.
type EventLetters struct {
	EventID      int64         `json:"eventId"`
	TotalLetters int           `json:"totalLetters"`
	Letters      []EventLetter `json:"letters"`
}

// SettlementLink points the owner at the settlement form.
type SettlementLink struct {
	EventID         int64  `json:"eventId"`
	RemainingAmount int64  `json:"remainingAmount"`
	FormURL         string `json:"formUrl"`
}

type completed struct {
	event    *models.BirthdayEvent
	received int64
	selected int64
}

func (c completed) remaining() int64 { return settlement.Remaining(c.received, c.selected) }

func (s *Service) completedEvent(ctx context.Context, ownerID int64) (*completed, error) {
	event, err := s.Events.GetLatestCompletedByPerson(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed event: %w", err)
	}
	if event == nil {
		return nil, apperr.NotFound("COMPLETED_EVENT_NOT_FOUND", "완료된 생일 이벤트가 없습니다")
	}
	a, err := s.amounts(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	return &completed{event: event, received: a.CurrentAmount, selected: a.SelectedAmount}, nil
}

// disposable loads the completed event and checks a leftover exists and was
// not handled yet.
func (s *Service) disposable(ctx context.Context, ownerID int64) (*completed, error) {
	c, err := s.completedEvent(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if c.remaining() == 0 {
		return nil, apperr.Validation("NO_REMAINING_AMOUNT", "처리할 남은 금액이 없습니다")
	}
	processed, err := s.Dispositions.IsProcessed(ctx, c.event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check disposition: %w", err)
	}
	if processed {
		return nil, alreadyProcessed()
	}
	return c, nil
}

func alreadyProcessed() error {
	return apperr.Validation("ALREADY_PROCESSED", "이미 처리된 이벤트입니다")
}

func leftoverMessage(remaining int64) string {
	return fmt.Sprintf("%s원이 남았어요", formatWon(remaining))
}

// EventStatus reports the leftover of the owner's latest completed event.
func (s *Service) EventStatus(ctx context.Context, ownerID int64) (*EventStatus, error) {
	c, err := s.completedEvent(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	processed, err := s.Dispositions.IsProcessed(ctx, c.event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check disposition: %w", err)
	}

	remaining := c.remaining()
	msg := "친구들의 마음을 받았어요!"
	if remaining > 0 {
		msg = leftoverMessage(remaining)
	}
	return &EventStatus{
		EventID:             c.event.ID,
		TotalReceivedAmount: c.received,
		SelectedItemsAmount: c.selected,
		RemainingAmount:     remaining,
		Status:              settlement.StatusOf(remaining),
		Message:             msg,
		IsProcessed:         processed,
		CanViewLetters:      true,
	}, nil
}

// RemainingOptions lists the disposition choices.
func (s *Service) RemainingOptions(ctx context.Context, ownerID int64) (*RemainingOptions, error) {
	c, err := s.disposable(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &RemainingOptions{
		TotalReceivedAmount: c.received,
		SelectedItemsAmount: c.selected,
		RemainingAmount:     c.remaining(),
		Message:             leftoverMessage(c.remaining()),
		Description:         "어떤 용도로 사용할지 선택해주세요",
		Options: []RemainingOption{
			{Type: models.ProcessDonate, Label: "기부하기"},
			{Type: models.ProcessConvertToCoin, Label: "몽코인으로 전환하기"},
		},
	}, nil
}

// ConversionPreview computes the conversion with the same rule as
// ConvertToCoins.
func (s *Service) ConversionPreview(ctx context.Context, ownerID int64) (*ConversionPreview, error) {
	c, err := s.completedEvent(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	conv, err := settlement.ConvertCoins(c.remaining())
	if err != nil {
		return nil, err
	}
	return &ConversionPreview{
		Conversion:     conv,
		ConversionRate: CoinConversionRate,
		MinimumUnit:    settlement.MinConvertUnit,
		Message:        "전환되는 몽코인은 100원 단위까지 전환되며 나머지 금액은 올림 되어 적용됩니다",
		Description:    fmt.Sprintf("%s원 = %dMC", formatWon(conv.ConvertibleAmount), conv.Coins),
	}, nil
}

// Donate gives the whole leftover to an organization.
func (s *Service) Donate(ctx context.Context, ownerID, organizationID int64) (*DonationResult, error) {
	c, err := s.disposable(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	org, ok := settlement.Organization(organizationID)
	if !ok {
		return nil, apperr.NotFound("ORGANIZATION_NOT_FOUND", "선택한 기부 단체가 존재하지 않습니다")
	}

	d := &models.Donation{
		EventID:        c.event.ID,
		UserID:         ownerID,
		OrganizationID: org.ID,
		Amount:         c.remaining(),
	}
	err = s.Dispositions.Donate(ctx, d)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, alreadyProcessed()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to donate: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"event_id": c.event.ID, "organization_id": org.ID, "amount": d.Amount}).Info("Leftover donated")
	return &DonationResult{
		OrganizationName: org.Name,
		DonatedAmount:    d.Amount,
		Message:          fmt.Sprintf("%s에 기부했어요", org.Name),
		Description:      "기부금을 전달하고 있어요",
		DonatedAt:        s.clock.Now(),
	}, nil
}

// ConvertToCoins credits the leftover, floored to the 100 won unit, as coins.
func (s *Service) ConvertToCoins(ctx context.Context, ownerID int64) (*ConversionResult, error) {
	c, err := s.disposable(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	conv, err := settlement.ConvertCoins(c.remaining())
	if err != nil {
		return nil, err
	}

	cc := &models.CoinConversion{
		EventID: c.event.ID,
		UserID:  ownerID,
		Amount:  conv.ConvertibleAmount,
		Coins:   conv.Coins,
	}
	err = s.Dispositions.ConvertToCoins(ctx, cc)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, alreadyProcessed()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to convert to coins: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"event_id": c.event.ID, "amount": cc.Amount, "coins": cc.Coins}).Info("Leftover converted to coins")
	return &ConversionResult{
		ConvertedAmount: cc.Amount,
		ConvertedCoins:  cc.Coins,
		Message:         fmt.Sprintf("%dMC로 전환되었습니다", cc.Coins),
		Description:     "상점에서 원하는 아이템으로 교환해 보세요",
		ConvertedAt:     s.clock.Now(),
	}, nil
}

// EventLetters returns the letters written for the owner's completed event.
func (s *Service) EventLetters(ctx context.Context, ownerID int64) (*EventLetters, error) {
	c, err := s.completedEvent(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	letters, err := s.Letters.ListByEvent(ctx, c.event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list letters: %w", err)
	}

	out := make([]EventLetter, 0, len(letters))
	for _, l := range letters {
		name := ""
		if l.Sender != nil {
			name = l.Sender.DisplayName()
		}
		out = append(out, EventLetter{
			ID:         l.ID,
			SenderName: name,
			Title:      l.Title,
			Content:    l.Content,
			CreatedAt:  l.CreatedAt.In(s.clock.Location()),
		})
	}
	return &EventLetters{EventID: c.event.ID, TotalLetters: len(out), Letters: out}, nil
}

// SettlementLink returns the settlement form for the completed event.
func (s *Service) SettlementLink(ctx context.Context, ownerID int64) (*SettlementLink, error) {
	if s.ext.SettlementFormURL == "" {
		return nil, unavailable("정산")
	}
	c, err := s.completedEvent(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &SettlementLink{EventID: c.event.ID, RemainingAmount: c.remaining(), FormURL: s.ext.SettlementFormURL}, nil
}

// Organizations lists donation recipients.
func (s *Service) Organizations() []models.Organization {
	return settlement.Organizations()
}
