package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/moamoa/internal/apperr"
	"github.com/Kerhoff/moamoa/internal/caption"
	"github.com/Kerhoff/moamoa/internal/dday"
	"github.com/Kerhoff/moamoa/internal/metrics"
	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/notify"
	"github.com/Kerhoff/moamoa/internal/repository"
	"github.com/Kerhoff/moamoa/internal/shopping"
	"github.com/Kerhoff/moamoa/internal/storage"
)

const pushTimeout = 10 * time.Second

// Repositories groups the data access the service needs.
type Repositories struct {
	Users         repository.UserRepository
	Follows       repository.FollowRepository
	Events        repository.EventRepository
	Participants  repository.ParticipantRepository
	Wishlists     repository.WishlistRepository
	Votes         repository.VoteRepository
	Selections    repository.SelectionRepository
	Letters       repository.LetterRepository
	SearchHistory repository.SearchHistoryRepository
	Dispositions  repository.DispositionRepository
	Notifications repository.NotificationRepository
	Proofs        repository.PurchaseProofRepository
	ShareTokens   repository.ShareTokenRepository
}

// ProductSearcher finds products by keyword.
type ProductSearcher interface {
	Search(ctx context.Context, query string, display int) ([]shopping.Product, error)
}

// PageFetcher reads a product from its shop page.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (shopping.Product, error)
}

// ImageAnalyzer captions a product photo.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, imageURL string) (*caption.Analysis, error)
}

// Uploader signs object uploads.
type Uploader interface {
	PresignUpload(ctx context.Context, folder, fileName string) (*storage.Upload, error)
}

// Integrations are the outbound collaborators. Any of them may be nil, in
// which case the operations needing it report the feature as unavailable.
type Integrations struct {
	Notifier          notify.Notifier
	Shopping          ProductSearcher
	Crawler           PageFetcher
	Captioner         ImageAnalyzer
	Uploads           Uploader
	SettlementFormURL string
	ShareBaseURL      string
}

// Service is the central business logic layer that holds all repositories
// and provides high-level methods for the API and the bot.
type Service struct {
	Repositories
	logger *logrus.Logger
	clock  *dday.Clock
	ext    Integrations
}

// New creates a new Service with all required dependencies.
func New(logger *logrus.Logger, clock *dday.Clock, repos Repositories, ext Integrations) *Service {
	if ext.Notifier == nil {
		ext.Notifier = notify.Nop{}
	}
	return &Service{Repositories: repos, logger: logger, clock: clock, ext: ext}
}

// Clock returns the service's reference calendar.
func (s *Service) Clock() *dday.Clock { return s.clock }

// UserSummary is the public face of a user inside other payloads.
type UserSummary struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Handle   string `json:"handle,omitempty"`
	PhotoURL string `json:"photo"`
}

func summarize(u *models.User) UserSummary {
	if u == nil {
		return UserSummary{}
	}
	return UserSummary{ID: u.ID, Name: u.Name, Handle: u.Handle, PhotoURL: u.PhotoURL}
}

func (s *Service) user(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", id, err)
	}
	if u == nil {
		return nil, apperr.NotFound("USER_NOT_FOUND", "사용자를 찾을 수 없습니다")
	}
	return u, nil
}

func (s *Service) event(ctx context.Context, id int64) (*models.BirthdayEvent, error) {
	e, err := s.Events.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load event %d: %w", id, err)
	}
	if e == nil {
		return nil, apperr.NotFound("EVENT_NOT_FOUND", "생일 이벤트를 찾을 수 없습니다")
	}
	return e, nil
}

func (s *Service) amounts(ctx context.Context, eventID int64) (models.EventAmounts, error) {
	all, err := s.Events.Amounts(ctx, []int64{eventID})
	if err != nil {
		return models.EventAmounts{}, fmt.Errorf("failed to load event amounts: %w", err)
	}
	return all[eventID], nil
}

// push delivers messages in the background. Failures are logged only.
func (s *Service) push(kind string, msgs ...notify.Message) {
	if len(msgs) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()

		err := notify.NotifyAll(ctx, s.ext.Notifier, msgs)
		metrics.RecordNotification(kind, err == nil)
		if err != nil {
			s.logger.WithError(err).WithField("kind", kind).Warn("Failed to deliver notifications")
		}
	}()
}

func messageFor(u *models.User, title, body string) notify.Message {
	return notify.Message{
		UserID:         u.ID,
		TelegramChatID: u.TelegramChatID,
		Email:          u.Email,
		Title:          title,
		Body:           body,
	}
}

func unavailable(feature string) error {
	return apperr.Unavailable("FEATURE_UNAVAILABLE", "%s 기능을 사용할 수 없습니다", feature)
}

// formatWon renders n with thousands separators.
func formatWon(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	digits := fmt.Sprintf("%d", n)
	out := make([]byte, 0, len(digits)+len(digits)/3)
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

func dateString(t time.Time) string {
	return t.Format("2006-01-02")
}
