package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Kerhoff/moamoa/internal/apperr"
	"github.com/Kerhoff/moamoa/internal/dday"
	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/pagination"
	"github.com/Kerhoff/moamoa/internal/repository"
)

const (
	maxLetterTitle   = 100
	maxLetterContent = 2000
)

// HomeLetter is an event card on the home letter carousel.
type HomeLetter struct {
	BirthdayEventID     int64      `json:"birthdayEventId"`
	BirthdayPersonName  string     `json:"birthdayPersonName"`
	BirthdayPersonPhoto string     `json:"birthdayPersonPhoto"`
	Birthday            string     `json:"birthday"`
	HasLetter           bool       `json:"hasLetter"`
	LetterID            *int64     `json:"letterId"`
	LastModified        *time.Time `json:"lastModified"`
	DaysLeft            int        `json:"daysLeft"`

	cursor string
}

// HomeLettersPage is one swipe of the letter carousel.
type HomeLettersPage struct {
	Letters    []HomeLetter    `json:"letters"`
	Pagination pagination.Info `json:"pagination"`
}

// HomeLetters lists the open events viewerID joined, with the viewer's
// letter status for each.
func (s *Service) HomeLetters(ctx context.Context, viewerID int64, req PageRequest) (*HomeLettersPage, error) {
	cursor, err := decodeTimeCursor(req.Cursor)
	if err != nil {
		return nil, err
	}

	today := s.clock.Today()
	rows, err := s.Letters.ListHome(ctx, viewerID, today, repository.CursorFilters{
		Cursor: cursor, Direction: req.Direction, Limit: req.Limit + 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list home letters: %w", err)
	}
	page, hasMore := pagination.Window(rows, req.Limit, req.Direction)

	personIDs := make([]int64, 0, len(page))
	for _, r := range page {
		personIDs = append(personIDs, r.Event.BirthdayPersonID)
	}
	people, err := s.Users.GetByIDs(ctx, personIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load birthday people: %w", err)
	}

	letters := make([]HomeLetter, 0, len(page))
	for _, r := range page {
		item := HomeLetter{
			BirthdayEventID: r.Event.ID,
			HasLetter:       r.LetterID != nil,
			LetterID:        r.LetterID,
			cursor:          timeCursor(r.Event),
		}
		if r.LetterUpdatedAt != nil {
			t := r.LetterUpdatedAt.In(s.clock.Location())
			item.LastModified = &t
		}
		if p := people[r.Event.BirthdayPersonID]; p != nil {
			item.BirthdayPersonName = p.DisplayName()
			item.BirthdayPersonPhoto = p.PhotoURL
			if !p.Birthday.IsZero() {
				cd := dday.CountdownTo(p.Birthday, today)
				item.Birthday = dday.DisplayDate(cd.NextBirthday)
				item.DaysLeft = cd.DaysRemaining
			}
		}
		letters = append(letters, item)
	}

	return &HomeLettersPage{
		Letters:    letters,
		Pagination: pagination.NewInfo(letters, req.Direction, hasMore, cursor != nil, func(h HomeLetter) string { return h.cursor }),
	}, nil
}

// LetterInput is the editable part of a letter.
type LetterInput struct {
	Title   string
	Content string
}

func (in LetterInput) validate() error {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return apperr.Validation("EMPTY_CONTENT", "편지 내용을 입력해주세요")
	}
	if utf8.RuneCountInString(content) > maxLetterContent {
		return apperr.Validation("CONTENT_TOO_LONG", "편지는 %d자까지 쓸 수 있습니다", maxLetterContent)
	}
	if utf8.RuneCountInString(in.Title) > maxLetterTitle {
		return apperr.Validation("TITLE_TOO_LONG", "제목은 %d자까지 쓸 수 있습니다", maxLetterTitle)
	}
	return nil
}

// editable reports whether letters of event may still change. Letters lock
// on the birthday person's birthday.
func (s *Service) editable(ctx context.Context, event *models.BirthdayEvent) error {
	receiver, err := s.user(ctx, event.BirthdayPersonID)
	if err != nil {
		return err
	}
	if !event.IsActive() || s.clock.DaysUntil(event.Deadline) < 0 || s.clock.IsToday(receiver.Birthday) {
		return apperr.Forbidden("LETTER_LOCKED", "생일 당일 이후로는 편지를 수정하거나 삭제할 수 없습니다")
	}
	return nil
}

// CreateLetter writes viewerID's letter for an event they joined.
func (s *Service) CreateLetter(ctx context.Context, viewerID, eventID int64, in LetterInput) (*models.Letter, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	event, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.IsOwner(viewerID) {
		return nil, apperr.Validation("CANNOT_WRITE_OWN_LETTER", "자신에게는 편지를 쓸 수 없습니다")
	}
	joined, err := s.isParticipant(ctx, eventID, viewerID)
	if err != nil {
		return nil, err
	}
	if !joined {
		return nil, apperr.Forbidden("NOT_PARTICIPANT", "이벤트 참여자만 편지를 쓸 수 있습니다")
	}
	if err := s.editable(ctx, event); err != nil {
		return nil, err
	}

	letter, err := s.Letters.Create(ctx, &models.Letter{
		EventID:    eventID,
		SenderID:   viewerID,
		ReceiverID: event.BirthdayPersonID,
		Title:      strings.TrimSpace(in.Title),
		Content:    strings.TrimSpace(in.Content),
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apperr.Validation("LETTER_ALREADY_EXISTS", "이미 편지를 작성한 이벤트입니다")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create letter: %w", err)
	}
	return letter, nil
}

func (s *Service) ownLetter(ctx context.Context, viewerID, letterID int64) (*models.Letter, *models.BirthdayEvent, error) {
	letter, err := s.Letters.GetByID(ctx, letterID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load letter: %w", err)
	}
	if letter == nil {
		return nil, nil, apperr.NotFound("LETTER_NOT_FOUND", "편지를 찾을 수 없습니다")
	}
	if letter.SenderID != viewerID {
		return nil, nil, apperr.Forbidden("NOT_LETTER_SENDER", "본인이 작성한 편지만 수정할 수 있습니다")
	}
	event, err := s.event(ctx, letter.EventID)
	if err != nil {
		return nil, nil, err
	}
	return letter, event, nil
}

// GetLetter returns a letter to its sender or receiver.
func (s *Service) GetLetter(ctx context.Context, viewerID, letterID int64) (*models.Letter, error) {
	letter, err := s.Letters.GetByID(ctx, letterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load letter: %w", err)
	}
	if letter == nil {
		return nil, apperr.NotFound("LETTER_NOT_FOUND", "편지를 찾을 수 없습니다")
	}
	if letter.SenderID != viewerID && letter.ReceiverID != viewerID {
		return nil, apperr.Forbidden("LETTER_ACCESS_DENIED", "편지를 열람할 권한이 없습니다")
	}
	return letter, nil
}

// UpdateLetter edits the sender's letter before the birthday.
func (s *Service) UpdateLetter(ctx context.Context, viewerID, letterID int64, in LetterInput) (*models.Letter, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	letter, event, err := s.ownLetter(ctx, viewerID, letterID)
	if err != nil {
		return nil, err
	}
	if err := s.editable(ctx, event); err != nil {
		return nil, err
	}

	if t := strings.TrimSpace(in.Title); t != "" {
		letter.Title = t
	}
	letter.Content = strings.TrimSpace(in.Content)
	updated, err := s.Letters.Update(ctx, letter)
	if err != nil {
		return nil, fmt.Errorf("failed to update letter: %w", err)
	}
	return updated, nil
}

// DeleteLetter removes the sender's letter before the birthday.
func (s *Service) DeleteLetter(ctx context.Context, viewerID, letterID int64) error {
	_, event, err := s.ownLetter(ctx, viewerID, letterID)
	if err != nil {
		return err
	}
	if err := s.editable(ctx, event); err != nil {
		return err
	}
	if err := s.Letters.Delete(ctx, letterID); err != nil {
		return fmt.Errorf("failed to delete letter: %w", err)
	}
	return nil
}
