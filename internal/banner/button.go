package banner

import (
	"fmt"
	"time"

	"github.com/Kerhoff/moamoa/internal/dday"
	"github.com/Kerhoff/moamoa/internal/models"
)

// ButtonType is the state of the event detail call-to-action.
type ButtonType string

const (
	ButtonParticipate  ButtonType = "PARTICIPATE"
	ButtonParticipated ButtonType = "PARTICIPATED"
	ButtonViewResult   ButtonType = "VIEW_RESULT"
	ButtonOwnerWaiting ButtonType = "OWNER_WAITING"
	ButtonEventEnded   ButtonType = "EVENT_ENDED"
)

// Button is rendered as-is by the client.
type Button struct {
	Type        ButtonType `json:"type"`
	Text        string     `json:"text"`
	Description string     `json:"description"`
	ActionURL   *string    `json:"actionUrl"`
	Disabled    bool       `json:"disabled"`
}

func strPtr(s string) *string { return &s }

// ButtonFor resolves the button for viewerID. today is the viewer's date and
// countdown the birthday person's countdown used in the participate hint.
func ButtonFor(event *models.BirthdayEvent, viewerID int64, joined bool, today time.Time, countdown dday.Countdown) Button {
	if event.IsOwner(viewerID) {
		if event.IsCompleted() {
			return Button{
				Type:        ButtonViewResult,
				Text:        "모아 결과보기",
				Description: "완료된 생일 이벤트 결과를 확인하세요",
				ActionURL:   strPtr("/api/birthdays/me/event"),
			}
		}
		return Button{
			Type:        ButtonOwnerWaiting,
			Text:        "모아 진행중",
			Description: "친구들의 참여를 기다리는 중입니다",
			Disabled:    true,
		}
	}

	if !event.IsActive() || dday.DaysBetween(today, event.Deadline) < 0 {
		return Button{
			Type:        ButtonEventEnded,
			Text:        "이벤트 종료",
			Description: "이벤트가 종료되었습니다",
			Disabled:    true,
		}
	}

	if joined {
		return Button{
			Type:        ButtonParticipated,
			Text:        "모아 참여 완료",
			Description: "이미 참여하셨습니다",
			Disabled:    true,
		}
	}

	return Button{
		Type:        ButtonParticipate,
		Text:        "모아 참여하기",
		Description: fmt.Sprintf("%s까지 참여 가능", countdown.Formatted),
		ActionURL:   strPtr(fmt.Sprintf("/api/birthdays/events/%d/participation", event.ID)),
	}
}
