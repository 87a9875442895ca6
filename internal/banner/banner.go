// Package banner derives the UI states of a birthday event for a viewer:
// per-event banner type, detail-page button and the home banners.
package banner

import (
	"fmt"
	"sort"
	"time"

	"github.com/Kerhoff/moamoa/internal/dday"
	"github.com/Kerhoff/moamoa/internal/models"
)

// Type is a banner variant. Per-event derivation never yields BirthdayToday
// or Default; those only appear on the main banner.
type Type string

const (
	Balance       Type = "balance"
	BirthdayToday Type = "birthday_today"
	MyInProgress  Type = "my_in_progress"
	Completed     Type = "completed"
	Certification Type = "certification"
	Participating Type = "participating"
	Default       Type = "default"
)

// UpcomingWindowDays is how far ahead birthdays count as upcoming.
const UpcomingWindowDays = 7

// TypeFor returns the banner type of event as seen by viewerID, or nil.
func TypeFor(event *models.BirthdayEvent, viewerID int64, isParticipant bool) *Type {
	var t Type
	owner := event.IsOwner(viewerID)
	switch {
	case owner && event.IsCompleted() && event.NeedBalance:
		t = Balance
	case owner && event.IsCompleted() && event.NeedCertification:
		t = Certification
	case owner && event.IsCompleted():
		t = Completed
	case owner && event.IsActive():
		t = MyInProgress
	case isParticipant && event.IsActive():
		t = Participating
	default:
		return nil
	}
	return &t
}

// Banner is a home screen banner.
type Banner struct {
	Type        Type   `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ActionText  string `json:"actionText"`
	MoaID       *int64 `json:"moaId"`
}

// Moa is the slice of a listed event the home banners look at.
type Moa struct {
	ID                 int64
	BannerType         *Type
	Status             models.EventStatus
	IsBirthdayPerson   bool
	BirthdayPersonName string
}

// Upcoming is a friend's birthday inside the lookahead window.
type Upcoming struct {
	DDay    int
	UserID  int64
	EventID *int64
}

// Viewer is the signed-in user the banners are built for.
type Viewer struct {
	Name     string
	Birthday time.Time
}

func idPtr(id int64) *int64 { return &id }

func (m Moa) is(t Type) bool { return m.BannerType != nil && *m.BannerType == t }

// Main picks the single main banner. The first matching rule wins:
// leftover balance, birthday today, own moa in progress (or own birthday close
// without a completed moa), a friend to join, then the static default.
func Main(viewer Viewer, moas []Moa, upcoming []Upcoming, clock *dday.Clock) Banner {
	for _, m := range moas {
		if m.is(Balance) {
			return Banner{
				Type:        Balance,
				Title:       "송금을 완료했어요!",
				Description: "잔금을 현명하게 소비하러 가요",
				ActionText:  "잔금 처리하기",
				MoaID:       idPtr(m.ID),
			}
		}
	}

	hasBirthday := !viewer.Birthday.IsZero()
	var countdown dday.Countdown
	if hasBirthday {
		countdown = clock.Countdown(viewer.Birthday)
		if countdown.IsBirthdayToday {
			return Banner{
				Type:  BirthdayToday,
				Title: fmt.Sprintf("%s님의 생일을 축하합니다!", viewer.Name),
			}
		}
	}

	var own *Moa
	completedOwn := false
	for i := range moas {
		m := moas[i]
		if m.is(MyInProgress) && m.Status == models.EventStatusActive && own == nil {
			own = &moas[i]
		}
		if m.IsBirthdayPerson && m.Status == models.EventStatusCompleted {
			completedOwn = true
		}
	}
	soon := hasBirthday && countdown.DaysRemaining <= UpcomingWindowDays
	if own != nil || (soon && !completedOwn) {
		b := Banner{
			Type:       MyInProgress,
			Title:      fmt.Sprintf("%s님을 위한 모아가 진행 중이에요!", viewer.Name),
			ActionText: "모아모아 보러가기",
		}
		if own != nil {
			b.MoaID = idPtr(own.ID)
		}
		return b
	}

	var joined *Moa
	for i := range moas {
		if moas[i].is(Participating) {
			joined = &moas[i]
			break
		}
	}
	if len(upcoming) > 0 || joined != nil {
		b := Banner{Type: Participating, Title: "친구의 모아에 참여해봐요!"}
		if len(upcoming) > 0 {
			sorted := append([]Upcoming(nil), upcoming...)
			sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].DDay < sorted[j].DDay })
			b.MoaID = sorted[0].EventID
		} else {
			b.MoaID = idPtr(joined.ID)
		}
		return b
	}

	return Banner{Type: Default, Title: "마음을 모아 기쁨을 나누는 모아모아!"}
}

// Sub lists a banner for every participating and certification moa,
// regardless of which banner won the main slot.
func Sub(moas []Moa) []Banner {
	subs := make([]Banner, 0)
	for _, m := range moas {
		switch {
		case m.is(Participating):
			subs = append(subs, Banner{
				Type:       Participating,
				Title:      fmt.Sprintf("%s님의 모아모아 참여 중", m.BirthdayPersonName),
				ActionText: "진행도 보러 가기",
				MoaID:      idPtr(m.ID),
			})
		case m.is(Certification):
			subs = append(subs, Banner{
				Type:       Certification,
				Title:      "받은 선물을 인증해보세요",
				ActionText: "선물 인증하기",
				MoaID:      idPtr(m.ID),
			})
		}
	}
	return subs
}
