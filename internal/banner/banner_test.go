package banner

import (
	"testing"
	"time"

	"github.com/Kerhoff/moamoa/internal/dday"
	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const viewerID = int64(1)

func event(owner int64, status models.EventStatus) *models.BirthdayEvent {
	return &models.BirthdayEvent{ID: 10, BirthdayPersonID: owner, Status: status}
}

func TestTypeFor(t *testing.T) {
	balance := event(viewerID, models.EventStatusCompleted)
	balance.NeedBalance = true
	balance.NeedCertification = true

	cert := event(viewerID, models.EventStatusCompleted)
	cert.NeedCertification = true

	cases := []struct {
		name        string
		event       *models.BirthdayEvent
		participant bool
		want        *Type
	}{
		{"owner completed with balance", balance, false, ptr(Balance)},
		{"owner completed needs certification", cert, false, ptr(Certification)},
		{"owner completed", event(viewerID, models.EventStatusCompleted), false, ptr(Completed)},
		{"owner active", event(viewerID, models.EventStatusActive), false, ptr(MyInProgress)},
		{"participant active", event(2, models.EventStatusActive), true, ptr(Participating)},
		{"participant completed", event(2, models.EventStatusCompleted), true, nil},
		{"stranger", event(2, models.EventStatusActive), false, nil},
		{"owner cancelled", event(viewerID, models.EventStatusCancelled), false, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TypeFor(tc.event, viewerID, tc.participant))
		})
	}
}

func ptr(t Type) *Type { return &t }

var kst = time.FixedZone("KST", 9*60*60)

func clockOn(y int, m time.Month, d int) *dday.Clock {
	return dday.Fixed(time.Date(y, m, d, 10, 0, 0, 0, kst), kst)
}

func bday(m time.Month, d int) time.Time {
	return time.Date(1990, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMainBannerPrecedence(t *testing.T) {
	clock := clockOn(2025, time.June, 1)
	viewer := Viewer{Name: "지수", Birthday: bday(time.June, 1)}

	moas := []Moa{
		{ID: 3, BannerType: ptr(Participating), Status: models.EventStatusActive},
		{ID: 2, BannerType: ptr(Balance), Status: models.EventStatusCompleted, IsBirthdayPerson: true},
	}

	b := Main(viewer, moas, nil, clock)
	assert.Equal(t, Balance, b.Type)
	require.NotNil(t, b.MoaID)
	assert.Equal(t, int64(2), *b.MoaID)

	b = Main(viewer, moas[:1], nil, clock)
	assert.Equal(t, BirthdayToday, b.Type)
	assert.Equal(t, "지수님의 생일을 축하합니다!", b.Title)
	assert.Nil(t, b.MoaID)
}

func TestMainBannerOwnBirthdaySoon(t *testing.T) {
	clock := clockOn(2025, time.June, 1)
	viewer := Viewer{Name: "지수", Birthday: bday(time.June, 5)}

	b := Main(viewer, nil, nil, clock)
	assert.Equal(t, MyInProgress, b.Type)
	assert.Nil(t, b.MoaID, "no event exists yet")

	completed := []Moa{{ID: 4, BannerType: ptr(Completed), Status: models.EventStatusCompleted, IsBirthdayPerson: true}}
	b = Main(viewer, completed, nil, clock)
	assert.Equal(t, Default, b.Type)
}

func TestMainBannerOwnActiveEvent(t *testing.T) {
	clock := clockOn(2025, time.June, 1)
	viewer := Viewer{Name: "지수", Birthday: bday(time.September, 1)}
	moas := []Moa{{ID: 8, BannerType: ptr(MyInProgress), Status: models.EventStatusActive, IsBirthdayPerson: true}}

	b := Main(viewer, moas, nil, clock)
	assert.Equal(t, MyInProgress, b.Type)
	require.NotNil(t, b.MoaID)
	assert.Equal(t, int64(8), *b.MoaID)
}

func TestMainBannerParticipatingPrefersClosestUpcoming(t *testing.T) {
	clock := clockOn(2025, time.June, 1)
	viewer := Viewer{Name: "지수", Birthday: bday(time.December, 1)}
	e1, e2 := int64(21), int64(22)
	upcoming := []Upcoming{{DDay: 5, UserID: 5, EventID: &e1}, {DDay: 2, UserID: 6, EventID: &e2}}
	moas := []Moa{{ID: 30, BannerType: ptr(Participating), Status: models.EventStatusActive}}

	b := Main(viewer, moas, upcoming, clock)
	assert.Equal(t, Participating, b.Type)
	require.NotNil(t, b.MoaID)
	assert.Equal(t, e2, *b.MoaID)

	b = Main(viewer, moas, nil, clock)
	require.NotNil(t, b.MoaID)
	assert.Equal(t, int64(30), *b.MoaID)
}

func TestMainBannerDefault(t *testing.T) {
	b := Main(Viewer{Name: "지수"}, nil, nil, clockOn(2025, time.June, 1))
	assert.Equal(t, Default, b.Type)
	assert.Nil(t, b.MoaID)
}

func TestSubBanners(t *testing.T) {
	moas := []Moa{
		{ID: 1, BannerType: ptr(Participating), BirthdayPersonName: "민호"},
		{ID: 2, BannerType: ptr(Balance)},
		{ID: 3, BannerType: ptr(Certification)},
		{ID: 4},
	}

	subs := Sub(moas)
	require.Len(t, subs, 2)
	assert.Equal(t, "민호님의 모아모아 참여 중", subs[0].Title)
	assert.Equal(t, Certification, subs[1].Type)
	assert.Equal(t, int64(3), *subs[1].MoaID)

	assert.NotNil(t, Sub(nil))
}
