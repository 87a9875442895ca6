package service

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/moamoa/internal/apperr"
	"github.com/Kerhoff/moamoa/internal/dday"
	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/settlement"
)

// at returns a service over the fixture's data whose clock reads now.
func (f *fixture) at(now time.Time) *Service {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(logger, dday.Fixed(now, kst), f.db.repos(), Integrations{Notifier: f.rec})
}

func (f *fixture) notificationsFor(userID int64, kind models.NotificationKind) []*models.Notification {
	var out []*models.Notification
	for _, n := range f.db.notifications {
		if n.UserID == userID && n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func TestEventLifecycle(t *testing.T) {
	f := newFixture(t)
	f.user(1, "owner", time.March, 12)
	f.user(2, "a", time.May, 1)
	f.user(3, "b", time.May, 2)
	f.follow(2, 1)
	f.follow(3, 1)
	f.wish(100, 1, 10000)

	n, err := f.svc.CreateUpcomingEvents(f.ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	event, err := f.db.repos().Events.GetActiveByPerson(f.ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, event)

	_, err = f.svc.Participate(f.ctx, 2, event.ID, ParticipateInput{ParticipationType: models.ParticipationWithMoney, Amount: 20000})
	require.NoError(t, err)
	_, err = f.svc.Participate(f.ctx, 3, event.ID, ParticipateInput{ParticipationType: models.ParticipationWithMoney, Amount: 10000})
	require.NoError(t, err)
	_, err = f.svc.SelectWishlistItems(f.ctx, 1, []int64{100})
	require.NoError(t, err)

	// Nothing closes before the deadline has passed.
	closed, err := f.svc.CompleteExpiredEvents(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, closed)
	_, err = f.svc.EventStatus(f.ctx, 1)
	requireAppErr(t, err, apperr.KindNotFound, "COMPLETED_EVENT_NOT_FOUND")

	later := f.at(time.Date(2025, 3, 13, 0, 5, 0, 0, kst))
	closed, err = later.CompleteExpiredEvents(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)
	assert.Equal(t, models.EventStatusCompleted, event.Status)
	assert.True(t, event.NeedBalance)
	assert.True(t, event.NeedCertification)

	closed, err = later.CompleteExpiredEvents(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, closed)

	owner := f.notificationsFor(1, models.NotificationMoaCompleted)
	require.Len(t, owner, 1)
	assert.Equal(t, "생일 모아가 완료되었어요! 총 30,000원이 모였습니다!", owner[0].Body)
	for _, id := range []int64{2, 3} {
		got := f.notificationsFor(id, models.NotificationEventCompleted)
		require.Len(t, got, 1)
		assert.Equal(t, "owner님의 생일 모아 이벤트가 종료되었습니다!", got[0].Body)
		require.NotNil(t, got[0].EventID)
		assert.Equal(t, event.ID, *got[0].EventID)
	}

	st, err := later.EventStatus(f.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, event.ID, st.EventID)
	assert.Equal(t, int64(20000), st.RemainingAmount)
	assert.Equal(t, settlement.StatusHasRemaining, st.Status)

	_, err = later.Participate(f.ctx, 3, event.ID, ParticipateInput{ParticipationType: models.ParticipationWithoutMoney})
	requireAppErr(t, err, apperr.KindValidation, "EVENT_CLOSED")

	res, err := later.Donate(f.ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), res.DonatedAmount)
	assert.False(t, event.NeedBalance)

	_, err = later.SelectWishlistItems(f.ctx, 1, nil)
	requireAppErr(t, err, apperr.KindValidation, "ALREADY_PROCESSED")
	assert.Equal(t, []int64{100}, f.db.selections[event.ID])

	// 2 announcements, 2 participations, 3 completion messages.
	for i := 0; i < 7; i++ {
		f.waitPush(t)
	}
	f.rec.mu.Lock()
	defer f.rec.mu.Unlock()
	var titles []string
	for _, m := range f.rec.sent {
		if m.UserID == 1 {
			titles = append(titles, m.Title)
		}
	}
	assert.Contains(t, titles, "모아 완료!")
}

func TestCompleteMyEvent(t *testing.T) {
	f := newFixture(t)
	f.user(1, "owner", time.March, 20)
	f.user(2, "a", time.May, 1)
	e := f.event(10, 1, models.EventStatusActive, day(time.March, 20))
	f.join(10, 2, 15000)

	st, err := f.svc.CompleteMyEvent(f.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), st.EventID)
	assert.Equal(t, int64(15000), st.RemainingAmount)
	assert.Equal(t, models.EventStatusCompleted, e.Status)
	assert.True(t, e.NeedBalance)
	assert.True(t, e.NeedCertification)
	require.Len(t, f.notificationsFor(2, models.NotificationEventCompleted), 1)
	f.waitPush(t)
	f.waitPush(t)

	_, err = f.svc.CompleteMyEvent(f.ctx, 1)
	requireAppErr(t, err, apperr.KindNotFound, "ACTIVE_EVENT_NOT_FOUND")
	_, err = f.svc.CompleteMyEvent(f.ctx, 2)
	requireAppErr(t, err, apperr.KindNotFound, "ACTIVE_EVENT_NOT_FOUND")
}

func TestCompleteWithoutParticipants(t *testing.T) {
	f := newFixture(t)
	f.user(1, "owner", time.March, 1)
	e := f.event(10, 1, models.EventStatusActive, day(time.March, 1))

	closed, err := f.svc.CompleteExpiredEvents(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)
	assert.False(t, e.NeedBalance)
	assert.False(t, e.NeedCertification)
	require.Len(t, f.notificationsFor(1, models.NotificationMoaCompleted), 1)
}

func TestSelectionOnCompletedEventTracksBalance(t *testing.T) {
	f := completedFixture(t)
	f.wish(101, 1, 20000)
	e := f.db.events[10]
	e.NeedBalance = true

	sel, err := f.svc.SelectWishlistItems(f.ctx, 1, []int64{100, 101})
	require.NoError(t, err)
	assert.Zero(t, sel.RemainingAmount)
	assert.False(t, e.NeedBalance)

	_, err = f.svc.SelectWishlistItems(f.ctx, 1, []int64{100})
	require.NoError(t, err)
	assert.True(t, e.NeedBalance)
}
