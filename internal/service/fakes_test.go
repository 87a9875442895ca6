package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/notify"
	"github.com/Kerhoff/moamoa/internal/pagination"
	"github.com/Kerhoff/moamoa/internal/repository"
)

// memDB is an in-memory stand-in for the postgres repositories.
type memDB struct {
	mu            sync.Mutex
	nextID        int64
	users         map[int64]*models.User
	follows       map[[2]int64]bool
	events        map[int64]*models.BirthdayEvent
	participants  []*models.Participant
	wishlists     map[int64]*models.Wishlist
	votes         []*models.WishlistVote
	selections    map[int64][]int64
	letters       map[int64]*models.Letter
	history       map[int64]*models.SearchHistory
	processed     map[int64]models.ProcessType
	donations     []*models.Donation
	conversions   []*models.CoinConversion
	notifications []*models.Notification
	proofs        map[int64]*models.PurchaseProof
	shares        map[string]*models.ShareToken
}

func newMemDB() *memDB {
	return &memDB{
		nextID:     1000,
		users:      map[int64]*models.User{},
		follows:    map[[2]int64]bool{},
		events:     map[int64]*models.BirthdayEvent{},
		wishlists:  map[int64]*models.Wishlist{},
		selections: map[int64][]int64{},
		letters:    map[int64]*models.Letter{},
		history:    map[int64]*models.SearchHistory{},
		processed:  map[int64]models.ProcessType{},
		proofs:     map[int64]*models.PurchaseProof{},
		shares:     map[string]*models.ShareToken{},
	}
}

func (m *memDB) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memDB) repos() Repositories {
	return Repositories{
		Users:         memUsers{m},
		Follows:       memFollows{m},
		Events:        memEvents{m},
		Participants:  memParticipants{m},
		Wishlists:     memWishlists{m},
		Votes:         memVotes{m},
		Selections:    memSelections{m},
		Letters:       memLetters{m},
		SearchHistory: memHistory{m},
		Dispositions:  memDispositions{m},
		Notifications: memNotifications{m},
		Proofs:        memProofs{m},
		ShareTokens:   memShares{m},
	}
}

// keysetPage applies a (created_at, id) window to rows sorted newest first.
func keysetPage[T any](rows []T, at func(T) (time.Time, int64), f repository.CursorFilters) []T {
	sort.SliceStable(rows, func(i, j int) bool {
		ti, ii := at(rows[i])
		tj, ij := at(rows[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return ii > ij
	})
	if f.Direction == pagination.Prev {
		var out []T
		for i := len(rows) - 1; i >= 0 && len(out) < f.Limit; i-- {
			t, id := at(rows[i])
			if f.Cursor == nil || t.After(f.Cursor.CreatedAt) || (t.Equal(f.Cursor.CreatedAt) && id > f.Cursor.ID) {
				out = append(out, rows[i])
			}
		}
		return out
	}
	var out []T
	for _, r := range rows {
		if len(out) >= f.Limit {
			break
		}
		t, id := at(r)
		if f.Cursor == nil || t.Before(f.Cursor.CreatedAt) || (t.Equal(f.Cursor.CreatedAt) && id < f.Cursor.ID) {
			out = append(out, r)
		}
	}
	return out
}

type memUsers struct{ m *memDB }

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if u.ID == 0 {
		u.ID = r.m.id()
	}
	r.m.users[u.ID] = u
	return u, nil
}

func (r memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.users[id], nil
}

func (r memUsers) GetByIDs(_ context.Context, ids []int64) (map[int64]*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := map[int64]*models.User{}
	for _, id := range ids {
		if u, ok := r.m.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (r memUsers) GetByTelegramChatID(_ context.Context, chatID int64) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.TelegramChatID != nil && *u.TelegramChatID == chatID {
			return u, nil
		}
	}
	return nil, nil
}

func (r memUsers) ListBatch(_ context.Context, afterID int64, limit int) ([]*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.User
	for _, u := range r.m.users {
		if u.ID > afterID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memUsers) Search(_ context.Context, viewerID int64, term string, limit, offset int) ([]*models.User, int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	term = strings.ToLower(term)
	var hits []*models.User
	for _, u := range r.m.users {
		if u.ID == viewerID {
			continue
		}
		if strings.Contains(strings.ToLower(u.Name), term) || strings.Contains(strings.ToLower(u.Handle), term) {
			hits = append(hits, u)
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Name != hits[j].Name {
			return hits[i].Name < hits[j].Name
		}
		return hits[i].ID < hits[j].ID
	})
	total := len(hits)
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return hits[offset:end], total, nil
}

func (r memUsers) UpdateTelegramChatID(_ context.Context, userID int64, chatID *int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if u, ok := r.m.users[userID]; ok {
		u.TelegramChatID = chatID
	}
	return nil
}

type memFollows struct{ m *memDB }

func (r memFollows) Follow(_ context.Context, a, b int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.follows[[2]int64{a, b}] = true
	return nil
}

func (r memFollows) Unfollow(_ context.Context, a, b int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.follows, [2]int64{a, b})
	return nil
}

func (r memFollows) IsFollowing(_ context.Context, a, b int64) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.follows[[2]int64{a, b}], nil
}

func (r memFollows) FollowingIDs(_ context.Context, a int64) ([]int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var ids []int64
	for k := range r.m.follows {
		if k[0] == a {
			ids = append(ids, k[1])
		}
	}
	return ids, nil
}

func (r memFollows) FollowerIDs(_ context.Context, b int64) ([]int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var ids []int64
	for k := range r.m.follows {
		if k[1] == b {
			ids = append(ids, k[0])
		}
	}
	return ids, nil
}

type memEvents struct{ m *memDB }

func (r memEvents) Create(_ context.Context, e *models.BirthdayEvent) (*models.BirthdayEvent, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if e.Status == models.EventStatusActive {
		for _, other := range r.m.events {
			if other.BirthdayPersonID == e.BirthdayPersonID && other.IsActive() {
				return nil, repository.ErrDuplicate
			}
		}
	}
	if e.ID == 0 {
		e.ID = r.m.id()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(e.ID) * time.Minute)
	}
	r.m.events[e.ID] = e
	return e, nil
}

func (r memEvents) GetByID(_ context.Context, id int64) (*models.BirthdayEvent, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.events[id], nil
}

func (r memEvents) GetActiveByPerson(_ context.Context, personID int64) (*models.BirthdayEvent, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, e := range r.m.events {
		if e.BirthdayPersonID == personID && e.IsActive() {
			return e, nil
		}
	}
	return nil, nil
}

func (r memEvents) GetLatestCompletedByPerson(_ context.Context, personID int64) (*models.BirthdayEvent, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var latest *models.BirthdayEvent
	for _, e := range r.m.events {
		if e.BirthdayPersonID == personID && e.IsCompleted() && (latest == nil || e.CreatedAt.After(latest.CreatedAt)) {
			latest = e
		}
	}
	return latest, nil
}

func (r memEvents) ActiveByPersons(_ context.Context, ids []int64) (map[int64]*models.BirthdayEvent, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := map[int64]*models.BirthdayEvent{}
	for _, e := range r.m.events {
		if want[e.BirthdayPersonID] && e.IsActive() {
			out[e.BirthdayPersonID] = e
		}
	}
	return out, nil
}

func eventAt(e *models.BirthdayEvent) (time.Time, int64) { return e.CreatedAt, e.ID }

func (r memEvents) ListMoas(_ context.Context, f repository.MoaFilters) ([]*models.BirthdayEvent, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var rows []*models.BirthdayEvent
	for _, e := range r.m.events {
		if e.Status == models.EventStatusCancelled {
			continue
		}
		if e.BirthdayPersonID == f.ViewerID || r.m.follows[[2]int64{f.ViewerID, e.BirthdayPersonID}] {
			rows = append(rows, e)
		}
	}
	return keysetPage(rows, eventAt, f.CursorFilters), nil
}

func (r memEvents) ListBannerMoas(_ context.Context, viewerID int64) ([]*models.BirthdayEvent, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var rows []*models.BirthdayEvent
	for _, e := range r.m.events {
		own := e.BirthdayPersonID == viewerID && e.Status != models.EventStatusCancelled
		if own || (e.IsActive() && r.m.joined(e.ID, viewerID)) {
			rows = append(rows, e)
		}
	}
	return keysetPage(rows, eventAt, repository.CursorFilters{Limit: 50}), nil
}

func (r memEvents) Amounts(_ context.Context, ids []int64) (map[int64]models.EventAmounts, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := map[int64]models.EventAmounts{}
	for _, id := range ids {
		var a models.EventAmounts
		for _, p := range r.m.participants {
			if p.EventID == id {
				a.CurrentAmount += p.Amount
				a.ParticipantCount++
			}
		}
		for _, wid := range r.m.selections[id] {
			if w, ok := r.m.wishlists[wid]; ok {
				a.SelectedAmount += w.Price
			}
		}
		out[id] = a
	}
	return out, nil
}

func (r memEvents) ListActiveDue(_ context.Context, day time.Time, limit int) ([]*models.BirthdayEvent, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.BirthdayEvent
	for _, e := range r.m.events {
		if e.IsActive() && e.Deadline.Before(day) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Deadline.Equal(out[j].Deadline) {
			return out[i].Deadline.Before(out[j].Deadline)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memEvents) Complete(_ context.Context, id int64, c models.Completion) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	e, ok := r.m.events[id]
	if !ok || !e.IsActive() {
		return false, nil
	}
	e.Status = models.EventStatusCompleted
	e.NeedBalance = c.NeedBalance
	e.NeedCertification = c.NeedCertification
	return true, nil
}

func (r memEvents) SetNeedBalance(_ context.Context, id int64, need bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if e, ok := r.m.events[id]; ok {
		e.NeedBalance = need
	}
	return nil
}

func (m *memDB) joined(eventID, userID int64) bool {
	for _, p := range m.participants {
		if p.EventID == eventID && p.UserID == userID {
			return true
		}
	}
	return false
}

type memParticipants struct{ m *memDB }

func (r memParticipants) Get(_ context.Context, eventID, userID int64) (*models.Participant, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, p := range r.m.participants {
		if p.EventID == eventID && p.UserID == userID {
			return p, nil
		}
	}
	return nil, nil
}

func (r memParticipants) ListByEvent(_ context.Context, eventID int64) ([]*models.Participant, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Participant
	for _, p := range r.m.participants {
		if p.EventID == eventID {
			cp := *p
			cp.User = r.m.users[p.UserID]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memParticipants) JoinedEventIDs(_ context.Context, userID int64, ids []int64) (map[int64]bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := map[int64]bool{}
	for _, id := range ids {
		if r.m.joined(id, userID) {
			out[id] = true
		}
	}
	return out, nil
}

func (r memParticipants) Create(_ context.Context, p *models.Participant, n *models.Notification) (*models.Participant, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.joined(p.EventID, p.UserID) {
		return nil, repository.ErrDuplicate
	}
	r.m.participants = append(r.m.participants, p)
	if n != nil {
		n.ID = r.m.id()
		r.m.notifications = append(r.m.notifications, n)
	}
	return p, nil
}

type memWishlists struct{ m *memDB }

func (r memWishlists) Create(_ context.Context, w *models.Wishlist) (*models.Wishlist, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	w.ID = r.m.id()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(w.ID) * time.Minute)
	}
	r.m.wishlists[w.ID] = w
	return w, nil
}

func (r memWishlists) GetByID(_ context.Context, id int64) (*models.Wishlist, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.wishlists[id], nil
}

func (r memWishlists) owned(userID int64) []*models.Wishlist {
	var out []*models.Wishlist
	for _, w := range r.m.wishlists {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out
}

func (r memWishlists) ListByUser(_ context.Context, userID int64, f repository.CursorFilters) ([]*models.Wishlist, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return keysetPage(r.owned(userID), func(w *models.Wishlist) (time.Time, int64) { return w.CreatedAt, w.ID }, f), nil
}

func (r memWishlists) ListAllByUser(_ context.Context, userID int64) ([]*models.Wishlist, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return keysetPage(r.owned(userID), func(w *models.Wishlist) (time.Time, int64) { return w.CreatedAt, w.ID },
		repository.CursorFilters{Limit: 1 << 20}), nil
}

func (r memWishlists) Update(_ context.Context, w *models.Wishlist) (*models.Wishlist, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.wishlists[w.ID] = w
	return w, nil
}

func (r memWishlists) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.wishlists, id)
	return nil
}

type memVotes struct{ m *memDB }

func (r memVotes) ListByEvent(_ context.Context, eventID int64) ([]*models.WishlistVote, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.WishlistVote
	for _, v := range r.m.votes {
		if v.EventID == eventID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r memVotes) Replace(_ context.Context, eventID, userID int64, ids []int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	kept := r.m.votes[:0]
	for _, v := range r.m.votes {
		if !(v.EventID == eventID && v.UserID == userID) {
			kept = append(kept, v)
		}
	}
	r.m.votes = kept
	for _, id := range ids {
		r.m.votes = append(r.m.votes, &models.WishlistVote{EventID: eventID, WishlistID: id, UserID: userID})
	}
	return nil
}

type memSelections struct{ m *memDB }

func (r memSelections) ListWishlistIDs(_ context.Context, eventID int64) ([]int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return append([]int64(nil), r.m.selections[eventID]...), nil
}

func (r memSelections) Replace(_ context.Context, eventID int64, ids []int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.selections[eventID] = append([]int64(nil), ids...)
	return nil
}

type memLetters struct{ m *memDB }

func (r memLetters) Create(_ context.Context, l *models.Letter) (*models.Letter, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, other := range r.m.letters {
		if other.EventID == l.EventID && other.SenderID == l.SenderID {
			return nil, repository.ErrDuplicate
		}
	}
	l.ID = r.m.id()
	r.m.letters[l.ID] = l
	return l, nil
}

func (r memLetters) GetByID(_ context.Context, id int64) (*models.Letter, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.letters[id], nil
}

func (r memLetters) Update(_ context.Context, l *models.Letter) (*models.Letter, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.letters[l.ID] = l
	return l, nil
}

func (r memLetters) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.letters, id)
	return nil
}

func (r memLetters) ListByEvent(_ context.Context, eventID int64) ([]*models.Letter, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Letter
	for _, l := range r.m.letters {
		if l.EventID == eventID {
			cp := *l
			cp.Sender = r.m.users[l.SenderID]
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memLetters) ListHome(_ context.Context, userID int64, today time.Time, f repository.CursorFilters) ([]*repository.HomeLetterRow, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var events []*models.BirthdayEvent
	for _, e := range r.m.events {
		if e.IsActive() && !e.Deadline.Before(today) && r.m.joined(e.ID, userID) {
			events = append(events, e)
		}
	}
	var out []*repository.HomeLetterRow
	for _, e := range keysetPage(events, eventAt, f) {
		row := &repository.HomeLetterRow{Event: e}
		for _, l := range r.m.letters {
			if l.EventID == e.ID && l.SenderID == userID {
				id, at := l.ID, l.UpdatedAt
				row.LetterID, row.LetterUpdatedAt = &id, &at
			}
		}
		out = append(out, row)
	}
	return out, nil
}

type memHistory struct{ m *memDB }

func (r memHistory) Record(_ context.Context, userID int64, term string, keep int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	now := time.Now()
	for _, h := range r.m.history {
		if h.UserID == userID && h.SearchTerm == term {
			h.SearchedAt = now
			return nil
		}
	}
	id := r.m.id()
	r.m.history[id] = &models.SearchHistory{ID: id, UserID: userID, SearchTerm: term, SearchedAt: now}
	return nil
}

func (r memHistory) List(_ context.Context, userID int64, limit int) ([]*models.SearchHistory, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.SearchHistory
	for _, h := range r.m.history {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memHistory) GetByID(_ context.Context, id int64) (*models.SearchHistory, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.history[id], nil
}

func (r memHistory) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.history, id)
	return nil
}

func (r memHistory) DeleteAll(_ context.Context, userID int64) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for id, h := range r.m.history {
		if h.UserID == userID {
			delete(r.m.history, id)
			n++
		}
	}
	return n, nil
}

type memDispositions struct{ m *memDB }

func (r memDispositions) IsProcessed(_ context.Context, eventID int64) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	_, ok := r.m.processed[eventID]
	return ok, nil
}

func (r memDispositions) Donate(_ context.Context, d *models.Donation) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.processed[d.EventID]; ok {
		return repository.ErrDuplicate
	}
	r.m.processed[d.EventID] = models.ProcessDonate
	r.m.settle(d.EventID)
	d.ID = r.m.id()
	r.m.donations = append(r.m.donations, d)
	return nil
}

func (r memDispositions) ConvertToCoins(_ context.Context, c *models.CoinConversion) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.processed[c.EventID]; ok {
		return repository.ErrDuplicate
	}
	r.m.processed[c.EventID] = models.ProcessConvertToCoin
	r.m.settle(c.EventID)
	c.ID = r.m.id()
	r.m.conversions = append(r.m.conversions, c)
	if u, ok := r.m.users[c.UserID]; ok {
		u.Coins += c.Coins
	}
	return nil
}

func (m *memDB) settle(eventID int64) {
	if e, ok := m.events[eventID]; ok {
		e.NeedBalance = false
	}
}

type memNotifications struct{ m *memDB }

func (r memNotifications) Create(_ context.Context, n *models.Notification) (*models.Notification, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n.ID = r.m.id()
	r.m.notifications = append(r.m.notifications, n)
	return n, nil
}

func (r memNotifications) ListByUser(_ context.Context, userID int64, limit int) ([]*models.Notification, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Notification
	for i := len(r.m.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if r.m.notifications[i].UserID == userID {
			out = append(out, r.m.notifications[i])
		}
	}
	return out, nil
}

func (r memNotifications) MarkRead(_ context.Context, id, userID int64) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, n := range r.m.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (r memNotifications) MarkAllRead(_ context.Context, userID int64) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var count int64
	for _, n := range r.m.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

func (r memNotifications) HasUnread(_ context.Context, userID int64) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, n := range r.m.notifications {
		if n.UserID == userID && !n.IsRead {
			return true, nil
		}
	}
	return false, nil
}

type memProofs struct{ m *memDB }

func (r memProofs) Create(_ context.Context, p *models.PurchaseProof, notes []*models.Notification) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.proofs[p.EventID]; ok {
		return repository.ErrDuplicate
	}
	p.ID = r.m.id()
	p.CreatedAt = time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	r.m.proofs[p.EventID] = p
	if e, ok := r.m.events[p.EventID]; ok {
		e.NeedCertification = false
	}
	for _, n := range notes {
		n.ID = r.m.id()
		r.m.notifications = append(r.m.notifications, n)
	}
	return nil
}

func (r memProofs) GetByEvent(_ context.Context, eventID int64) (*models.PurchaseProof, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.proofs[eventID], nil
}

type memShares struct{ m *memDB }

func (r memShares) Create(_ context.Context, t *models.ShareToken, now time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for k, old := range r.m.shares {
		if old.EventID == t.EventID && old.ExpiresAt.Before(now) {
			delete(r.m.shares, k)
		}
	}
	if _, ok := r.m.shares[t.Token]; ok {
		return repository.ErrDuplicate
	}
	t.CreatedAt = now
	r.m.shares[t.Token] = t
	return nil
}

func (r memShares) Get(_ context.Context, token string) (*models.ShareToken, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.shares[token], nil
}

// recorder is a notify.Notifier that remembers what it was asked to send.
type recorder struct {
	mu   sync.Mutex
	sent []notify.Message
	done chan struct{}
}

func newRecorder() *recorder { return &recorder{done: make(chan struct{}, 64)} }

func (r *recorder) Notify(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	r.sent = append(r.sent, msg)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}
