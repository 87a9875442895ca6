package settlement

import (
	"testing"

	"github.com/Kerhoff/moamoa/internal/apperr"
	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTallyVotes(t *testing.T) {
	wishlists := []*models.Wishlist{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}
	votes := []*models.WishlistVote{
		{WishlistID: 3, UserID: 10},
		{WishlistID: 3, UserID: 11},
		{WishlistID: 3, UserID: 11},
		{WishlistID: 2, UserID: 12},
		{WishlistID: 4, UserID: 10},
	}

	results := TallyVotes(wishlists, votes, 10)
	require.Len(t, results, 4)

	var order []int64
	for _, r := range results {
		order = append(order, r.Wishlist.ID)
	}
	assert.Equal(t, []int64{3, 2, 4, 1}, order)
	assert.Equal(t, 2, results[0].VoteCount, "duplicate rows count one voter once")
	assert.True(t, results[0].UserVoted)
	assert.False(t, results[1].UserVoted)
	assert.True(t, results[2].UserVoted)
	assert.Equal(t, 0, results[3].VoteCount)
}

func TestConfirmBudget(t *testing.T) {
	under := ConfirmBudget(80000, []int64{30000, 30000})
	assert.False(t, under.IsOverBudget)
	assert.Equal(t, int64(60000), under.TotalSelectedAmount)
	assert.Equal(t, int64(20000), under.RemainingAmount)
	assert.Zero(t, under.ShortfallAmount)

	exact := ConfirmBudget(80000, []int64{80000})
	assert.False(t, exact.IsOverBudget)
	assert.Zero(t, exact.RemainingAmount)

	over := ConfirmBudget(80000, []int64{50000, 45000})
	assert.True(t, over.IsOverBudget)
	assert.Equal(t, int64(15000), over.ShortfallAmount)
	assert.Zero(t, over.RemainingAmount)
}

func TestRemainingAndStatus(t *testing.T) {
	assert.Equal(t, int64(0), Remaining(80000, 80000))
	assert.Equal(t, StatusExactMatch, StatusOf(Remaining(80000, 80000)))
	assert.Equal(t, int64(20000), Remaining(80000, 60000))
	assert.Equal(t, StatusHasRemaining, StatusOf(20000))
	assert.Equal(t, int64(0), Remaining(50000, 60000))
}

func TestConvertCoins(t *testing.T) {
	cases := []struct {
		remaining   int64
		convertible int64
		coins       int64
	}{
		{20000, 20000, 24},
		{100, 100, 1},
		{199, 100, 1},
		{1000, 1000, 2},
		{12345, 12300, 15},
		{833, 800, 1},
		{5000, 5000, 6},
	}
	for _, tc := range cases {
		got, err := ConvertCoins(tc.remaining)
		require.NoError(t, err)
		assert.Equal(t, tc.convertible, got.ConvertibleAmount, "remaining %d", tc.remaining)
		assert.Equal(t, tc.coins, got.Coins, "remaining %d", tc.remaining)
	}
}

func TestConvertCoinsRejectsSmallAmounts(t *testing.T) {
	_, err := ConvertCoins(0)
	assert.Equal(t, "NO_REMAINING_AMOUNT", apperr.From(err).Code)

	_, err = ConvertCoins(99)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Equal(t, "BELOW_MINIMUM_UNIT", apperr.From(err).Code)
}

func TestOrganizations(t *testing.T) {
	orgs := Organizations()
	require.Len(t, orgs, 3)
	orgs[0].Name = "changed"

	o, ok := Organization(1)
	require.True(t, ok)
	assert.Equal(t, "굿네이버스", o.Name)

	_, ok = Organization(99)
	assert.False(t, ok)
}
