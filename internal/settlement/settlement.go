// Package settlement holds the money arithmetic of a birthday event: vote
// tallies, budget checks against the pooled amount and the disposition of
// what is left over.
package settlement

import (
	"sort"

	"github.com/Kerhoff/moamoa/internal/apperr"
	"github.com/Kerhoff/moamoa/internal/models"
)

const (
	// MinConvertUnit is the smallest amount that converts into coins.
	MinConvertUnit = 100
	// coinRateNumerator / coinRateDenominator is 1.2 coins per 1000 won.
	coinRateNumerator   = 12
	coinRateDenominator = 10000
)

// VoteResult is one wishlist item's tally.
type VoteResult struct {
	Wishlist  *models.Wishlist `json:"wishlist"`
	VoteCount int              `json:"voteCount"`
	UserVoted bool             `json:"userVoted"`
}

// TallyVotes counts distinct voters per wishlist item. Every wishlist appears
// even without votes. Results are ordered by count desc, then id asc.
func TallyVotes(wishlists []*models.Wishlist, votes []*models.WishlistVote, viewerID int64) []VoteResult {
	voters := make(map[int64]map[int64]struct{}, len(wishlists))
	for _, v := range votes {
		set, ok := voters[v.WishlistID]
		if !ok {
			set = make(map[int64]struct{})
			voters[v.WishlistID] = set
		}
		set[v.UserID] = struct{}{}
	}

	results := make([]VoteResult, 0, len(wishlists))
	for _, w := range wishlists {
		set := voters[w.ID]
		_, voted := set[viewerID]
		results = append(results, VoteResult{Wishlist: w, VoteCount: len(set), UserVoted: voted})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].VoteCount != results[j].VoteCount {
			return results[i].VoteCount > results[j].VoteCount
		}
		return results[i].Wishlist.ID < results[j].Wishlist.ID
	})
	return results
}

// Budget is the outcome of checking a candidate selection against the pool.
type Budget struct {
	TotalSelectedAmount int64 `json:"totalSelectedAmount"`
	CurrentAmount       int64 `json:"currentAmount"`
	IsOverBudget        bool  `json:"isOverBudget"`
	ShortfallAmount     int64 `json:"shortfallAmount"`
	RemainingAmount     int64 `json:"remainingAmount"`
}

// ConfirmBudget compares the summed prices with the collected amount.
func ConfirmBudget(currentAmount int64, prices []int64) Budget {
	var total int64
	for _, p := range prices {
		total += p
	}
	b := Budget{TotalSelectedAmount: total, CurrentAmount: currentAmount}
	if total > currentAmount {
		b.IsOverBudget = true
		b.ShortfallAmount = total - currentAmount
	} else {
		b.RemainingAmount = currentAmount - total
	}
	return b
}

// Remaining is the leftover after the selected items, never negative.
func Remaining(currentAmount, selectedAmount int64) int64 {
	if currentAmount <= selectedAmount {
		return 0
	}
	return currentAmount - selectedAmount
}

// Status labels a completed event's leftover state.
type Status string

const (
	StatusExactMatch   Status = "EXACT_MATCH"
	StatusHasRemaining Status = "HAS_REMAINING"
)

func StatusOf(remaining int64) Status {
	if remaining == 0 {
		return StatusExactMatch
	}
	return StatusHasRemaining
}

// Conversion is the coin amount a leftover turns into.
type Conversion struct {
	RemainingAmount   int64 `json:"remainingAmount"`
	ConvertibleAmount int64 `json:"convertedAmount"`
	Coins             int64 `json:"convertedCoins"`
}

// ConvertCoins floors the leftover to the 100 won unit, then rounds the
// 1.2-per-1000 coin amount up.
func ConvertCoins(remaining int64) (Conversion, error) {
	if remaining <= 0 {
		return Conversion{}, apperr.Validation("NO_REMAINING_AMOUNT", "전환할 남은 금액이 없습니다")
	}
	if remaining < MinConvertUnit {
		return Conversion{}, apperr.Validation("BELOW_MINIMUM_UNIT", "최소 전환 단위는 %d원입니다", MinConvertUnit)
	}
	convertible := remaining / MinConvertUnit * MinConvertUnit
	coins := (convertible*coinRateNumerator + coinRateDenominator - 1) / coinRateDenominator
	return Conversion{RemainingAmount: remaining, ConvertibleAmount: convertible, Coins: coins}, nil
}

var organizations = []models.Organization{
	{ID: 1, Name: "굿네이버스", Description: "국내외 아동 권리 보호와 빈곤 아동 지원"},
	{ID: 2, Name: "세이브 더 칠드런", Description: "아동의 생존과 보호, 발달을 위한 국제 구호"},
	{ID: 3, Name: "유니세프", Description: "전 세계 어린이를 위한 유엔 기구"},
}

// Organizations lists the donation recipients.
func Organizations() []models.Organization {
	return append([]models.Organization(nil), organizations...)
}

// Organization looks up a recipient by id.
func Organization(id int64) (models.Organization, bool) {
	for _, o := range organizations {
		if o.ID == id {
			return o, true
		}
	}
	return models.Organization{}, false
}
