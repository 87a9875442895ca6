package service

import (
	"context"
	"fmt"

	"github.com/Kerhoff/moamoa/internal/apperr"
	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/settlement"
)

// Selection is the owner's committed item set after a replace.
type Selection struct {
	WishlistIDs         []int64 `json:"wishlistIds"`
	TotalSelectedAmount int64   `json:"totalSelectedAmount"`
	CurrentAmount       int64   `json:"currentAmount"`
	RemainingAmount     int64   `json:"remainingAmount"`
}

// BudgetCheck is a dry run of a selection against the pool.
type BudgetCheck struct {
	settlement.Budget
	SelectedItems []*models.Wishlist `json:"selectedItems"`
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// ownedWishlists resolves ids against ownerID's wishlist. Any unknown id
// rejects the whole batch. With publicOnly, private items count as unknown.
func (s *Service) ownedWishlists(ctx context.Context, ownerID int64, ids []int64, publicOnly bool) ([]*models.Wishlist, error) {
	all, err := s.Wishlists.ListAllByUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlists: %w", err)
	}
	byID := make(map[int64]*models.Wishlist, len(all))
	for _, w := range all {
		if publicOnly && !w.IsPublic {
			continue
		}
		byID[w.ID] = w
	}

	out := make([]*models.Wishlist, 0, len(ids))
	var missing []int64
	for _, id := range ids {
		w, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, w)
	}
	if len(missing) > 0 {
		return nil, apperr.Validation("WISHLIST_NOT_FOUND", "위시리스트를 찾을 수 없습니다").
			WithData(map[string][]int64{"wishlistIds": missing})
	}
	return out, nil
}

func prices(ws []*models.Wishlist) []int64 {
	out := make([]int64, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Price)
	}
	return out
}

// SelectWishlistItems replaces the selected set of the owner's current event.
func (s *Service) SelectWishlistItems(ctx context.Context, ownerID int64, ids []int64) (*Selection, error) {
	event, err := s.activeOrLatest(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	processed, err := s.Dispositions.IsProcessed(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check disposition: %w", err)
	}
	if processed {
		return nil, alreadyProcessed()
	}
	ids = dedupe(ids)
	items, err := s.ownedWishlists(ctx, ownerID, ids, false)
	if err != nil {
		return nil, err
	}

	if err := s.Selections.Replace(ctx, event.ID, ids); err != nil {
		return nil, fmt.Errorf("failed to replace selection: %w", err)
	}

	amounts, err := s.amounts(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	budget := settlement.ConfirmBudget(amounts.CurrentAmount, prices(items))
	remaining := settlement.Remaining(budget.CurrentAmount, budget.TotalSelectedAmount)
	if event.IsCompleted() {
		if err := s.Events.SetNeedBalance(ctx, event.ID, remaining > 0); err != nil {
			return nil, err
		}
	}

	s.logger.WithField("event_id", event.ID).Infof("Selected %d wishlist items", len(ids))
	return &Selection{
		WishlistIDs:         ids,
		TotalSelectedAmount: budget.TotalSelectedAmount,
		CurrentAmount:       budget.CurrentAmount,
		RemainingAmount:     remaining,
	}, nil
}

// ConfirmBudget checks a candidate selection without saving it.
func (s *Service) ConfirmBudget(ctx context.Context, ownerID int64, ids []int64) (*BudgetCheck, error) {
	event, err := s.activeOrLatest(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	items, err := s.ownedWishlists(ctx, ownerID, dedupe(ids), false)
	if err != nil {
		return nil, err
	}
	amounts, err := s.amounts(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	return &BudgetCheck{
		Budget:        settlement.ConfirmBudget(amounts.CurrentAmount, prices(items)),
		SelectedItems: items,
	}, nil
}
