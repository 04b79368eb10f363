package items

import (
	"errors"
	"sort"

	"github.com/zenopia/favely/pkg/favely/models"
)

var (
	// ErrRankTaken is returned when an explicit rank collides with an
	// existing item
	ErrRankTaken = errors.New("rank already taken")
	// ErrRankNotFound is returned when no item carries the given rank
	ErrRankNotFound = errors.New("no item with that rank")
	// ErrBadPermutation is returned when a reorder is not a permutation of
	// the existing ranks
	ErrBadPermutation = errors.New("order must be a permutation of the existing ranks")
)

// maxRank returns the highest rank in use
func maxRank(items []models.ListItem) int {
	max := 0
	for _, it := range items {
		if it.Rank > max {
			max = it.Rank
		}
	}
	return max
}

// insertItem appends an item. A zero rank means "after the last item";
// an explicit rank must be free and within one past the current maximum.
func insertItem(items []models.ListItem, item models.ListItem) ([]models.ListItem, error) {
	max := maxRank(items)
	if item.Rank == 0 {
		item.Rank = max + 1
	} else {
		if item.Rank < 1 || item.Rank > max+1 {
			return nil, ErrBadPermutation
		}
		for _, it := range items {
			if it.Rank == item.Rank {
				return nil, ErrRankTaken
			}
		}
	}
	return append(items, item), nil
}

// removeItem deletes the item with the given rank and closes the gap so
// ranks stay contiguous.
func removeItem(items []models.ListItem, rank int) ([]models.ListItem, error) {
	found := false
	out := make([]models.ListItem, 0, len(items))
	for _, it := range items {
		if it.Rank == rank {
			found = true
			continue
		}
		if it.Rank > rank {
			it.Rank--
		}
		out = append(out, it)
	}
	if !found {
		return nil, ErrRankNotFound
	}
	return out, nil
}

// reorderItems applies a full permutation: order lists the current ranks in
// their new display order, so order[0] becomes rank 1 and so on.
func reorderItems(items []models.ListItem, order []int) ([]models.ListItem, error) {
	if len(order) != len(items) {
		return nil, ErrBadPermutation
	}

	byRank := make(map[int]models.ListItem, len(items))
	for _, it := range items {
		byRank[it.Rank] = it
	}

	seen := make(map[int]bool, len(order))
	out := make([]models.ListItem, 0, len(items))
	for newRank, oldRank := range order {
		it, ok := byRank[oldRank]
		if !ok || seen[oldRank] {
			return nil, ErrBadPermutation
		}
		seen[oldRank] = true
		it.Rank = newRank + 1
		out = append(out, it)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out, nil
}
