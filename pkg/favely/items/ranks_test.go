package items

import (
	"errors"
	"testing"

	"github.com/zenopia/favely/pkg/favely/models"
)

func rankedItems(titles ...string) []models.ListItem {
	items := make([]models.ListItem, len(titles))
	for i, title := range titles {
		items[i] = models.ListItem{Title: title, Rank: i + 1}
	}
	return items
}

func ranks(items []models.ListItem) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.Rank
	}
	return out
}

func TestInsertItemDefaultsToLast(t *testing.T) {
	items := rankedItems("first", "second")

	out, err := insertItem(items, models.ListItem{Title: "third"})
	if err != nil {
		t.Fatalf("insertItem failed: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(out))
	}
	if out[2].Rank != 3 {
		t.Errorf("Expected new item at rank 3, got %d", out[2].Rank)
	}
}

func TestInsertItemIntoEmptyList(t *testing.T) {
	out, err := insertItem(nil, models.ListItem{Title: "only"})
	if err != nil {
		t.Fatalf("insertItem failed: %v", err)
	}
	if out[0].Rank != 1 {
		t.Errorf("Expected rank 1, got %d", out[0].Rank)
	}
}

func TestInsertItemExplicitRank(t *testing.T) {
	items := rankedItems("first", "second")

	out, err := insertItem(items, models.ListItem{Title: "third", Rank: 3})
	if err != nil {
		t.Fatalf("insertItem failed: %v", err)
	}
	if out[2].Rank != 3 {
		t.Errorf("Expected rank 3, got %d", out[2].Rank)
	}
}

func TestInsertItemRankTaken(t *testing.T) {
	items := rankedItems("first", "second")

	_, err := insertItem(items, models.ListItem{Title: "usurper", Rank: 1})
	if !errors.Is(err, ErrRankTaken) {
		t.Errorf("Expected ErrRankTaken, got %v", err)
	}
}

func TestInsertItemRankOutOfRange(t *testing.T) {
	items := rankedItems("first", "second")

	if _, err := insertItem(items, models.ListItem{Title: "far", Rank: 5}); !errors.Is(err, ErrBadPermutation) {
		t.Errorf("Expected ErrBadPermutation for rank past the end, got %v", err)
	}
	if _, err := insertItem(items, models.ListItem{Title: "neg", Rank: -1}); !errors.Is(err, ErrBadPermutation) {
		t.Errorf("Expected ErrBadPermutation for negative rank, got %v", err)
	}
}

func TestRemoveItemClosesGap(t *testing.T) {
	items := rankedItems("first", "second", "third")

	out, err := removeItem(items, 2)
	if err != nil {
		t.Fatalf("removeItem failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(out))
	}
	if out[0].Title != "first" || out[0].Rank != 1 {
		t.Errorf("Unexpected first item: %+v", out[0])
	}
	if out[1].Title != "third" || out[1].Rank != 2 {
		t.Errorf("Expected third to move up to rank 2, got %+v", out[1])
	}
}

func TestRemoveItemNotFound(t *testing.T) {
	items := rankedItems("first")

	_, err := removeItem(items, 9)
	if !errors.Is(err, ErrRankNotFound) {
		t.Errorf("Expected ErrRankNotFound, got %v", err)
	}
}

func TestReorderItems(t *testing.T) {
	items := rankedItems("a", "b", "c")

	// Display c first, then a, then b
	out, err := reorderItems(items, []int{3, 1, 2})
	if err != nil {
		t.Fatalf("reorderItems failed: %v", err)
	}

	want := []string{"c", "a", "b"}
	for i, title := range want {
		if out[i].Title != title {
			t.Errorf("Position %d: expected %s, got %s", i, title, out[i].Title)
		}
		if out[i].Rank != i+1 {
			t.Errorf("Position %d: expected rank %d, got %d", i, i+1, out[i].Rank)
		}
	}
}

func TestReorderItemsRejectsBadPermutations(t *testing.T) {
	items := rankedItems("a", "b", "c")

	cases := []struct {
		name  string
		order []int
	}{
		{"too short", []int{1, 2}},
		{"too long", []int{1, 2, 3, 4}},
		{"duplicate rank", []int{1, 1, 2}},
		{"unknown rank", []int{1, 2, 9}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := reorderItems(items, tc.order); !errors.Is(err, ErrBadPermutation) {
				t.Errorf("Expected ErrBadPermutation, got %v", err)
			}
		})
	}
}

func TestReorderItemsIdentity(t *testing.T) {
	items := rankedItems("a", "b", "c")

	out, err := reorderItems(items, []int{1, 2, 3})
	if err != nil {
		t.Fatalf("reorderItems failed: %v", err)
	}
	got := ranks(out)
	for i, r := range got {
		if r != i+1 {
			t.Errorf("Expected contiguous ranks, got %v", got)
			break
		}
	}
}
