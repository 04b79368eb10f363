package lists

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/zenopia/favely/pkg/favely/models"
	"github.com/zenopia/favely/pkg/favely/permissions"
	"github.com/zenopia/favely/pkg/favely/store"
)

// OwnerInfo is the display-ready owner block on an enriched list
type OwnerInfo struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
}

// ListResponse is the display-ready list shape returned by the API
type ListResponse struct {
	ID            string                `json:"id"`
	Title         string                `json:"title"`
	Description   string                `json:"description,omitempty"`
	Category      models.Category       `json:"category"`
	Privacy       models.Privacy        `json:"privacy"`
	Items         []models.ListItem     `json:"items"`
	ItemCount     int                   `json:"item_count"`
	Owner         OwnerInfo             `json:"owner"`
	Collaborators []models.Collaborator `json:"collaborators,omitempty"`
	Stats         models.ListStats      `json:"stats"`
	IsPinned      bool                  `json:"is_pinned"`
	HasUpdate     bool                  `json:"has_update"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	LastEditedAt  time.Time             `json:"last_edited_at"`
}

// Enricher joins list documents with owner profiles and the viewer's pin
// state to produce display-ready lists.
type Enricher struct {
	users *store.UserStore
	pins  *store.PinStore
}

// NewEnricher creates an enricher over the given stores
func NewEnricher(users *store.UserStore, pins *store.PinStore) *Enricher {
	return &Enricher{users: users, pins: pins}
}

// Enrich produces display-ready lists for the viewer. Owner profiles are
// batch-fetched in one query; for authenticated viewers the pin records for
// the given lists are batch-fetched in a second. An anonymous viewer is the
// empty auth id.
func (e *Enricher) Enrich(ctx context.Context, lists []models.List, viewerAuthID string) ([]ListResponse, error) {
	if len(lists) == 0 {
		return []ListResponse{}, nil
	}

	// Distinct owner ids across the input
	seen := map[string]bool{}
	ownerIDs := []string{}
	listIDs := make([]bson.ObjectID, 0, len(lists))
	for _, l := range lists {
		if !seen[l.Owner.UserID] {
			seen[l.Owner.UserID] = true
			ownerIDs = append(ownerIDs, l.Owner.UserID)
		}
		listIDs = append(listIDs, l.ID)
	}

	owners, err := e.users.GetByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}
	profiles := make(map[string]models.User, len(owners))
	for _, u := range owners {
		profiles[u.ID.Hex()] = u
	}

	viewed := map[bson.ObjectID]time.Time{}
	if viewerAuthID != "" {
		viewed, err = e.pins.ViewedAt(ctx, viewerAuthID, listIDs)
		if err != nil {
			return nil, err
		}
	}

	return buildResponses(lists, profiles, viewed, viewerAuthID), nil
}

// buildResponses merges owner profiles and pin view times onto the lists.
// A missing owner profile falls back to the username embedded on the list;
// one cache miss never fails the whole batch. Roster emails are visible
// only to viewers who can manage the list.
func buildResponses(lists []models.List, profiles map[string]models.User, viewed map[bson.ObjectID]time.Time, viewerAuthID string) []ListResponse {
	responses := make([]ListResponse, len(lists))
	for i, l := range lists {
		owner := OwnerInfo{
			UserID:   l.Owner.UserID,
			Username: l.Owner.Username,
		}
		if profile, ok := profiles[l.Owner.UserID]; ok {
			owner.Username = profile.Username
			owner.DisplayName = profile.DisplayName
		}

		lastViewed, pinned := viewed[l.ID]

		items := l.Items
		if items == nil {
			items = []models.ListItem{}
		}

		collabs := l.Collaborators
		if !permissions.CanManage(&l, viewerAuthID) {
			collabs = models.RedactEmails(collabs)
		}

		responses[i] = ListResponse{
			ID:            l.ID.Hex(),
			Title:         l.Title,
			Description:   l.Description,
			Category:      l.Category,
			Privacy:       l.Privacy,
			Items:         items,
			ItemCount:     len(items),
			Owner:         owner,
			Collaborators: collabs,
			Stats:         l.Stats,
			IsPinned:      pinned,
			HasUpdate:     pinned && l.LastEditedAt.After(lastViewed),
			CreatedAt:     l.CreatedAt,
			UpdatedAt:     l.UpdatedAt,
			LastEditedAt:  l.LastEditedAt,
		}
	}
	return responses
}
