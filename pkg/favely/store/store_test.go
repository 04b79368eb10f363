package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/zenopia/favely/pkg/favely/database"
	"github.com/zenopia/favely/pkg/favely/models"
)

// setupDB connects to the database named by MONGODB_URI and drops the test
// collections so every test starts clean. Skips when no database is
// available.
func setupDB(t *testing.T) *database.DB {
	t.Helper()

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set; skipping integration test")
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, uri, "favely_test")
	if err != nil {
		t.Fatalf("database.Connect failed: %v", err)
	}

	for _, name := range []string{
		database.CollLists, database.CollUsers, database.CollPins,
		database.CollFollows, database.CollInvitations,
		database.CollNotifications, database.CollFeedback,
	} {
		_ = db.Collection(name).Drop(ctx)
	}

	if err := db.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close(context.Background())
	})
	return db
}

func testList(owner string) *models.List {
	return &models.List{
		Title:    "Test list",
		Category: models.CategoryOther,
		Privacy:  models.PrivacyPublic,
		Owner: models.ListOwner{
			UserID:   bson.NewObjectID().Hex(),
			AuthID:   owner,
			Username: "tester",
		},
	}
}

func TestListCRUD(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	lists := NewListStore(db.Collection(database.CollLists))

	list := testList("local:owner")
	list.Items = []models.ListItem{{Title: "first", Rank: 1}}
	if err := lists.Create(ctx, list); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if list.ID.IsZero() {
		t.Fatal("Create should populate the ID")
	}

	got, err := lists.GetByID(ctx, list.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "Test list" || len(got.Items) != 1 {
		t.Errorf("Unexpected list: %+v", got)
	}

	if err := lists.UpdateMeta(ctx, list.ID, bson.M{"title": "Renamed"}); err != nil {
		t.Fatalf("UpdateMeta failed: %v", err)
	}
	got, _ = lists.GetByID(ctx, list.ID)
	if got.Title != "Renamed" {
		t.Errorf("Expected Renamed, got %s", got.Title)
	}
	if !got.LastEditedAt.After(list.LastEditedAt) {
		t.Error("UpdateMeta should bump last_edited_at")
	}

	if err := lists.Delete(ctx, list.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := lists.GetByID(ctx, list.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := lists.Delete(ctx, list.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on double delete, got %v", err)
	}
}

func TestUpdateItemFields(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	lists := NewListStore(db.Collection(database.CollLists))

	list := testList("local:owner")
	list.Items = []models.ListItem{
		{Title: "first", Rank: 1},
		{Title: "second", Rank: 2},
	}
	if err := lists.Create(ctx, list); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := lists.UpdateItemFields(ctx, list.ID, 2, bson.M{"comment": "updated"}); err != nil {
		t.Fatalf("UpdateItemFields failed: %v", err)
	}

	got, _ := lists.GetByID(ctx, list.ID)
	if got.Items[1].Comment != "updated" {
		t.Errorf("Expected comment on rank 2, got %+v", got.Items[1])
	}
	if got.Items[0].Comment != "" {
		t.Errorf("Rank 1 should be untouched, got %+v", got.Items[0])
	}

	if err := lists.UpdateItemFields(ctx, list.ID, 9, bson.M{"comment": "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing rank, got %v", err)
	}
}

func TestPinUniqueness(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	pins := NewPinStore(db.Collection(database.CollPins))

	listID := bson.NewObjectID()
	pin := &models.Pin{UserID: "local:viewer", ListID: listID}
	if err := pins.Create(ctx, pin); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	dup := &models.Pin{UserID: "local:viewer", ListID: listID}
	if err := pins.Create(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate on double pin, got %v", err)
	}

	if err := pins.Delete(ctx, "local:viewer", listID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := pins.Delete(ctx, "local:viewer", listID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on unpin of unpinned list, got %v", err)
	}
}

func TestPinCountNeverNegative(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	lists := NewListStore(db.Collection(database.CollLists))

	list := testList("local:owner")
	if err := lists.Create(ctx, list); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := lists.IncPinCount(ctx, list.ID, -1); err != nil {
		t.Fatalf("IncPinCount failed: %v", err)
	}
	got, _ := lists.GetByID(ctx, list.ID)
	if got.Stats.PinCount != 0 {
		t.Errorf("Pin count should floor at zero, got %d", got.Stats.PinCount)
	}

	if err := lists.IncPinCount(ctx, list.ID, 1); err != nil {
		t.Fatalf("IncPinCount failed: %v", err)
	}
	got, _ = lists.GetByID(ctx, list.ID)
	if got.Stats.PinCount != 1 {
		t.Errorf("Expected pin count 1, got %d", got.Stats.PinCount)
	}
}

func TestFollowLifecycle(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	follows := NewFollowStore(db.Collection(database.CollFollows))

	follow := &models.Follow{
		FollowerID:  "local:a",
		FollowingID: "local:b",
		Status:      models.FollowStatusPending,
	}
	if err := follows.Create(ctx, follow); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	dup := &models.Follow{FollowerID: "local:a", FollowingID: "local:b", Status: models.FollowStatusPending}
	if err := follows.Create(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate on double follow, got %v", err)
	}

	pending, err := follows.PendingFor(ctx, "local:b")
	if err != nil {
		t.Fatalf("PendingFor failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("Expected 1 pending request, got %d", len(pending))
	}

	if err := follows.SetStatus(ctx, follow.ID, models.FollowStatusAccepted); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	accepted, err := follows.IsAccepted(ctx, "local:a", "local:b")
	if err != nil {
		t.Fatalf("IsAccepted failed: %v", err)
	}
	if !accepted {
		t.Error("Expected follow to be accepted")
	}

	// A resolved follow cannot transition again
	if err := follows.SetStatus(ctx, follow.ID, models.FollowStatusRejected); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound when re-resolving, got %v", err)
	}
}

func TestCollaboratorRoundTrip(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	lists := NewListStore(db.Collection(database.CollLists))

	list := testList("local:owner")
	if err := lists.Create(ctx, list); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	collab := models.Collaborator{
		Email:  "friend@example.com",
		Role:   models.CollabRoleEditor,
		Status: models.CollabStatusPending,
	}
	if err := lists.AddCollaborator(ctx, list.ID, collab); err != nil {
		t.Fatalf("AddCollaborator failed: %v", err)
	}

	if err := lists.SetCollaboratorStatus(ctx, list.ID, "friend@example.com", models.CollabStatusAccepted, "local:friend"); err != nil {
		t.Fatalf("SetCollaboratorStatus failed: %v", err)
	}

	got, _ := lists.GetByID(ctx, list.ID)
	if len(got.Collaborators) != 1 {
		t.Fatalf("Expected 1 collaborator, got %d", len(got.Collaborators))
	}
	c := got.Collaborators[0]
	if c.Status != models.CollabStatusAccepted || c.AuthID != "local:friend" {
		t.Errorf("Unexpected collaborator: %+v", c)
	}
	if c.AcceptedAt == nil {
		t.Error("Expected accepted_at to be set")
	}

	// Accepting twice finds no pending entry
	if err := lists.SetCollaboratorStatus(ctx, list.ID, "friend@example.com", models.CollabStatusAccepted, "local:friend"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on double accept, got %v", err)
	}

	if err := lists.RemoveCollaborator(ctx, list.ID, "local:friend"); err != nil {
		t.Fatalf("RemoveCollaborator failed: %v", err)
	}
	got, _ = lists.GetByID(ctx, list.ID)
	if len(got.Collaborators) != 0 {
		t.Errorf("Expected empty roster, got %d", len(got.Collaborators))
	}
}

func TestUserUniqueness(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	users := NewUserStore(db.Collection(database.CollUsers))

	user := &models.User{
		AuthID:   "local:u1",
		Username: "alice",
		Email:    "alice@example.com",
	}
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	sameName := &models.User{
		AuthID:   "local:u2",
		Username: "alice",
		Email:    "other@example.com",
	}
	if err := users.Create(ctx, sameName); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate for reused username, got %v", err)
	}

	if err := users.Update(ctx, "local:u1", bson.M{"display_name": "Alice"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, err := users.GetByAuthID(ctx, "local:u1")
	if err != nil {
		t.Fatalf("GetByAuthID failed: %v", err)
	}
	if got.DisplayName != "Alice" {
		t.Errorf("Expected display name Alice, got %s", got.DisplayName)
	}
}

func TestFindForUserIncludesAcceptedCollabs(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	lists := NewListStore(db.Collection(database.CollLists))

	owned := testList("local:owner")
	if err := lists.Create(ctx, owned); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	shared := testList("local:someone")
	shared.Collaborators = []models.Collaborator{{
		AuthID: "local:owner",
		Email:  "owner@example.com",
		Role:   models.CollabRoleViewer,
		Status: models.CollabStatusAccepted,
	}}
	if err := lists.Create(ctx, shared); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	pendingOnly := testList("local:other")
	pendingOnly.Collaborators = []models.Collaborator{{
		AuthID: "local:owner",
		Email:  "owner@example.com",
		Role:   models.CollabRoleViewer,
		Status: models.CollabStatusPending,
	}}
	if err := lists.Create(ctx, pendingOnly); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := lists.FindForUser(ctx, owned.Owner.UserID, "local:owner")
	if err != nil {
		t.Fatalf("FindForUser failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Expected owned + accepted collab lists (2), got %d", len(got))
	}
}
