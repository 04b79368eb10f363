package collaborators

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/zenopia/favely/pkg/favely/auth"
	"github.com/zenopia/favely/pkg/favely/database"
	"github.com/zenopia/favely/pkg/favely/email"
	"github.com/zenopia/favely/pkg/favely/models"
	"github.com/zenopia/favely/pkg/favely/store"
)

type testEnv struct {
	router  *gin.Engine
	lists   *store.ListStore
	invites *store.InviteStore
	token   string
	list    *models.List
}

func setupTestEnv(t *testing.T) *testEnv {
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
	for _, name := range []string{database.CollLists, database.CollUsers, database.CollInvitations, database.CollNotifications} {
		_ = db.Collection(name).Drop(ctx)
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close(context.Background())
	})

	listStore := store.NewListStore(db.Collection(database.CollLists))
	userStore := store.NewUserStore(db.Collection(database.CollUsers))
	inviteStore := store.NewInviteStore(db.Collection(database.CollInvitations))
	notificationStore := store.NewNotificationStore(db.Collection(database.CollNotifications))

	owner := models.User{
		AuthID:   "local:owner",
		Username: "owner",
		Email:    "owner@example.com",
	}
	if err := userStore.Create(ctx, &owner); err != nil {
		t.Fatalf("Create owner failed: %v", err)
	}

	list := &models.List{
		Title:    "Shared picks",
		Category: models.CategoryOther,
		Privacy:  models.PrivacyPrivate,
		Owner: models.ListOwner{
			UserID:   owner.ID.Hex(),
			AuthID:   owner.AuthID,
			Username: owner.Username,
		},
	}
	if err := listStore.Create(ctx, list); err != nil {
		t.Fatalf("Create list failed: %v", err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(listStore, inviteStore, userStore, notificationStore, email.NewFromEnv("http://localhost:8080"))
	handler.RegisterRoutes(r.Group("", auth.AuthMiddleware()))

	token, err := auth.GenerateToken(owner.ID.Hex(), owner.AuthID, owner.Username)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	return &testEnv{router: r, lists: listStore, invites: inviteStore, token: token, list: list}
}

func (e *testEnv) invite(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, _ := http.NewRequest("POST", "/lists/"+e.list.ID.Hex()+"/collaborators", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)
	resp := httptest.NewRecorder()
	e.router.ServeHTTP(resp, req)
	return resp
}

func TestInviteLowercasesEmail(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	resp := env.invite(t, `{"email":"Guest@Example.COM","role":"editor"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	if _, err := env.invites.GetPending(ctx, env.list.ID, "guest@example.com"); err != nil {
		t.Errorf("Expected invitation stored under the lowercased email: %v", err)
	}
}

func TestReinviteAfterInviteExpiry(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	resp := env.invite(t, `{"email":"guest@example.com","role":"editor"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	// While the invitation is open a second invite conflicts
	resp = env.invite(t, `{"email":"guest@example.com","role":"editor"}`)
	if resp.Code != http.StatusConflict {
		t.Fatalf("Expected 409 while the invitation is open, got %d", resp.Code)
	}

	// The TTL index removes the invitation doc but leaves the pending
	// roster entry behind; a fresh invite must clear it and succeed
	if err := env.invites.DeleteByList(ctx, env.list.ID); err != nil {
		t.Fatalf("DeleteByList failed: %v", err)
	}

	resp = env.invite(t, `{"email":"guest@example.com","role":"viewer"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected 201 after the invitation expired, got %d: %s", resp.Code, resp.Body.String())
	}

	list, err := env.lists.GetByID(ctx, env.list.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	var entries []models.Collaborator
	for _, collab := range list.Collaborators {
		if collab.Email == "guest@example.com" {
			entries = append(entries, collab)
		}
	}
	if len(entries) != 1 {
		t.Fatalf("Expected one roster entry after re-invite, got %d", len(entries))
	}
	if entries[0].Role != models.CollabRoleViewer || entries[0].Status != models.CollabStatusPending {
		t.Errorf("Expected fresh pending viewer entry, got role=%s status=%s", entries[0].Role, entries[0].Status)
	}
}
