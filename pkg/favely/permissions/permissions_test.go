package permissions

import (
	"testing"
	"time"

	"github.com/zenopia/favely/pkg/favely/models"
)

func makeList(privacy models.Privacy, ownerAuthID string, collabs ...models.Collaborator) *models.List {
	return &models.List{
		Title:   "Test List",
		Privacy: privacy,
		Owner: models.ListOwner{
			UserID:   "64a000000000000000000001",
			AuthID:   ownerAuthID,
			Username: "owner",
		},
		Collaborators: collabs,
	}
}

func collab(authID string, role models.CollabRole, status models.CollabStatus) models.Collaborator {
	return models.Collaborator{
		AuthID:    authID,
		Email:     authID + "@example.com",
		Role:      role,
		Status:    status,
		InvitedAt: time.Now(),
	}
}

func TestCanViewPublicAndUnlisted(t *testing.T) {
	for _, privacy := range []models.Privacy{models.PrivacyPublic, models.PrivacyUnlisted} {
		list := makeList(privacy, "owner-1")

		if !CanView(list, "") {
			t.Errorf("%s list: expected anonymous view access", privacy)
		}
		if !CanView(list, "stranger-1") {
			t.Errorf("%s list: expected stranger view access", privacy)
		}
	}
}

func TestCanViewPrivate(t *testing.T) {
	tests := []struct {
		name   string
		collab []models.Collaborator
		viewer string
		want   bool
	}{
		{"anonymous denied", nil, "", false},
		{"stranger denied", nil, "stranger-1", false},
		{"owner allowed", nil, "owner-1", true},
		{"accepted viewer allowed", []models.Collaborator{collab("friend-1", models.CollabRoleViewer, models.CollabStatusAccepted)}, "friend-1", true},
		{"accepted editor allowed", []models.Collaborator{collab("friend-1", models.CollabRoleEditor, models.CollabStatusAccepted)}, "friend-1", true},
		{"pending collaborator denied", []models.Collaborator{collab("friend-1", models.CollabRoleEditor, models.CollabStatusPending)}, "friend-1", false},
		{"rejected collaborator denied", []models.Collaborator{collab("friend-1", models.CollabRoleEditor, models.CollabStatusRejected)}, "friend-1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := makeList(models.PrivacyPrivate, "owner-1", tt.collab...)
			if got := CanView(list, tt.viewer); got != tt.want {
				t.Errorf("CanView = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanEdit(t *testing.T) {
	tests := []struct {
		name   string
		collab []models.Collaborator
		viewer string
		want   bool
	}{
		{"owner", nil, "owner-1", true},
		{"anonymous", nil, "", false},
		{"stranger", nil, "stranger-1", false},
		{"accepted admin", []models.Collaborator{collab("friend-1", models.CollabRoleAdmin, models.CollabStatusAccepted)}, "friend-1", true},
		{"accepted editor", []models.Collaborator{collab("friend-1", models.CollabRoleEditor, models.CollabStatusAccepted)}, "friend-1", true},
		{"accepted viewer", []models.Collaborator{collab("friend-1", models.CollabRoleViewer, models.CollabStatusAccepted)}, "friend-1", false},
		{"pending editor", []models.Collaborator{collab("friend-1", models.CollabRoleEditor, models.CollabStatusPending)}, "friend-1", false},
		{"rejected admin", []models.Collaborator{collab("friend-1", models.CollabRoleAdmin, models.CollabStatusRejected)}, "friend-1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Edit rules are independent of privacy level
			for _, privacy := range []models.Privacy{models.PrivacyPublic, models.PrivacyPrivate, models.PrivacyUnlisted} {
				list := makeList(privacy, "owner-1", tt.collab...)
				if got := CanEdit(list, tt.viewer); got != tt.want {
					t.Errorf("CanEdit on %s list = %v, want %v", privacy, got, tt.want)
				}
			}
		})
	}
}

func TestCanManage(t *testing.T) {
	list := makeList(models.PrivacyPrivate, "owner-1",
		collab("admin-1", models.CollabRoleAdmin, models.CollabStatusAccepted),
		collab("editor-1", models.CollabRoleEditor, models.CollabStatusAccepted),
		collab("viewer-1", models.CollabRoleViewer, models.CollabStatusAccepted),
	)

	if !CanManage(list, "owner-1") {
		t.Error("owner should manage")
	}
	if !CanManage(list, "admin-1") {
		t.Error("accepted admin should manage")
	}
	if CanManage(list, "editor-1") {
		t.Error("editor should not manage")
	}
	if CanManage(list, "viewer-1") {
		t.Error("viewer should not manage")
	}
	if CanManage(list, "") {
		t.Error("anonymous should not manage")
	}
}

// TestInviteLifecycle walks the scenario where a private list stays hidden
// from an invitee until they accept, then grants edit access.
func TestInviteLifecycle(t *testing.T) {
	list := makeList(models.PrivacyPrivate, "owner-1")

	// No relation: denied
	if CanView(list, "bob") {
		t.Fatal("stranger should not view private list")
	}

	// Invited as editor but still pending: still denied
	list.Collaborators = []models.Collaborator{
		collab("bob", models.CollabRoleEditor, models.CollabStatusPending),
	}
	if CanView(list, "bob") {
		t.Fatal("pending collaborator should not view private list")
	}
	if CanEdit(list, "bob") {
		t.Fatal("pending collaborator should not edit")
	}

	// Accepted: view and edit both granted
	list.Collaborators[0].Status = models.CollabStatusAccepted
	if !CanView(list, "bob") {
		t.Fatal("accepted editor should view private list")
	}
	if !CanEdit(list, "bob") {
		t.Fatal("accepted editor should edit")
	}
}

func TestRole(t *testing.T) {
	list := makeList(models.PrivacyPublic, "owner-1",
		collab("viewer-1", models.CollabRoleViewer, models.CollabStatusAccepted),
	)

	role, ok := Role(list, "owner-1")
	if !ok || role != models.CollabRoleOwner {
		t.Errorf("owner role = %q, %v", role, ok)
	}
	role, ok = Role(list, "viewer-1")
	if !ok || role != models.CollabRoleViewer {
		t.Errorf("viewer role = %q, %v", role, ok)
	}
	if _, ok := Role(list, "stranger"); ok {
		t.Error("stranger should have no role")
	}
	if _, ok := Role(list, ""); ok {
		t.Error("anonymous should have no role")
	}
}
