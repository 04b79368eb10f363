// Package permissions is the single authority for list access decisions.
// Every route that touches a list funnels through these predicates instead
// of re-implementing the owner-or-collaborator check inline.
package permissions

import "github.com/zenopia/favely/pkg/favely/models"

// IsOwner reports whether the viewer owns the list. The viewer is
// identified by external auth id; the empty string is an anonymous viewer.
func IsOwner(list *models.List, viewerAuthID string) bool {
	return viewerAuthID != "" && list.Owner.AuthID == viewerAuthID
}

// Role returns the viewer's accepted collaborator role on the list.
// The owner always resolves to the owner role. Pending and rejected
// collaborators have no role.
func Role(list *models.List, viewerAuthID string) (models.CollabRole, bool) {
	if viewerAuthID == "" {
		return "", false
	}
	if IsOwner(list, viewerAuthID) {
		return models.CollabRoleOwner, true
	}
	for _, c := range list.Collaborators {
		if c.AuthID == viewerAuthID && c.Status == models.CollabStatusAccepted {
			return c.Role, true
		}
	}
	return "", false
}

// CanView reports whether the viewer may see the list. Public and unlisted
// lists are visible to anyone, including anonymous viewers; private lists
// only to the owner and accepted collaborators of any role.
func CanView(list *models.List, viewerAuthID string) bool {
	if list.Privacy == models.PrivacyPublic || list.Privacy == models.PrivacyUnlisted {
		return true
	}
	_, ok := Role(list, viewerAuthID)
	return ok
}

// CanEdit reports whether the viewer may modify list content: the owner,
// or an accepted collaborator with the admin or editor role. Viewers and
// pending/rejected collaborators cannot edit.
func CanEdit(list *models.List, viewerAuthID string) bool {
	role, ok := Role(list, viewerAuthID)
	if !ok {
		return false
	}
	return role.CanEdit()
}

// CanManage reports whether the viewer may administer the list itself:
// change privacy, manage collaborators, or delete it. Only the owner and
// accepted admins qualify.
func CanManage(list *models.List, viewerAuthID string) bool {
	role, ok := Role(list, viewerAuthID)
	if !ok {
		return false
	}
	return role == models.CollabRoleOwner || role == models.CollabRoleAdmin
}
