package collaborators

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/zenopia/favely/pkg/favely/auth"
	"github.com/zenopia/favely/pkg/favely/email"
	"github.com/zenopia/favely/pkg/favely/models"
	"github.com/zenopia/favely/pkg/favely/permissions"
	"github.com/zenopia/favely/pkg/favely/store"
)

// Handler handles collaborator-related requests
type Handler struct {
	lists         *store.ListStore
	invites       *store.InviteStore
	users         *store.UserStore
	notifications *store.NotificationStore
	mailer        *email.Sender
}

// NewHandler creates a new collaborators handler
func NewHandler(lists *store.ListStore, invites *store.InviteStore, users *store.UserStore, notifications *store.NotificationStore, mailer *email.Sender) *Handler {
	return &Handler{
		lists:         lists,
		invites:       invites,
		users:         users,
		notifications: notifications,
		mailer:        mailer,
	}
}

// InviteRequest represents the request to invite a collaborator
type InviteRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,oneof=admin editor viewer"`
}

// RoleRequest represents the request to change a collaborator's role
type RoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin editor viewer"`
}

// RespondRequest represents the request to resolve an invite
type RespondRequest struct {
	Action string `json:"action" binding:"required,oneof=accept reject"`
}

// CollaboratorsResponse represents the collaborator roster of a list
type CollaboratorsResponse struct {
	Owner         models.ListOwner      `json:"owner"`
	Collaborators []models.Collaborator `json:"collaborators"`
}

// List returns the collaborator roster of a list
// @Summary List collaborators
// @Description Get the owner and collaborators of a list the caller may view
// @Tags collaborators
// @Produce json
// @Param id path string true "List ID"
// @Success 200 {object} CollaboratorsResponse
// @Failure 404 {object} map[string]string "List not found"
// @Security BearerAuth
// @Router /lists/{id}/collaborators [get]
func (h *Handler) List(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)

	list, ok := h.fetchList(c, authID)
	if !ok {
		return
	}

	collabs := list.Collaborators
	if collabs == nil {
		collabs = []models.Collaborator{}
	}
	// Invite emails stay on the manage surface
	if !permissions.CanManage(list, authID) {
		collabs = models.RedactEmails(collabs)
	}
	c.JSON(http.StatusOK, CollaboratorsResponse{Owner: list.Owner, Collaborators: collabs})
}

// Invite invites a collaborator by email
// @Summary Invite a collaborator
// @Description Invite someone to a list by email with a role. Owner or admin only. Invites expire after 7 days.
// @Tags collaborators
// @Accept json
// @Produce json
// @Param id path string true "List ID"
// @Param request body InviteRequest true "Invite details"
// @Success 201 {object} models.Collaborator
// @Failure 403 {object} map[string]string "Access denied"
// @Failure 409 {object} map[string]string "Already invited"
// @Security BearerAuth
// @Router /lists/{id}/collaborators [post]
func (h *Handler) Invite(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)
	username, _ := auth.GetUsername(c)

	list, ok := h.fetchList(c, authID)
	if !ok {
		return
	}

	if !permissions.CanManage(list, authID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner or an admin can invite collaborators"})
		return
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	inviteeEmail := strings.ToLower(strings.TrimSpace(req.Email))

	// The owner is implicitly a collaborator with full rights and is
	// never duplicated in the roster
	if owner, err := h.users.GetByAuthID(c.Request.Context(), list.Owner.AuthID); err == nil {
		if strings.EqualFold(owner.Email, inviteeEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "The owner is already a collaborator"})
			return
		}
	}

	for _, collab := range list.Collaborators {
		if !strings.EqualFold(collab.Email, inviteeEmail) {
			continue
		}
		// A pending entry whose invitation the TTL already deleted is
		// stale: clear it and let the new invite go through
		if collab.Status == models.CollabStatusPending {
			_, err := h.invites.GetPending(c.Request.Context(), list.ID, inviteeEmail)
			if errors.Is(err, store.ErrNotFound) {
				if err := h.lists.RemoveCollaboratorByEmail(c.Request.Context(), list.ID, inviteeEmail); err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to invite collaborator"})
					return
				}
				break
			}
		}
		c.JSON(http.StatusConflict, gin.H{"error": "This email is already on the list"})
		return
	}

	collab := models.Collaborator{
		Email:     inviteeEmail,
		Role:      models.CollabRole(req.Role),
		Status:    models.CollabStatusPending,
		InvitedAt: time.Now(),
	}
	if err := h.lists.AddCollaborator(c.Request.Context(), list.ID, collab); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to invite collaborator"})
		return
	}

	invite := models.Invitation{
		ListID:       list.ID,
		InviterID:    authID,
		InviteeEmail: inviteeEmail,
		Role:         collab.Role,
	}
	if err := h.invites.Create(c.Request.Context(), &invite); err != nil {
		log.Printf("Warning: failed to record invitation for %s: %v", list.ID.Hex(), err)
	}

	go h.mailer.SendCollabInvite(inviteeEmail, username, list.Title, req.Role)

	// In-app notification when the invitee already has an account
	if invitee, err := h.users.GetByEmail(c.Request.Context(), inviteeEmail); err == nil {
		h.notify(c, &models.Notification{
			UserID:  invitee.AuthID,
			Type:    models.NotificationCollabInvite,
			ActorID: authID,
			ListID:  &list.ID,
			Message: username + " invited you to collaborate on \"" + list.Title + "\"",
		})
	}

	c.JSON(http.StatusCreated, collab)
}

// Respond resolves a pending invite addressed to the caller
// @Summary Respond to an invite
// @Description Accept or reject a pending collaboration invite. Expired invites are gone.
// @Tags collaborators
// @Accept json
// @Produce json
// @Param id path string true "List ID"
// @Param request body RespondRequest true "accept or reject"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Invite not found"
// @Security BearerAuth
// @Router /lists/{id}/collaborators/respond [post]
func (h *Handler) Respond(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)
	username, _ := auth.GetUsername(c)

	listID, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid list ID"})
		return
	}

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	caller, err := h.users.GetByAuthID(c.Request.Context(), authID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	// TTL deletion means expired invites simply no longer exist
	invite, err := h.invites.GetPending(c.Request.Context(), listID, caller.Email)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invite not found"})
		return
	}

	status := models.CollabStatusAccepted
	if req.Action == "reject" {
		status = models.CollabStatusRejected
	}

	if err := h.lists.SetCollaboratorStatus(c.Request.Context(), listID, caller.Email, status, authID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invite not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to respond to invite"})
		return
	}
	if err := h.invites.SetStatus(c.Request.Context(), invite.ID, status); err != nil {
		log.Printf("Warning: failed to resolve invitation %s: %v", invite.ID.Hex(), err)
	}

	if status == models.CollabStatusAccepted {
		h.notify(c, &models.Notification{
			UserID:  invite.InviterID,
			Type:    models.NotificationCollabAccepted,
			ActorID: authID,
			ListID:  &listID,
			Message: username + " accepted your collaboration invite",
		})
	}

	c.JSON(http.StatusOK, gin.H{"status": string(status)})
}

// UpdateRole changes a collaborator's role
// @Summary Change a collaborator's role
// @Description Change an accepted collaborator's role. Owner or admin only; the owner's rights cannot be changed.
// @Tags collaborators
// @Accept json
// @Produce json
// @Param id path string true "List ID"
// @Param authID path string true "Collaborator auth ID"
// @Param request body RoleRequest true "New role"
// @Success 204 "Updated"
// @Failure 404 {object} map[string]string "Collaborator not found"
// @Security BearerAuth
// @Router /lists/{id}/collaborators/{authID} [patch]
func (h *Handler) UpdateRole(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)

	list, ok := h.fetchList(c, authID)
	if !ok {
		return
	}

	if !permissions.CanManage(list, authID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner or an admin can change roles"})
		return
	}

	target := c.Param("authID")
	if target == list.Owner.AuthID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The owner's role cannot be changed"})
		return
	}

	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.lists.SetCollaboratorRole(c.Request.Context(), list.ID, target, models.CollabRole(req.Role)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Collaborator not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change role"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Remove removes a collaborator from a list
// @Summary Remove a collaborator
// @Description Remove a collaborator. Owner/admin may remove anyone but the owner; collaborators may remove themselves.
// @Tags collaborators
// @Produce json
// @Param id path string true "List ID"
// @Param authID path string true "Collaborator auth ID"
// @Success 204 "Removed"
// @Failure 403 {object} map[string]string "Access denied"
// @Failure 404 {object} map[string]string "Collaborator not found"
// @Security BearerAuth
// @Router /lists/{id}/collaborators/{authID} [delete]
func (h *Handler) Remove(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)

	list, ok := h.fetchList(c, authID)
	if !ok {
		return
	}

	target := c.Param("authID")
	if target == list.Owner.AuthID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The owner cannot be removed"})
		return
	}

	// Leaving a list is always allowed; removing others needs manage rights
	if target != authID && !permissions.CanManage(list, authID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	if err := h.lists.RemoveCollaborator(c.Request.Context(), list.ID, target); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Collaborator not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove collaborator"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Invitations returns the caller's open invites across all lists
// @Summary List my invitations
// @Description Get pending collaboration invites addressed to the current user
// @Tags collaborators
// @Produce json
// @Success 200 {array} models.Invitation
// @Security BearerAuth
// @Router /invitations [get]
func (h *Handler) Invitations(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)

	caller, err := h.users.GetByAuthID(c.Request.Context(), authID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	invites, err := h.invites.FindPendingByEmail(c.Request.Context(), caller.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch invitations"})
		return
	}

	c.JSON(http.StatusOK, invites)
}

// fetchList loads the list and enforces view access, writing the error
// response itself when a check fails.
func (h *Handler) fetchList(c *gin.Context, authID string) (*models.List, bool) {
	id, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid list ID"})
		return nil, false
	}

	list, err := h.lists.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch list"})
		}
		return nil, false
	}

	if !permissions.CanView(list, authID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
		return nil, false
	}
	return list, true
}

// notify writes an in-app notification, best-effort
func (h *Handler) notify(c *gin.Context, n *models.Notification) {
	if err := h.notifications.Create(c.Request.Context(), n); err != nil {
		log.Printf("Warning: failed to create notification: %v", err)
	}
}

// RegisterRoutes registers collaborator routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/lists/:id/collaborators", h.List)
	rg.POST("/lists/:id/collaborators", h.Invite)
	rg.POST("/lists/:id/collaborators/respond", h.Respond)
	rg.PATCH("/lists/:id/collaborators/:authID", h.UpdateRole)
	rg.DELETE("/lists/:id/collaborators/:authID", h.Remove)
	rg.GET("/invitations", h.Invitations)
}
