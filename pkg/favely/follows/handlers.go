package follows

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/zenopia/favely/pkg/favely/auth"
	"github.com/zenopia/favely/pkg/favely/models"
	"github.com/zenopia/favely/pkg/favely/store"
)

// Handler handles follow-related requests
type Handler struct {
	follows       *store.FollowStore
	users         *store.UserStore
	notifications *store.NotificationStore
}

// NewHandler creates a new follows handler
func NewHandler(follows *store.FollowStore, users *store.UserStore, notifications *store.NotificationStore) *Handler {
	return &Handler{follows: follows, users: users, notifications: notifications}
}

// FollowResponse represents a follow relationship in API responses
type FollowResponse struct {
	ID          string              `json:"id"`
	Status      models.FollowStatus `json:"status"`
	User        FollowUser          `json:"user"`
	CreatedAt   time.Time           `json:"created_at"`
	RespondedAt *time.Time          `json:"responded_at,omitempty"`
}

// FollowUser is the profile shown on the other end of a follow
type FollowUser struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
}

// RespondRequest represents the request to resolve a follow request
type RespondRequest struct {
	Action string `json:"action" binding:"required,oneof=accept reject"`
}

// Follow creates a follow toward the named user
// @Summary Follow a user
// @Description Follow a user. Targets who approve followers get a pending request; otherwise the follow is accepted immediately.
// @Tags follows
// @Produce json
// @Param username path string true "Username to follow"
// @Success 201 {object} models.Follow
// @Failure 400 {object} map[string]string "Cannot follow yourself"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 409 {object} map[string]string "Already following"
// @Security BearerAuth
// @Router /users/{username}/follow [post]
func (h *Handler) Follow(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)
	username, _ := auth.GetUsername(c)

	target, err := h.users.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if target.AuthID == authID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot follow yourself"})
		return
	}

	status := models.FollowStatusAccepted
	if target.Preferences.ApproveFollowers {
		status = models.FollowStatusPending
	}

	follow := models.Follow{
		FollowerID:  authID,
		FollowingID: target.AuthID,
		Status:      status,
	}
	if err := h.follows.Create(c.Request.Context(), &follow); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Follow already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to follow user"})
		return
	}

	ctx := c.Request.Context()
	if status == models.FollowStatusAccepted {
		if err := h.users.IncFollowerCount(ctx, target.AuthID, 1); err != nil {
			log.Printf("Warning: failed to bump follower count for %s: %v", target.AuthID, err)
		}
		if err := h.users.IncFollowingCount(ctx, authID, 1); err != nil {
			log.Printf("Warning: failed to bump following count for %s: %v", authID, err)
		}
		h.notify(c, &models.Notification{
			UserID:  target.AuthID,
			Type:    models.NotificationNewFollower,
			ActorID: authID,
			Message: username + " started following you",
		})
	} else {
		h.notify(c, &models.Notification{
			UserID:  target.AuthID,
			Type:    models.NotificationFollowRequest,
			ActorID: authID,
			Message: username + " wants to follow you",
		})
	}

	c.JSON(http.StatusCreated, follow)
}

// Unfollow removes the caller's follow toward the named user
// @Summary Unfollow a user
// @Description Remove a follow or cancel a pending request
// @Tags follows
// @Produce json
// @Param username path string true "Username to unfollow"
// @Success 204 "Unfollowed"
// @Failure 404 {object} map[string]string "Follow not found"
// @Security BearerAuth
// @Router /users/{username}/follow [delete]
func (h *Handler) Unfollow(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)

	target, err := h.users.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	follow, err := h.follows.Get(c.Request.Context(), authID, target.AuthID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Follow not found"})
		return
	}

	if err := h.follows.Delete(c.Request.Context(), authID, target.AuthID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Follow not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unfollow user"})
		return
	}

	// Pending and rejected follows never made it into the counters
	if follow.Status == models.FollowStatusAccepted {
		ctx := c.Request.Context()
		if err := h.users.IncFollowerCount(ctx, target.AuthID, -1); err != nil {
			log.Printf("Warning: failed to drop follower count for %s: %v", target.AuthID, err)
		}
		if err := h.users.IncFollowingCount(ctx, authID, -1); err != nil {
			log.Printf("Warning: failed to drop following count for %s: %v", authID, err)
		}
	}

	c.Status(http.StatusNoContent)
}

// Respond resolves an incoming follow request
// @Summary Respond to a follow request
// @Description Accept or reject a pending follow request addressed to the current user
// @Tags follows
// @Accept json
// @Produce json
// @Param id path string true "Follow ID"
// @Param request body RespondRequest true "accept or reject"
// @Success 200 {object} models.Follow
// @Failure 404 {object} map[string]string "Request not found"
// @Security BearerAuth
// @Router /follows/{id}/respond [post]
func (h *Handler) Respond(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)
	username, _ := auth.GetUsername(c)

	id, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid follow ID"})
		return
	}

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	follow, err := h.follows.GetByID(c.Request.Context(), id)
	if err != nil || follow.FollowingID != authID {
		// Requests addressed to someone else look like missing ones
		c.JSON(http.StatusNotFound, gin.H{"error": "Follow request not found"})
		return
	}

	status := models.FollowStatusAccepted
	if req.Action == "reject" {
		status = models.FollowStatusRejected
	}

	if err := h.follows.SetStatus(c.Request.Context(), id, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Follow request not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to respond"})
		return
	}

	if status == models.FollowStatusAccepted {
		ctx := c.Request.Context()
		if err := h.users.IncFollowerCount(ctx, authID, 1); err != nil {
			log.Printf("Warning: failed to bump follower count for %s: %v", authID, err)
		}
		if err := h.users.IncFollowingCount(ctx, follow.FollowerID, 1); err != nil {
			log.Printf("Warning: failed to bump following count for %s: %v", follow.FollowerID, err)
		}
		h.notify(c, &models.Notification{
			UserID:  follow.FollowerID,
			Type:    models.NotificationFollowAccepted,
			ActorID: authID,
			Message: username + " accepted your follow request",
		})
	}

	follow.Status = status
	c.JSON(http.StatusOK, follow)
}

// Followers returns the caller's accepted followers
// @Summary List followers
// @Description Get the users following the current user
// @Tags follows
// @Produce json
// @Success 200 {array} FollowResponse
// @Security BearerAuth
// @Router /follows/followers [get]
func (h *Handler) Followers(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)

	follows, err := h.follows.Followers(c.Request.Context(), authID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch followers"})
		return
	}

	c.JSON(http.StatusOK, h.withProfiles(c, follows, func(f models.Follow) string { return f.FollowerID }))
}

// Following returns the users the caller follows
// @Summary List following
// @Description Get the users the current user follows
// @Tags follows
// @Produce json
// @Success 200 {array} FollowResponse
// @Security BearerAuth
// @Router /follows/following [get]
func (h *Handler) Following(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)

	follows, err := h.follows.Following(c.Request.Context(), authID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch following"})
		return
	}

	c.JSON(http.StatusOK, h.withProfiles(c, follows, func(f models.Follow) string { return f.FollowingID }))
}

// Requests returns incoming pending follow requests
// @Summary List follow requests
// @Description Get pending follow requests awaiting the current user's response
// @Tags follows
// @Produce json
// @Success 200 {array} FollowResponse
// @Security BearerAuth
// @Router /follows/requests [get]
func (h *Handler) Requests(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)

	follows, err := h.follows.PendingFor(c.Request.Context(), authID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch requests"})
		return
	}

	c.JSON(http.StatusOK, h.withProfiles(c, follows, func(f models.Follow) string { return f.FollowerID }))
}

// withProfiles joins follow records with the profile on the far end,
// batch-fetched in one query. Missing profiles are skipped.
func (h *Handler) withProfiles(c *gin.Context, follows []models.Follow, far func(models.Follow) string) []FollowResponse {
	authIDs := make([]string, len(follows))
	for i, f := range follows {
		authIDs[i] = far(f)
	}

	users, err := h.users.GetByAuthIDs(c.Request.Context(), authIDs)
	if err != nil {
		log.Printf("Warning: failed to fetch follow profiles: %v", err)
		users = nil
	}
	profiles := make(map[string]models.User, len(users))
	for _, u := range users {
		profiles[u.AuthID] = u
	}

	responses := make([]FollowResponse, 0, len(follows))
	for _, f := range follows {
		profile, ok := profiles[far(f)]
		if !ok {
			continue
		}
		responses = append(responses, FollowResponse{
			ID:     f.ID.Hex(),
			Status: f.Status,
			User: FollowUser{
				Username:    profile.Username,
				DisplayName: profile.DisplayName,
			},
			CreatedAt:   f.CreatedAt,
			RespondedAt: f.RespondedAt,
		})
	}
	return responses
}

// notify writes an in-app notification, best-effort
func (h *Handler) notify(c *gin.Context, n *models.Notification) {
	if err := h.notifications.Create(c.Request.Context(), n); err != nil {
		log.Printf("Warning: failed to create notification: %v", err)
	}
}

// RegisterRoutes registers follow routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/users/:username/follow", h.Follow)
	rg.DELETE("/users/:username/follow", h.Unfollow)
	rg.POST("/follows/:id/respond", h.Respond)
	rg.GET("/follows/followers", h.Followers)
	rg.GET("/follows/following", h.Following)
	rg.GET("/follows/requests", h.Requests)
}
