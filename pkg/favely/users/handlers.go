package users

import (
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/zenopia/favely/pkg/favely/auth"
	"github.com/zenopia/favely/pkg/favely/lists"
	"github.com/zenopia/favely/pkg/favely/models"
	"github.com/zenopia/favely/pkg/favely/permissions"
	"github.com/zenopia/favely/pkg/favely/store"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)

// Handler handles user profile requests
type Handler struct {
	users    *store.UserStore
	lists    *store.ListStore
	follows  *store.FollowStore
	enricher *lists.Enricher
}

// NewHandler creates a new users handler
func NewHandler(users *store.UserStore, listStore *store.ListStore, follows *store.FollowStore, pins *store.PinStore) *Handler {
	return &Handler{
		users:    users,
		lists:    listStore,
		follows:  follows,
		enricher: lists.NewEnricher(users, pins),
	}
}

// UpdateProfileRequest represents the request to update the caller's profile
type UpdateProfileRequest struct {
	Username    *string `json:"username"`
	DisplayName *string `json:"display_name" binding:"omitempty,max=80"`
}

// UpdatePreferencesRequest represents the request to update preferences
type UpdatePreferencesRequest struct {
	ApproveFollowers   *bool `json:"approve_followers"`
	EmailNotifications *bool `json:"email_notifications"`
	PrivateProfile     *bool `json:"private_profile"`
}

// ProfileResponse represents a user's public profile
type ProfileResponse struct {
	Username       string              `json:"username"`
	DisplayName    string              `json:"display_name,omitempty"`
	FollowersCount int64               `json:"followers_count"`
	FollowingCount int64               `json:"following_count"`
	ListCount      int64               `json:"list_count"`
	IsFollowing    bool                `json:"is_following"`
	Lists          []lists.ListResponse `json:"lists,omitempty"`
}

// SearchResult represents a user in search results
type SearchResult struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
}

// Me returns the caller's own profile
// @Summary Get my profile
// @Description Get the current user's full profile
// @Tags users
// @Produce json
// @Success 200 {object} auth.UserResponse
// @Security BearerAuth
// @Router /users/me [get]
func (h *Handler) Me(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)

	user, err := h.users.GetByAuthID(c.Request.Context(), authID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, auth.ToUserResponse(user))
}

// UpdateMe updates the caller's username or display name
// @Summary Update my profile
// @Description Update the current user's username or display name
// @Tags users
// @Accept json
// @Produce json
// @Param request body UpdateProfileRequest true "Fields to update"
// @Success 200 {object} auth.UserResponse
// @Failure 409 {object} map[string]string "Username already taken"
// @Security BearerAuth
// @Router /users/me [patch]
func (h *Handler) UpdateMe(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	set := bson.M{}
	if req.Username != nil {
		username := strings.ToLower(*req.Username)
		if !usernameRegex.MatchString(username) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username must be 3-30 letters, numbers, or underscores"})
			return
		}
		set["username"] = username
	}
	if req.DisplayName != nil {
		set["display_name"] = *req.DisplayName
	}
	if len(set) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	if err := h.users.Update(c.Request.Context(), authID, set); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	user, err := h.users.GetByAuthID(c.Request.Context(), authID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return
	}

	c.JSON(http.StatusOK, auth.ToUserResponse(user))
}

// UpdatePreferences updates the caller's preferences
// @Summary Update my preferences
// @Description Update follow approval, email notification, or profile privacy settings
// @Tags users
// @Accept json
// @Produce json
// @Param request body UpdatePreferencesRequest true "Preferences to update"
// @Success 200 {object} models.Preferences
// @Security BearerAuth
// @Router /users/me/preferences [patch]
func (h *Handler) UpdatePreferences(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)

	var req UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	set := bson.M{}
	if req.ApproveFollowers != nil {
		set["preferences.approve_followers"] = *req.ApproveFollowers
	}
	if req.EmailNotifications != nil {
		set["preferences.email_notifications"] = *req.EmailNotifications
	}
	if req.PrivateProfile != nil {
		set["preferences.private_profile"] = *req.PrivateProfile
	}
	if len(set) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No preferences to update"})
		return
	}

	if err := h.users.Update(c.Request.Context(), authID, set); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update preferences"})
		return
	}

	user, err := h.users.GetByAuthID(c.Request.Context(), authID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch preferences"})
		return
	}

	c.JSON(http.StatusOK, user.Preferences)
}

// Search finds users by username or display name prefix
// @Summary Search users
// @Description Search users by username or display name prefix
// @Tags users
// @Produce json
// @Param q query string true "Search prefix"
// @Success 200 {array} SearchResult
// @Security BearerAuth
// @Router /users/search [get]
func (h *Handler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter q is required"})
		return
	}

	users, err := h.users.Search(c.Request.Context(), query, 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search users"})
		return
	}

	results := make([]SearchResult, len(users))
	for i, u := range users {
		results[i] = SearchResult{Username: u.Username, DisplayName: u.DisplayName}
	}
	c.JSON(http.StatusOK, results)
}

// Profile returns a user's public profile and their lists visible to the
// caller
// @Summary Get a user profile
// @Description Get a profile by username, including the lists the caller may see. Private profiles hide lists from non-followers.
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} ProfileResponse
// @Failure 404 {object} map[string]string "User not found"
// @Router /users/{username} [get]
func (h *Handler) Profile(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)

	target, err := h.users.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	self := target.AuthID == authID

	following := false
	if authID != "" && !self {
		following, err = h.follows.IsAccepted(c.Request.Context(), authID, target.AuthID)
		if err != nil {
			log.Printf("Warning: failed to check follow state: %v", err)
		}
	}

	response := ProfileResponse{
		Username:       target.Username,
		DisplayName:    target.DisplayName,
		FollowersCount: target.FollowersCount,
		FollowingCount: target.FollowingCount,
		ListCount:      target.ListCount,
		IsFollowing:    following,
	}

	// A private profile shows its lists only to the owner and accepted
	// followers
	if target.Preferences.PrivateProfile && !self && !following {
		c.JSON(http.StatusOK, response)
		return
	}

	owned, err := h.lists.FindByOwner(c.Request.Context(), target.ID.Hex())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch lists"})
		return
	}

	// Unlisted lists are reachable by link but never listed on profiles
	visible := make([]models.List, 0, len(owned))
	for _, l := range owned {
		if l.Privacy == models.PrivacyUnlisted && !self {
			continue
		}
		if permissions.CanView(&l, authID) {
			visible = append(visible, l)
		}
	}

	enriched, err := h.enricher.Enrich(c.Request.Context(), visible, authID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch lists"})
		return
	}
	response.Lists = enriched

	c.JSON(http.StatusOK, response)
}

// RegisterRoutes registers the authenticated user routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/users/me", h.Me)
	rg.PATCH("/users/me", h.UpdateMe)
	rg.PATCH("/users/me/preferences", h.UpdatePreferences)
	rg.GET("/users/search", h.Search)
}

// RegisterPublicRoutes registers routes that serve anonymous viewers too
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/users/:username", h.Profile)
}
