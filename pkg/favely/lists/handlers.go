package lists

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/zenopia/favely/pkg/favely/auth"
	"github.com/zenopia/favely/pkg/favely/models"
	"github.com/zenopia/favely/pkg/favely/permissions"
	"github.com/zenopia/favely/pkg/favely/store"
)

const publicPageSize = 20

// Handler handles list-related requests
type Handler struct {
	lists    *store.ListStore
	users    *store.UserStore
	pins     *store.PinStore
	invites  *store.InviteStore
	enricher *Enricher

	// countOwnerViews controls whether an owner viewing their own list
	// bumps the view counter. Off by default.
	countOwnerViews bool
}

// NewHandler creates a new lists handler
func NewHandler(lists *store.ListStore, users *store.UserStore, pins *store.PinStore, invites *store.InviteStore) *Handler {
	return &Handler{
		lists:           lists,
		users:           users,
		pins:            pins,
		invites:         invites,
		enricher:        NewEnricher(users, pins),
		countOwnerViews: os.Getenv("FAVELY_COUNT_OWNER_VIEWS") == "true",
	}
}

// ItemRequest represents a list item in create requests
type ItemRequest struct {
	Title      string                `json:"title" binding:"required"`
	Comment    string                `json:"comment"`
	Rank       int                   `json:"rank"`
	Properties []models.ItemProperty `json:"properties"`
}

// CreateListRequest represents the request to create a list
type CreateListRequest struct {
	Title       string        `json:"title" binding:"required,max=120"`
	Description string        `json:"description" binding:"max=2000"`
	Category    string        `json:"category"`
	Privacy     string        `json:"privacy"`
	Items       []ItemRequest `json:"items"`
}

// UpdateListRequest represents the request to update list metadata.
// Pointer fields distinguish "not provided" from zero values.
type UpdateListRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=120"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Category    *string `json:"category"`
	Privacy     *string `json:"privacy"`
}

// Create creates a new list owned by the caller
// @Summary Create a list
// @Description Create a new ranked list owned by the current user
// @Tags lists
// @Accept json
// @Produce json
// @Param request body CreateListRequest true "List details"
// @Success 201 {object} ListResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Security BearerAuth
// @Router /lists [post]
func (h *Handler) Create(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)
	userID, _ := auth.GetUserID(c)
	username, _ := auth.GetUsername(c)

	var req CreateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := models.Category(req.Category)
	if req.Category == "" {
		category = models.CategoryOther
	}
	if !category.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category"})
		return
	}

	privacy := models.Privacy(req.Privacy)
	if req.Privacy == "" {
		privacy = models.PrivacyPrivate
	}
	if !privacy.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown privacy level"})
		return
	}

	items, err := itemsFromRequest(req.Items)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list := models.List{
		Title:       req.Title,
		Description: req.Description,
		Category:    category,
		Privacy:     privacy,
		Items:       items,
		Owner: models.ListOwner{
			UserID:   userID,
			AuthID:   authID,
			Username: username,
		},
	}

	if err := h.lists.Create(c.Request.Context(), &list); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create list"})
		return
	}

	if err := h.users.IncListCount(c.Request.Context(), authID, 1); err != nil {
		log.Printf("Warning: failed to bump list count for %s: %v", authID, err)
	}

	c.JSON(http.StatusCreated, h.single(c, &list, authID))
}

// List returns the caller's lists (owned plus accepted collaborations)
// @Summary List my lists
// @Description Get lists the current user owns or collaborates on
// @Tags lists
// @Produce json
// @Success 200 {array} ListResponse
// @Security BearerAuth
// @Router /lists [get]
func (h *Handler) List(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)
	userID, _ := auth.GetUserID(c)

	lists, err := h.lists.FindForUser(c.Request.Context(), userID, authID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch lists"})
		return
	}

	responses, err := h.enricher.Enrich(c.Request.Context(), lists, authID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch lists"})
		return
	}

	c.JSON(http.StatusOK, responses)
}

// Public returns public lists, filterable and paginated
// @Summary Browse public lists
// @Description Get public lists, optionally filtered by category or search term
// @Tags lists
// @Produce json
// @Param category query string false "Category filter"
// @Param q query string false "Search term"
// @Param page query int false "Page number (1-based)"
// @Success 200 {array} ListResponse
// @Router /lists/public [get]
func (h *Handler) Public(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)

	category := models.Category(c.Query("category"))
	if category != "" && !category.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category"})
		return
	}

	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if page < 1 {
		page = 1
	}

	lists, err := h.lists.FindPublic(c.Request.Context(), category, c.Query("q"),
		(page-1)*publicPageSize, publicPageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch lists"})
		return
	}

	responses, err := h.enricher.Enrich(c.Request.Context(), lists, authID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch lists"})
		return
	}

	c.JSON(http.StatusOK, responses)
}

// Get returns a single list if the caller may view it
// @Summary Get a list
// @Description Get a list by id. Private lists are only visible to the owner and accepted collaborators.
// @Tags lists
// @Produce json
// @Param id path string true "List ID"
// @Success 200 {object} ListResponse
// @Failure 404 {object} map[string]string "List not found"
// @Router /lists/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)

	list, ok := h.fetchList(c)
	if !ok {
		return
	}

	if !permissions.CanView(list, authID) {
		// Private lists are reported as missing so their existence
		// is not leaked
		c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
		return
	}

	// View counting and pin view-time updates are best-effort; the read
	// itself never waits on them
	listID := list.ID
	owner := permissions.IsOwner(list, authID)
	go func() {
		ctx := context.Background()
		if !owner || h.countOwnerViews {
			if err := h.lists.IncViewCount(ctx, listID); err != nil {
				log.Printf("Warning: failed to bump view count for %s: %v", listID.Hex(), err)
			}
		}
		if authID != "" {
			if err := h.pins.TouchViewed(ctx, authID, listID); err != nil {
				log.Printf("Warning: failed to touch pin for %s: %v", listID.Hex(), err)
			}
		}
	}()

	c.JSON(http.StatusOK, h.single(c, list, authID))
}

// Update updates list metadata
// @Summary Update a list
// @Description Update title, description, category, or privacy. Privacy changes require owner or admin.
// @Tags lists
// @Accept json
// @Produce json
// @Param id path string true "List ID"
// @Param request body UpdateListRequest true "Fields to update"
// @Success 200 {object} ListResponse
// @Failure 403 {object} map[string]string "Edit access denied"
// @Failure 404 {object} map[string]string "List not found"
// @Security BearerAuth
// @Router /lists/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)

	list, ok := h.fetchList(c)
	if !ok {
		return
	}

	if !permissions.CanView(list, authID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
		return
	}
	if !permissions.CanEdit(list, authID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Edit access denied"})
		return
	}

	var req UpdateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	set := bson.M{}
	if req.Title != nil {
		if *req.Title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title cannot be empty"})
			return
		}
		set["title"] = *req.Title
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Category != nil {
		category := models.Category(*req.Category)
		if !category.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category"})
			return
		}
		set["category"] = category
	}
	if req.Privacy != nil {
		privacy := models.Privacy(*req.Privacy)
		if !privacy.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown privacy level"})
			return
		}
		// Changing visibility is list administration, not editing.
		// Already-granted collaborator access survives the transition.
		if !permissions.CanManage(list, authID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner or an admin can change privacy"})
			return
		}
		set["privacy"] = privacy
	}

	if len(set) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	if err := h.lists.UpdateMeta(c.Request.Context(), list.ID, set); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update list"})
		return
	}

	updated, err := h.lists.GetByID(c.Request.Context(), list.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch list"})
		return
	}

	c.JSON(http.StatusOK, h.single(c, updated, authID))
}

// Delete removes a list along with its pins and open invitations
// @Summary Delete a list
// @Description Delete a list. Owner or admin only.
// @Tags lists
// @Produce json
// @Param id path string true "List ID"
// @Success 204 "Deleted"
// @Failure 403 {object} map[string]string "Access denied"
// @Failure 404 {object} map[string]string "List not found"
// @Security BearerAuth
// @Router /lists/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)

	list, ok := h.fetchList(c)
	if !ok {
		return
	}

	if !permissions.CanView(list, authID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
		return
	}
	if !permissions.CanManage(list, authID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	if err := h.lists.Delete(c.Request.Context(), list.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete list"})
		return
	}

	// Best-effort cleanup of join documents
	if err := h.pins.DeleteByList(c.Request.Context(), list.ID); err != nil {
		log.Printf("Warning: failed to delete pins for %s: %v", list.ID.Hex(), err)
	}
	if err := h.invites.DeleteByList(c.Request.Context(), list.ID); err != nil {
		log.Printf("Warning: failed to delete invitations for %s: %v", list.ID.Hex(), err)
	}
	if err := h.users.IncListCount(c.Request.Context(), list.Owner.AuthID, -1); err != nil {
		log.Printf("Warning: failed to drop list count for %s: %v", list.Owner.AuthID, err)
	}

	c.Status(http.StatusNoContent)
}

// Copy duplicates a visible list into a new private list owned by the caller
// @Summary Copy a list
// @Description Copy a list's items into a new private list owned by the current user
// @Tags lists
// @Produce json
// @Param id path string true "List ID"
// @Success 201 {object} ListResponse
// @Failure 404 {object} map[string]string "List not found"
// @Security BearerAuth
// @Router /lists/{id}/copy [post]
func (h *Handler) Copy(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)
	userID, _ := auth.GetUserID(c)
	username, _ := auth.GetUsername(c)

	source, ok := h.fetchList(c)
	if !ok {
		return
	}

	if !permissions.CanView(source, authID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
		return
	}

	items := make([]models.ListItem, len(source.Items))
	copy(items, source.Items)

	duplicate := models.List{
		Title:       source.Title,
		Description: source.Description,
		Category:    source.Category,
		Privacy:     models.PrivacyPrivate,
		Items:       items,
		Owner: models.ListOwner{
			UserID:   userID,
			AuthID:   authID,
			Username: username,
		},
	}

	if err := h.lists.Create(c.Request.Context(), &duplicate); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to copy list"})
		return
	}

	if err := h.lists.IncCopyCount(c.Request.Context(), source.ID); err != nil {
		log.Printf("Warning: failed to bump copy count for %s: %v", source.ID.Hex(), err)
	}
	if err := h.users.IncListCount(c.Request.Context(), authID, 1); err != nil {
		log.Printf("Warning: failed to bump list count for %s: %v", authID, err)
	}

	c.JSON(http.StatusCreated, h.single(c, &duplicate, authID))
}

// fetchList parses the id param and loads the list, writing the error
// response itself when either step fails.
func (h *Handler) fetchList(c *gin.Context) (*models.List, bool) {
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
	return list, true
}

// single enriches one list, falling back to the embedded owner reference
// if enrichment fails.
func (h *Handler) single(c *gin.Context, list *models.List, authID string) ListResponse {
	responses, err := h.enricher.Enrich(c.Request.Context(), []models.List{*list}, authID)
	if err != nil || len(responses) == 0 {
		return buildResponses([]models.List{*list}, nil, nil, authID)[0]
	}
	return responses[0]
}

// itemsFromRequest validates incoming items and assigns ranks. Explicit
// ranks must form the permutation 1..n; when none are given the request
// order becomes the ranking.
func itemsFromRequest(reqs []ItemRequest) ([]models.ListItem, error) {
	items := make([]models.ListItem, len(reqs))
	explicit := false
	for i, r := range reqs {
		if r.Rank != 0 {
			explicit = true
		}
		items[i] = models.ListItem{
			Title:      r.Title,
			Comment:    r.Comment,
			Rank:       r.Rank,
			Properties: r.Properties,
		}
	}

	if !explicit {
		for i := range items {
			items[i].Rank = i + 1
		}
		return items, nil
	}

	seen := make(map[int]bool, len(items))
	for _, it := range items {
		if it.Rank < 1 || it.Rank > len(items) || seen[it.Rank] {
			return nil, errors.New("item ranks must be unique and run from 1 to the item count")
		}
		seen[it.Rank] = true
	}
	return items, nil
}

// RegisterRoutes registers the authenticated list routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/lists", h.Create)
	rg.GET("/lists", h.List)
	rg.PATCH("/lists/:id", h.Update)
	rg.DELETE("/lists/:id", h.Delete)
	rg.POST("/lists/:id/copy", h.Copy)
}

// RegisterPublicRoutes registers routes that serve anonymous viewers too
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/lists/public", h.Public)
	rg.GET("/lists/:id", h.Get)
}
