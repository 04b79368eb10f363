package pins

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/zenopia/favely/pkg/favely/auth"
	"github.com/zenopia/favely/pkg/favely/lists"
	"github.com/zenopia/favely/pkg/favely/models"
	"github.com/zenopia/favely/pkg/favely/permissions"
	"github.com/zenopia/favely/pkg/favely/store"
)

// Handler handles pin-related requests
type Handler struct {
	pins     *store.PinStore
	lists    *store.ListStore
	enricher *lists.Enricher
}

// NewHandler creates a new pins handler
func NewHandler(pins *store.PinStore, listStore *store.ListStore, users *store.UserStore) *Handler {
	return &Handler{
		pins:     pins,
		lists:    listStore,
		enricher: lists.NewEnricher(users, pins),
	}
}

// Pin pins a list for the caller
// @Summary Pin a list
// @Description Pin a visible list. Pinning twice is a conflict, not a second pin.
// @Tags pins
// @Produce json
// @Param id path string true "List ID"
// @Success 201 {object} models.Pin
// @Failure 404 {object} map[string]string "List not found"
// @Failure 409 {object} map[string]string "Already pinned"
// @Security BearerAuth
// @Router /lists/{id}/pin [post]
func (h *Handler) Pin(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)

	list, ok := h.visibleList(c, authID)
	if !ok {
		return
	}

	pin := models.Pin{
		UserID: authID,
		ListID: list.ID,
	}
	if err := h.pins.Create(c.Request.Context(), &pin); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// The unique index caught a double-pin; the counter is
			// deliberately not touched again
			c.JSON(http.StatusConflict, gin.H{"error": "List already pinned"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to pin list"})
		return
	}

	if err := h.lists.IncPinCount(c.Request.Context(), list.ID, 1); err != nil {
		log.Printf("Warning: failed to bump pin count for %s: %v", list.ID.Hex(), err)
	}

	c.JSON(http.StatusCreated, pin)
}

// Unpin removes the caller's pin from a list
// @Summary Unpin a list
// @Description Remove the caller's pin. Unpinning a never-pinned list is not found.
// @Tags pins
// @Produce json
// @Param id path string true "List ID"
// @Success 204 "Unpinned"
// @Failure 404 {object} map[string]string "Pin not found"
// @Security BearerAuth
// @Router /lists/{id}/pin [delete]
func (h *Handler) Unpin(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)

	id, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid list ID"})
		return
	}

	if err := h.pins.Delete(c.Request.Context(), authID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Never-pinned: report it and leave the counter alone
			c.JSON(http.StatusNotFound, gin.H{"error": "Pin not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unpin list"})
		return
	}

	if err := h.lists.IncPinCount(c.Request.Context(), id, -1); err != nil {
		log.Printf("Warning: failed to drop pin count for %s: %v", id.Hex(), err)
	}

	c.Status(http.StatusNoContent)
}

// List returns the caller's pinned lists, enriched
// @Summary List pinned lists
// @Description Get the lists the current user has pinned, newest pin first
// @Tags pins
// @Produce json
// @Success 200 {array} lists.ListResponse
// @Security BearerAuth
// @Router /pins [get]
func (h *Handler) List(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)

	pins, err := h.pins.FindByUser(c.Request.Context(), authID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pins"})
		return
	}

	ids := make([]bson.ObjectID, len(pins))
	for i, p := range pins {
		ids[i] = p.ListID
	}

	pinned, err := h.lists.FindByIDs(c.Request.Context(), ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch lists"})
		return
	}

	// Keep pin order: most recently pinned first
	byID := make(map[bson.ObjectID]models.List, len(pinned))
	for _, l := range pinned {
		byID[l.ID] = l
	}
	ordered := make([]models.List, 0, len(pins))
	for _, p := range pins {
		if l, ok := byID[p.ListID]; ok {
			ordered = append(ordered, l)
		}
	}

	responses, err := h.enricher.Enrich(c.Request.Context(), ordered, authID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pins"})
		return
	}

	c.JSON(http.StatusOK, responses)
}

// visibleList loads the list and enforces view access. Lists the caller
// cannot see cannot be pinned either.
func (h *Handler) visibleList(c *gin.Context, authID string) (*models.List, bool) {
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

// RegisterRoutes registers pin routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/lists/:id/pin", h.Pin)
	rg.DELETE("/lists/:id/pin", h.Unpin)
	rg.GET("/pins", h.List)
}
