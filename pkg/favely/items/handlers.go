package items

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/zenopia/favely/pkg/favely/auth"
	"github.com/zenopia/favely/pkg/favely/models"
	"github.com/zenopia/favely/pkg/favely/permissions"
	"github.com/zenopia/favely/pkg/favely/store"
)

// Handler handles per-item operations on a list's embedded items
type Handler struct {
	lists *store.ListStore
}

// NewHandler creates a new items handler
func NewHandler(lists *store.ListStore) *Handler {
	return &Handler{lists: lists}
}

// AddItemRequest represents the request to add an item
type AddItemRequest struct {
	Title      string                `json:"title" binding:"required,max=200"`
	Comment    string                `json:"comment" binding:"max=2000"`
	Rank       int                   `json:"rank"`
	Properties []models.ItemProperty `json:"properties"`
}

// UpdateItemRequest represents the request to patch an item in place
type UpdateItemRequest struct {
	Title      *string                `json:"title" binding:"omitempty,max=200"`
	Comment    *string                `json:"comment" binding:"omitempty,max=2000"`
	Properties *[]models.ItemProperty `json:"properties"`
}

// ReorderRequest lists the current ranks in their new display order
type ReorderRequest struct {
	Order []int `json:"order" binding:"required"`
}

// Add appends an item to the list
// @Summary Add an item
// @Description Add an item to a list. Rank defaults to the end of the list.
// @Tags items
// @Accept json
// @Produce json
// @Param id path string true "List ID"
// @Param request body AddItemRequest true "Item details"
// @Success 201 {object} models.ListItem
// @Failure 403 {object} map[string]string "Edit access denied"
// @Failure 409 {object} map[string]string "Rank already taken"
// @Security BearerAuth
// @Router /lists/{id}/items [post]
func (h *Handler) Add(c *gin.Context) {
	list, ok := h.editableList(c)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := models.ListItem{
		Title:      req.Title,
		Comment:    req.Comment,
		Rank:       req.Rank,
		Properties: req.Properties,
	}

	items, err := insertItem(list.Items, item)
	if err != nil {
		if errors.Is(err, ErrRankTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "An item already has that rank"})
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	if err := h.lists.SetItems(c.Request.Context(), list.ID, items); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item"})
		return
	}

	c.JSON(http.StatusCreated, items[len(items)-1])
}

// Update patches an item's fields in place
// @Summary Update an item
// @Description Update the title, comment, or properties of the item with the given rank
// @Tags items
// @Accept json
// @Produce json
// @Param id path string true "List ID"
// @Param rank path int true "Item rank"
// @Param request body UpdateItemRequest true "Fields to update"
// @Success 204 "Updated"
// @Failure 404 {object} map[string]string "Item not found"
// @Security BearerAuth
// @Router /lists/{id}/items/{rank} [patch]
func (h *Handler) Update(c *gin.Context) {
	list, ok := h.editableList(c)
	if !ok {
		return
	}

	rank, err := strconv.Atoi(c.Param("rank"))
	if err != nil || rank < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item rank"})
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fields := bson.M{}
	if req.Title != nil {
		if *req.Title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title cannot be empty"})
			return
		}
		fields["title"] = *req.Title
	}
	if req.Comment != nil {
		fields["comment"] = *req.Comment
	}
	if req.Properties != nil {
		fields["properties"] = *req.Properties
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	if err := h.lists.UpdateItemFields(c.Request.Context(), list.ID, rank, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update item"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// Remove deletes an item and closes the rank gap
// @Summary Remove an item
// @Description Remove the item with the given rank; later items move up one rank
// @Tags items
// @Produce json
// @Param id path string true "List ID"
// @Param rank path int true "Item rank"
// @Success 204 "Removed"
// @Failure 404 {object} map[string]string "Item not found"
// @Security BearerAuth
// @Router /lists/{id}/items/{rank} [delete]
func (h *Handler) Remove(c *gin.Context) {
	list, ok := h.editableList(c)
	if !ok {
		return
	}

	rank, err := strconv.Atoi(c.Param("rank"))
	if err != nil || rank < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item rank"})
		return
	}

	items, err := removeItem(list.Items, rank)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}

	if err := h.lists.SetItems(c.Request.Context(), list.ID, items); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove item"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Reorder applies a full rank permutation to the list
// @Summary Reorder items
// @Description Reorder all items. The order array lists current ranks in their new display order.
// @Tags items
// @Accept json
// @Produce json
// @Param id path string true "List ID"
// @Param request body ReorderRequest true "New order"
// @Success 200 {array} models.ListItem
// @Failure 400 {object} map[string]string "Not a permutation of existing ranks"
// @Security BearerAuth
// @Router /lists/{id}/items/reorder [put]
func (h *Handler) Reorder(c *gin.Context) {
	list, ok := h.editableList(c)
	if !ok {
		return
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := reorderItems(list.Items, req.Order)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.lists.SetItems(c.Request.Context(), list.ID, items); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reorder items"})
		return
	}

	c.JSON(http.StatusOK, items)
}

// editableList loads the list and enforces view-then-edit access, writing
// the error response itself when a check fails.
func (h *Handler) editableList(c *gin.Context) (*models.List, bool) {
	authID, _ := auth.GetAuthID(c)

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
	if !permissions.CanEdit(list, authID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Edit access denied"})
		return nil, false
	}
	return list, true
}

// RegisterRoutes registers item routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/lists/:id/items", h.Add)
	rg.PUT("/lists/:id/items/reorder", h.Reorder)
	rg.PATCH("/lists/:id/items/:rank", h.Update)
	rg.DELETE("/lists/:id/items/:rank", h.Remove)
}
