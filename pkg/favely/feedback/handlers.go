package feedback

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zenopia/favely/pkg/favely/auth"
	"github.com/zenopia/favely/pkg/favely/email"
	"github.com/zenopia/favely/pkg/favely/models"
	"github.com/zenopia/favely/pkg/favely/store"
)

// Handler handles feedback submissions
type Handler struct {
	feedback *store.FeedbackStore
	mailer   *email.Sender
}

// NewHandler creates a new feedback handler
func NewHandler(feedback *store.FeedbackStore, mailer *email.Sender) *Handler {
	return &Handler{feedback: feedback, mailer: mailer}
}

// SubmitRequest represents a feedback submission
type SubmitRequest struct {
	Subject string `json:"subject" binding:"required,max=200"`
	Message string `json:"message" binding:"required,max=5000"`
	Email   string `json:"email" binding:"omitempty,email"`
}

// Submit records a feedback message and forwards it to the site operator
// @Summary Submit feedback
// @Description Submit feedback about the site. Works for anonymous visitors too.
// @Tags feedback
// @Accept json
// @Produce json
// @Param request body SubmitRequest true "Feedback"
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /feedback [post]
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Authenticated submitters are recorded even if they leave email blank
	authID, _ := auth.GetAuthID(c)

	fb := models.Feedback{
		UserID:  authID,
		Subject: req.Subject,
		Message: req.Message,
		Email:   req.Email,
	}
	if err := h.feedback.Create(c.Request.Context(), &fb); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit feedback"})
		return
	}

	from := req.Email
	if from == "" {
		from = "anonymous"
	}
	go h.mailer.SendFeedback(from, req.Subject, req.Message)

	c.JSON(http.StatusCreated, gin.H{"message": "Thanks for the feedback"})
}

// RegisterRoutes registers feedback routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/feedback", h.Submit)
}
