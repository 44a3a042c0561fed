package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/moodsvc/domain"
)

// MoodHandlers handles mood logging HTTP requests
type MoodHandlers struct {
	moodSvc domain.MoodService
}

// NewMoodHandlers creates new mood handlers
func NewMoodHandlers(moodSvc domain.MoodService) *MoodHandlers {
	return &MoodHandlers{moodSvc: moodSvc}
}

// LogMoodRequest represents a mood logging request
type LogMoodRequest struct {
	Mood string `json:"mood" binding:"required"`
	Note string `json:"note,omitempty"`
}

// Log creates a mood entry owned by the caller.
func (h *MoodHandlers) Log(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req LogMoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.moodSvc.Log(c.Request.Context(), userID, req.Mood, req.Note)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log mood"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data": gin.H{
			"id":         entry.ID,
			"mood":       entry.Mood,
			"note":       entry.Note,
			"created_at": entry.CreatedAt,
		},
	})
}

// History lists the caller's mood entries, newest first. The query is
// scoped to the authenticated identity; there is no way to read another
// user's entries through this endpoint.
func (h *MoodHandlers) History(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	entries, err := h.moodSvc.History(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load mood history"})
		return
	}

	out := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		out = append(out, gin.H{
			"id":         entry.ID,
			"mood":       entry.Mood,
			"note":       entry.Note,
			"created_at": entry.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": out})
}
