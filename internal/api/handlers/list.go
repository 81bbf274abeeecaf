package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/VanishVault/Vault-Service/internal/models"
)

// ListFiles handles GET /api/files: the owner's dashboard listing.
func (h *FileHandler) ListFiles(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	files, err := h.Records.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		zap.S().Errorf("failed to list files for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch files"})
		return
	}
	if files == nil {
		files = []models.FileRecord{}
	}

	c.JSON(http.StatusOK, gin.H{"files": files})
}
