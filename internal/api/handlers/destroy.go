package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/VanishVault/Vault-Service/internal/access"
	"github.com/VanishVault/Vault-Service/internal/metrics"
)

type destroyRequest struct {
	FileID string `json:"fileId"`
}

// DestroyFile handles POST /api/destroy.
//
// Destruction is idempotent: a record that is already gone answers ok,
// and blob deletion tolerates an already-absent object. The blob goes
// first so a crash between the two deletes leaves a harmless dangling
// record rather than a reachable orphaned binary.
func (h *FileHandler) DestroyFile(c *gin.Context) {
	var req destroyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "reason": "missing-file-id"})
		return
	}

	ident := identityFromContext(c)
	ctx := c.Request.Context()

	rec, ok := h.Records.Get(ctx, req.FileID)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	if !access.CanDestroy(&rec, ident) {
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "reason": "forbidden"})
		return
	}

	if err := h.Blobs.Remove(ctx, rec.FileURL); err != nil {
		zap.S().Errorf("failed to delete blob %s: %v", rec.FileURL, err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "reason": "internal"})
		return
	}

	if err := h.Records.Delete(ctx, rec.ID); err != nil {
		zap.S().Errorf("failed to delete record %s: %v", rec.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "reason": "internal"})
		return
	}

	metrics.FilesDestroyed.Inc()
	h.publish("files.destroyed", map[string]interface{}{
		"file_id":      rec.ID,
		"owner_id":     rec.OwnerID,
		"destroyed_by": ident.Viewer(),
		"destroyed_at": h.now().UTC().Format(time.RFC3339),
	})

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
