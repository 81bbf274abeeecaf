package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/VanishVault/Vault-Service/internal/access"
	"github.com/VanishVault/Vault-Service/internal/metrics"
)

// ViewFile handles GET /api/view/:fileId.
//
// The record is evaluated before anything is mutated; a denial at any
// stage never consumes a view. Missing records answer "destroyed" so a
// probe can't tell deleted from never-existed. On Allowed the view
// counter is consumed atomically and a short-lived signed URL for the
// blob is returned with the post-increment count.
func (h *FileHandler) ViewFile(c *gin.Context) {
	fileID := c.Param("fileId")
	ident := identityFromContext(c)
	ctx := c.Request.Context()

	verdict := access.Verdict{Decision: access.NotFound}
	rec, ok := h.Records.Get(ctx, fileID)
	if ok {
		verdict = access.Evaluate(&rec, ident, h.now())
	}

	switch verdict.Decision {
	case access.NotFound:
		metrics.ViewsDenied.WithLabelValues(verdict.Decision.String()).Inc()
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "reason": "destroyed"})
		return
	case access.Expired:
		metrics.ViewsDenied.WithLabelValues(verdict.Decision.String()).Inc()
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "reason": "expired"})
		return
	case access.Restricted:
		metrics.ViewsDenied.WithLabelValues(verdict.Decision.String()).Inc()
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "reason": "restricted", "needsAuth": verdict.NeedsAuth})
		return
	case access.Destroyed:
		metrics.ViewsDenied.WithLabelValues(verdict.Decision.String()).Inc()
		c.JSON(http.StatusGone, gin.H{"ok": false, "reason": "destroyed"})
		return
	}

	viewer := ident.Viewer()
	views, err := h.Records.ConsumeView(ctx, rec.ID, viewer)
	if err != nil {
		zap.S().Errorf("failed to consume view for %s: %v", rec.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "reason": "internal"})
		return
	}

	signedURL, err := h.Blobs.PresignedGet(ctx, rec.FileURL, h.SignedURLTTL)
	if err != nil {
		zap.S().Errorf("failed to presign %s: %v", rec.FileURL, err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "reason": "internal"})
		return
	}

	metrics.ViewsConsumed.Inc()
	h.publish("files.viewed", map[string]interface{}{
		"file_id":   rec.ID,
		"viewer":    viewer,
		"views":     views,
		"viewed_at": h.now().UTC().Format(time.RFC3339),
	})

	c.JSON(http.StatusOK, gin.H{
		"ok": true,
		"file": gin.H{
			"id":                     rec.ID,
			"fileType":               rec.FileType,
			"signedUrl":              signedURL,
			"selfDestructAfterView":  rec.SelfDestructAfterView,
			"selfDestructAfter10Sec": rec.SelfDestructAfter10Sec,
			"views":                  views,
			"expiresAt":              rec.ExpiresAt.UTC().Format(time.RFC3339),
		},
	})
}
