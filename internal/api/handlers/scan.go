package handlers

import (
	"context"
	"os"
	"path/filepath"
	"time"

	clamd "github.com/dutchcoders/go-clamd"
	"go.uber.org/zap"

	"github.com/VanishVault/Vault-Service/internal/models"
)

// scanUpload runs the uploaded blob through ClamAV in the background.
// Infected uploads are purged outright: blob first, then record. Clean
// uploads get their scan status stamped.
func (h *FileHandler) scanUpload(rec models.FileRecord) {
	if h.CLAMAVURL == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	tempPath := filepath.Join(os.TempDir(), "vault-scan-"+rec.ID)
	if err := h.Blobs.Download(ctx, rec.FileURL, tempPath); err != nil {
		zap.S().Warnf("failed to download %s for scanning: %v", rec.ID, err)
		return
	}
	defer os.Remove(tempPath)

	scanner := clamd.NewClamd(h.CLAMAVURL)
	response, err := scanner.ScanFile(tempPath)
	if err != nil {
		zap.S().Warnf("scan failed for %s: %v", rec.ID, err)
		return
	}

	for res := range response {
		if res.Status == clamd.RES_FOUND {
			zap.S().Warnf("virus detected in %s: %s", rec.ID, res.Description)
			if err := h.Blobs.Remove(ctx, rec.FileURL); err != nil {
				zap.S().Errorf("failed to delete infected blob %s: %v", rec.FileURL, err)
				return
			}
			if err := h.Records.Delete(ctx, rec.ID); err != nil {
				zap.S().Errorf("failed to delete infected record %s: %v", rec.ID, err)
			}
			return
		}
	}

	if err := h.Records.UpdateScanStatus(ctx, rec.ID, "clean", time.Now()); err != nil {
		zap.S().Warnf("failed to update scan status for %s: %v", rec.ID, err)
	}
}
