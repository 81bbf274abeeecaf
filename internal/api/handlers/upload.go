package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VanishVault/Vault-Service/internal/metrics"
	"github.com/VanishVault/Vault-Service/internal/models"
	"github.com/VanishVault/Vault-Service/internal/services"
)

const maxUploadSize = 200 << 20 // 200 MB

// UploadFile handles POST /api/upload.
//
// Multipart form fields: file (required), expiry (10m|1h|24h|custom),
// customExpiresAt (RFC 3339, with expiry=custom), allowedEmails
// (comma-separated; empty means public), selfDestructAfterView,
// selfDestructAfter10Sec.
func (h *FileHandler) UploadFile(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}
	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large: " + fileHeader.Filename})
		return
	}

	now := h.now()
	rec := models.FileRecord{
		ID:                     uuid.New().String(),
		OwnerID:                userID,
		FileName:               fileHeader.Filename,
		FileType:               inferFileType(fileHeader),
		CreatedAt:              now,
		ExpiresAt:              resolveExpiry(c.PostForm("expiry"), c.PostForm("customExpiresAt"), now),
		AllowedEmails:          normalizeEmails(c.PostForm("allowedEmails")),
		SelfDestructAfterView:  c.PostForm("selfDestructAfterView") == "true",
		SelfDestructAfter10Sec: c.PostForm("selfDestructAfter10Sec") == "true",
	}
	rec.FileURL = fmt.Sprintf("uploads/%s/%s", userID, rec.ID)

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	contentType := contentTypeFor(fileHeader)
	if err := h.Blobs.Upload(ctx, rec.FileURL, file, fileHeader.Size, contentType); err != nil {
		zap.S().Errorf("failed to upload %s to storage: %v", rec.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload to storage"})
		return
	}

	if err := h.Records.Save(ctx, rec); err != nil {
		// cleanup object if the record write fails
		if delErr := h.Blobs.Remove(ctx, rec.FileURL); delErr != nil {
			zap.S().Warnf("failed to cleanup object after record save failure: %v", delErr)
		}
		zap.S().Errorf("failed to save record %s: %v", rec.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save file record"})
		return
	}

	metrics.FilesUploaded.Inc()
	h.publish("files.uploaded", map[string]interface{}{
		"file_id":     rec.ID,
		"object_name": rec.FileURL,
		"file_type":   rec.FileType,
		"size":        fileHeader.Size,
		"owner_id":    rec.OwnerID,
		"uploaded_at": rec.CreatedAt.UTC().Format(time.RFC3339),
	})

	go h.scanUpload(rec)

	c.JSON(http.StatusOK, gin.H{"file": rec})
}

// inferFileType buckets an upload into the three supported media kinds.
// Anything that isn't an image or video is served as a PDF.
func inferFileType(fh *multipart.FileHeader) string {
	contentType := fh.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return models.FileTypeImage
	case strings.HasPrefix(contentType, "video/"):
		return models.FileTypeVideo
	default:
		return models.FileTypePDF
	}
}

func contentTypeFor(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return services.GetContentType(strings.ToLower(filepath.Ext(fh.Filename)))
}

// resolveExpiry turns the expiry preset into an absolute timestamp.
// An unparseable custom timestamp falls back to the 10-minute default.
func resolveExpiry(preset, custom string, now time.Time) time.Time {
	switch preset {
	case "1h":
		return now.Add(time.Hour)
	case "24h":
		return now.Add(24 * time.Hour)
	case "custom":
		if t, err := time.Parse(time.RFC3339, custom); err == nil {
			return t
		}
		return now.Add(10 * time.Minute)
	default: // "10m" and anything unrecognized
		return now.Add(10 * time.Minute)
	}
}

// normalizeEmails splits a comma-separated restriction list, trimming
// and lower-casing entries. An empty result means public.
func normalizeEmails(raw string) []string {
	var emails []string
	for _, entry := range strings.Split(raw, ",") {
		if entry = strings.ToLower(strings.TrimSpace(entry)); entry != "" {
			emails = append(emails, entry)
		}
	}
	return emails
}
