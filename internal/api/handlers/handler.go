package handlers

import (
	"context"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/VanishVault/Vault-Service/cmd/middleware"
	"github.com/VanishVault/Vault-Service/internal/access"
	"github.com/VanishVault/Vault-Service/internal/models"
)

// RecordStore is the persistence surface the handlers mutate through.
// All counter/log writes happen inside the store so view counts can
// never be forged from a client-supplied value.
type RecordStore interface {
	Save(ctx context.Context, rec models.FileRecord) error
	Get(ctx context.Context, fileID string) (models.FileRecord, bool)
	ConsumeView(ctx context.Context, fileID, viewer string) (int64, error)
	Delete(ctx context.Context, fileID string) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.FileRecord, error)
	UpdateScanStatus(ctx context.Context, fileID, status string, scannedAt time.Time) error
}

// BlobStore holds the uploaded binaries.
type BlobStore interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, objectName, localFilePath string) error
	PresignedGet(ctx context.Context, objectName string, ttl time.Duration) (string, error)
	Remove(ctx context.Context, objectName string) error
}

// EventPublisher emits lifecycle events. Publish failures are advisory.
type EventPublisher interface {
	Publish(subject string, payload interface{}) error
}

// FileHandler serves the view/destroy/upload/list endpoints.
type FileHandler struct {
	Records      RecordStore
	Blobs        BlobStore
	Events       EventPublisher
	SignedURLTTL time.Duration
	CLAMAVURL    string

	now func() time.Time
}

func NewFileHandler(records RecordStore, blobs BlobStore, events EventPublisher, signedURLTTL time.Duration, clamAVURL string) *FileHandler {
	if signedURLTTL <= 0 {
		signedURLTTL = 2 * time.Minute
	}
	return &FileHandler{
		Records:      records,
		Blobs:        blobs,
		Events:       events,
		SignedURLTTL: signedURLTTL,
		CLAMAVURL:    clamAVURL,
		now:          time.Now,
	}
}

func (h *FileHandler) publish(subject string, payload interface{}) {
	if h.Events == nil {
		return
	}
	// Best effort; the mutation already happened.
	_ = h.Events.Publish(subject, payload)
}

func identityFromContext(c *gin.Context) access.Identity {
	var ident access.Identity
	if id, exists := c.Get(middleware.ContextUserID); exists {
		ident.UserID, _ = id.(string)
	}
	if email, exists := c.Get(middleware.ContextUserEmail); exists {
		ident.Email, _ = email.(string)
	}
	return ident
}

func userIDFromContext(c *gin.Context) (string, bool) {
	id, exists := c.Get(middleware.ContextUserID)
	if !exists {
		return "", false
	}
	userID, ok := id.(string)
	return userID, ok && userID != ""
}
