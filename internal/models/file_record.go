package models

import (
	"fmt"
	"strings"
	"time"
)

// File type values stored in the file_type column.
const (
	FileTypeImage = "image"
	FileTypeVideo = "video"
	FileTypePDF   = "pdf"
)

// AnonymousViewer is the sentinel recorded in viewed_by when the viewer
// has no verified email.
const AnonymousViewer = "public-link"

// FileRecord is the persisted metadata for one uploaded file and its
// access rules. Views and ViewedBy are mutated only by the server-side
// view-consumption update, never from client-supplied values.
type FileRecord struct {
	ID                     string     `json:"id"`
	OwnerID                string     `json:"ownerId"`
	FileURL                string     `json:"fileUrl"`
	FileName               string     `json:"fileName"`
	FileType               string     `json:"fileType"`
	CreatedAt              time.Time  `json:"createdAt"`
	ExpiresAt              time.Time  `json:"expiresAt"`
	AllowedEmails          []string   `json:"allowedEmails"`
	SelfDestructAfterView  bool       `json:"selfDestructAfterView"`
	SelfDestructAfter10Sec bool       `json:"selfDestructAfter10Sec"`
	Views                  int64      `json:"views"`
	ViewedBy               []string   `json:"viewedBy"`
	ScanStatus             string     `json:"scanStatus,omitempty"`
	ScannedAt              *time.Time `json:"scannedAt,omitempty"`
}

// Validate rejects malformed records read from the store. Callers deny
// access on a validation failure instead of serving a half-formed row.
func (r *FileRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("file record missing id")
	}
	if r.OwnerID == "" {
		return fmt.Errorf("file record %s missing owner", r.ID)
	}
	if r.FileURL == "" {
		return fmt.Errorf("file record %s missing storage path", r.ID)
	}
	switch r.FileType {
	case FileTypeImage, FileTypeVideo, FileTypePDF:
	default:
		return fmt.Errorf("file record %s has unknown type %q", r.ID, r.FileType)
	}
	if r.ExpiresAt.IsZero() {
		return fmt.Errorf("file record %s missing expiry", r.ID)
	}
	if r.Views < 0 {
		return fmt.Errorf("file record %s has negative view count", r.ID)
	}
	return nil
}

// IsPublic reports whether anyone with the link may view the file.
func (r *FileRecord) IsPublic() bool {
	return len(r.AllowedEmails) == 0
}

// IsAllowedEmail reports whether email is on the restriction list.
// Stored entries are already lower-cased at upload time.
func (r *FileRecord) IsAllowedEmail(email string) bool {
	if email == "" {
		return false
	}
	email = strings.ToLower(email)
	for _, allowed := range r.AllowedEmails {
		if allowed == email {
			return true
		}
	}
	return false
}
