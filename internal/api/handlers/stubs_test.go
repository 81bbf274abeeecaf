package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/VanishVault/Vault-Service/cmd/middleware"
	"github.com/VanishVault/Vault-Service/internal/models"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type recordStoreStub struct {
	records      map[string]models.FileRecord
	consumeCalls int
	deleted      []string
	saveErr      error
	consumeErr   error
	deleteErr    error
}

func newRecordStoreStub(recs ...models.FileRecord) *recordStoreStub {
	s := &recordStoreStub{records: map[string]models.FileRecord{}}
	for _, rec := range recs {
		s.records[rec.ID] = rec
	}
	return s
}

func (s *recordStoreStub) Save(_ context.Context, rec models.FileRecord) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *recordStoreStub) Get(_ context.Context, fileID string) (models.FileRecord, bool) {
	rec, ok := s.records[fileID]
	return rec, ok
}

func (s *recordStoreStub) ConsumeView(_ context.Context, fileID, viewer string) (int64, error) {
	if s.consumeErr != nil {
		return 0, s.consumeErr
	}
	rec, ok := s.records[fileID]
	if !ok {
		return 0, fmt.Errorf("file %s no longer exists", fileID)
	}
	rec.Views++
	seen := false
	for _, v := range rec.ViewedBy {
		if v == viewer {
			seen = true
			break
		}
	}
	if !seen {
		rec.ViewedBy = append(rec.ViewedBy, viewer)
	}
	s.records[fileID] = rec
	s.consumeCalls++
	return rec.Views, nil
}

func (s *recordStoreStub) Delete(_ context.Context, fileID string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.records, fileID)
	s.deleted = append(s.deleted, fileID)
	return nil
}

func (s *recordStoreStub) ListByOwner(_ context.Context, ownerID string) ([]models.FileRecord, error) {
	var out []models.FileRecord
	for _, rec := range s.records {
		if rec.OwnerID == ownerID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *recordStoreStub) UpdateScanStatus(_ context.Context, fileID, status string, scannedAt time.Time) error {
	rec, ok := s.records[fileID]
	if !ok {
		return fmt.Errorf("file %s no longer exists", fileID)
	}
	rec.ScanStatus = status
	rec.ScannedAt = &scannedAt
	s.records[fileID] = rec
	return nil
}

type blobStoreStub struct {
	uploaded  []string
	removed   []string
	uploadErr error
	removeErr error
}

func (s *blobStoreStub) Upload(_ context.Context, objectName string, _ io.Reader, _ int64, _ string) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.uploaded = append(s.uploaded, objectName)
	return nil
}

func (s *blobStoreStub) Download(_ context.Context, _, _ string) error {
	return fmt.Errorf("not supported in tests")
}

func (s *blobStoreStub) PresignedGet(_ context.Context, objectName string, _ time.Duration) (string, error) {
	return "https://blobs.test/" + objectName + "?sig=stub", nil
}

func (s *blobStoreStub) Remove(_ context.Context, objectName string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	s.removed = append(s.removed, objectName)
	return nil
}

type eventsStub struct {
	subjects []string
}

func (s *eventsStub) Publish(subject string, _ interface{}) error {
	s.subjects = append(s.subjects, subject)
	return nil
}

func newTestHandler(records *recordStoreStub, blobs *blobStoreStub) (*FileHandler, *eventsStub) {
	events := &eventsStub{}
	h := NewFileHandler(records, blobs, events, 2*time.Minute, "")
	h.now = func() time.Time { return testNow }
	return h, events
}

func sharedRecord() models.FileRecord {
	return models.FileRecord{
		ID:        "f1",
		OwnerID:   "U1",
		FileURL:   "uploads/U1/f1",
		FileName:  "photo.png",
		FileType:  models.FileTypeImage,
		CreatedAt: testNow.Add(-time.Hour),
		ExpiresAt: testNow.Add(time.Hour),
	}
}

func viewContext(w *httptest.ResponseRecorder, fileID string) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/view/"+fileID, nil)
	c.Params = gin.Params{{Key: "fileId", Value: fileID}}
	return c
}

func authenticate(c *gin.Context, userID, email string) {
	c.Set(middleware.ContextUserID, userID)
	if email != "" {
		c.Set(middleware.ContextUserEmail, email)
	}
}
