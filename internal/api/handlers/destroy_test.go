package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func destroyContext(w *httptest.ResponseRecorder, body string) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/api/destroy", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c
}

func decodeDestroy(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestDestroyMissingFileID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newTestHandler(newRecordStoreStub(), &blobStoreStub{})

	for _, body := range []string{`{}`, `{"fileId":""}`, `not json`} {
		w := httptest.NewRecorder()
		h.DestroyFile(destroyContext(w, body))
		require.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
		assert.Equal(t, "missing-file-id", decodeDestroy(t, w)["reason"])
	}
}

func TestDestroyAbsentRecordIsSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	blobs := &blobStoreStub{}
	h, events := newTestHandler(newRecordStoreStub(), blobs)

	w := httptest.NewRecorder()
	h.DestroyFile(destroyContext(w, `{"fileId":"gone"}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeDestroy(t, w)["ok"])
	assert.Empty(t, blobs.removed)
	assert.Empty(t, events.subjects)
}

func TestDestroyForbiddenForOutsider(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := sharedRecord()
	rec.AllowedEmails = []string{"a@x.com"}
	records := newRecordStoreStub(rec)
	blobs := &blobStoreStub{}
	h, _ := newTestHandler(records, blobs)

	w := httptest.NewRecorder()
	c := destroyContext(w, `{"fileId":"f1"}`)
	authenticate(c, "U2", "b@x.com")
	h.DestroyFile(c)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", decodeDestroy(t, w)["reason"])
	assert.Empty(t, blobs.removed)
	assert.Empty(t, records.deleted)
}

func TestDestroyByOwnerRemovesBlobAndRecord(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := sharedRecord()
	rec.AllowedEmails = []string{"a@x.com"}
	records := newRecordStoreStub(rec)
	blobs := &blobStoreStub{}
	h, events := newTestHandler(records, blobs)

	w := httptest.NewRecorder()
	c := destroyContext(w, `{"fileId":"f1"}`)
	authenticate(c, "U1", "owner@x.com")
	h.DestroyFile(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"uploads/U1/f1"}, blobs.removed)
	assert.Equal(t, []string{"f1"}, records.deleted)
	assert.Equal(t, []string{"files.destroyed"}, events.subjects)
}

func TestDestroyPublicLinkByAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	records := newRecordStoreStub(sharedRecord())
	blobs := &blobStoreStub{}
	h, _ := newTestHandler(records, blobs)

	w := httptest.NewRecorder()
	h.DestroyFile(destroyContext(w, `{"fileId":"f1"}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"f1"}, records.deleted)
}

func TestDestroySelfDestructingLinkByViewer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := sharedRecord()
	rec.AllowedEmails = []string{"a@x.com"}
	rec.SelfDestructAfter10Sec = true
	records := newRecordStoreStub(rec)
	h, _ := newTestHandler(records, &blobStoreStub{})

	// The countdown fires from whoever is holding the tab open, so the
	// timer flag authorizes even an anonymous destroy call.
	w := httptest.NewRecorder()
	h.DestroyFile(destroyContext(w, `{"fileId":"f1"}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"f1"}, records.deleted)
}

func TestDestroyBlobFailureKeepsRecord(t *testing.T) {
	gin.SetMode(gin.TestMode)
	records := newRecordStoreStub(sharedRecord())
	blobs := &blobStoreStub{removeErr: assert.AnError}
	h, _ := newTestHandler(records, blobs)

	w := httptest.NewRecorder()
	h.DestroyFile(destroyContext(w, `{"fileId":"f1"}`))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, records.deleted)
}
