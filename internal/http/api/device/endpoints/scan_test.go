package endpoints

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/kiriha/internal/http/api"
	"github.com/Nixie-Tech-LLC/kiriha/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/kiriha/internal/nfc"
)

const roomID = "6f1c2b9e-1f2a-4c3d-9e8f-000000000003"

type recordingEmitter struct {
	scans []nfc.Scan
	err   error
}

func (e *recordingEmitter) Emit(_ context.Context, s nfc.Scan) error {
	if e.err != nil {
		return e.err
	}
	e.scans = append(e.scans, s)
	return nil
}

func newRouter(emitter nfc.Emitter, deviceKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api.MountGroup(r, api.GroupConfig{
		Prefix:     "/api",
		Middleware: []gin.HandlerFunc{middleware.DeviceKey(deviceKey)},
	}, ScanModule(emitter))
	return r
}

func post(r http.Handler, body, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/nfc/scan", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-Device-Key", key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPostScan(t *testing.T) {
	emitter := &recordingEmitter{}
	r := newRouter(emitter, "")

	before := time.Now()
	w := post(r, `{"card_id":"04A1B2","room_id":"`+roomID+`"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	require.Len(t, emitter.scans, 1)
	assert.Equal(t, "04A1B2", emitter.scans[0].CardID)
	assert.Equal(t, roomID, emitter.scans[0].RoomID)
	assert.False(t, emitter.scans[0].ScannedAt.Before(before))
}

func TestPostScanKeepsReaderTimestamp(t *testing.T) {
	emitter := &recordingEmitter{}
	r := newRouter(emitter, "")

	w := post(r, `{"card_id":"04A1B2","scanned_at":"2025-04-07T09:05:00+09:00"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, emitter.scans, 1)
	assert.Empty(t, emitter.scans[0].RoomID)
	assert.True(t, emitter.scans[0].ScannedAt.Equal(time.Date(2025, 4, 7, 0, 5, 0, 0, time.UTC)))
}

func TestPostScanValidation(t *testing.T) {
	emitter := &recordingEmitter{}
	r := newRouter(emitter, "")

	assert.Equal(t, http.StatusBadRequest, post(r, `{}`, "").Code)
	assert.Equal(t, http.StatusBadRequest, post(r, `{"card_id":"x","room_id":"lab-1"}`, "").Code)
	assert.Empty(t, emitter.scans)
}

func TestPostScanDeviceKey(t *testing.T) {
	emitter := &recordingEmitter{}
	r := newRouter(emitter, "k3y")

	assert.Equal(t, http.StatusUnauthorized, post(r, `{"card_id":"x"}`, "").Code)
	assert.Equal(t, http.StatusUnauthorized, post(r, `{"card_id":"x"}`, "wrong").Code)
	assert.Equal(t, http.StatusOK, post(r, `{"card_id":"x"}`, "k3y").Code)
	assert.Len(t, emitter.scans, 1)
}

func TestPostScanEmitFailure(t *testing.T) {
	r := newRouter(&recordingEmitter{err: errors.New("broker down")}, "")
	assert.Equal(t, http.StatusBadGateway, post(r, `{"card_id":"x"}`, "").Code)
}

func TestPostScanIntoFeed(t *testing.T) {
	feed := nfc.NewFeed(4)
	defer feed.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scans := feed.Subscribe(ctx)

	r := newRouter(feed, "")
	require.Equal(t, http.StatusOK, post(r, `{"card_id":"04A1B2"}`, "").Code)

	select {
	case s := <-scans:
		assert.Equal(t, "04A1B2", s.CardID)
	case <-time.After(time.Second):
		t.Fatal("scan was not published to the feed")
	}
}
