package breakpad_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mozilla/antenna/breakpad"
	"github.com/mozilla/antenna/crashreport"
	"github.com/mozilla/antenna/metrics"
	"github.com/mozilla/antenna/payload"
	"github.com/mozilla/antenna/throttler"
)

func multipartRequest(t *testing.T, fields map[string]string, dumpName string, dump []byte) *http.Request {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if dumpName != "" {
		part, err := w.CreatePart(textproto.MIMEHeader{
			"Content-Disposition": {`form-data; name="` + dumpName + `"; filename="` + dumpName + `"`},
			"Content-Type":        {"application/octet-stream"},
		})
		require.NoError(t, err)
		_, err = part.Write(dump)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	r := httptest.NewRequest(http.MethodPost, "/submit", bytes.NewReader(buf.Bytes()))
	r.Header.Set("Content-Type", w.FormDataContentType())
	r.ContentLength = int64(buf.Len())
	return r
}

// capturingStorage records every SaveRawCrash invocation so tests can
// inspect the metadata actually handed to storage, after the worker pool
// has drained it out of the queue.
type capturingStorage struct {
	mu    sync.Mutex
	saved map[string]crashreport.Metadata
}

func newCapturingStorage() *capturingStorage {
	return &capturingStorage{saved: map[string]crashreport.Metadata{}}
}

func (s *capturingStorage) SaveDumps(ctx context.Context, crashID string, dumps map[string][]byte) error {
	return nil
}

func (s *capturingStorage) SaveRawCrash(ctx context.Context, crashID string, metadata map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[crashID] = crashreport.Metadata(metadata)
	return nil
}

func (s *capturingStorage) get(crashID string) (crashreport.Metadata, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.saved[crashID]
	return m, ok
}

func newTestEndpoint(t *testing.T, th throttler.Throttler, storage *capturingStorage) (*breakpad.SubmissionEndpoint, *breakpad.SaveQueue, *breakpad.WorkerPool, *metrics.Recording) {
	t.Helper()
	m := metrics.NewRecording()
	cfg := breakpad.DefaultConfig()
	queue := &breakpad.SaveQueue{}
	pool := breakpad.NewWorkerPool(storage, queue, m, 1)
	endpoint := breakpad.NewSubmissionEndpoint(cfg, payload.New(m), th, queue, pool, m)
	return endpoint, queue, pool, m
}

func TestSubmissionEndpointAcceptEnqueuesAndRespondsWithCrashID(t *testing.T) {
	th := &stubThrottlerForEndpoint{decision: throttler.Accept, ruleName: "ACCEPT_ALL", percentage: 100}
	storage := newCapturingStorage()
	endpoint, _, pool, m := newTestEndpoint(t, th, storage)

	r := multipartRequest(t, map[string]string{"ProductName": "Firefox"}, "upload_file_minidump", []byte{0xAA, 0xBB, 0xCC})
	w := httptest.NewRecorder()

	endpoint.ServeHTTP(w, r)
	pool.JoinPool()

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))
	require.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("CrashID=bp-")))
	assert.Equal(t, 1, m.Count(metrics.CounterThrottleAccept))
	assert.Equal(t, 1, m.Count(metrics.CounterIncomingCrash))
	assert.Equal(t, 1, m.Count(metrics.CounterSaveCrashCount))

	crashID := bytes.TrimPrefix(bytes.TrimSuffix(w.Body.Bytes(), []byte("\n")), []byte("CrashID=bp-"))
	metadata, ok := storage.get(string(crashID))
	require.True(t, ok)
	assert.Equal(t, "Firefox", metadata["ProductName"])
	assert.Equal(t, 0, metadata[crashreport.KeyLegacyProcessing])
	assert.Equal(t, 100, metadata[crashreport.KeyThrottleRate])
	assert.Equal(t, "bp", metadata[crashreport.KeyTypeTag])
	assert.Equal(t, string(crashID), metadata[crashreport.KeyUUID])
}

func TestSubmissionEndpointRejectDoesNotEnqueue(t *testing.T) {
	th := &stubThrottlerForEndpoint{decision: throttler.Reject, ruleName: "REJECT_ALL", percentage: 100}
	storage := newCapturingStorage()
	endpoint, queue, pool, m := newTestEndpoint(t, th, storage)

	r := multipartRequest(t, map[string]string{"ProductName": "Firefox"}, "", nil)
	w := httptest.NewRecorder()

	endpoint.ServeHTTP(w, r)
	pool.JoinPool()

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Discarded=1", w.Body.String())
	assert.Equal(t, 0, queue.Len())
	assert.Equal(t, 1, m.Count(metrics.CounterThrottleReject))
	assert.Equal(t, 0, m.Count(metrics.CounterSaveCrashCount))
}

func TestSubmissionEndpointClientSuppliedUUIDReused(t *testing.T) {
	th := &stubThrottlerForEndpoint{decision: throttler.Accept, ruleName: "ACCEPT_ALL", percentage: 100}
	storage := newCapturingStorage()
	endpoint, _, pool, _ := newTestEndpoint(t, th, storage)

	r := multipartRequest(t, map[string]string{"uuid": "11111111-2222-3333-4444-555555555555"}, "", nil)
	w := httptest.NewRecorder()

	endpoint.ServeHTTP(w, r)
	pool.JoinPool()

	assert.Equal(t, "CrashID=bp-11111111-2222-3333-4444-555555555555\n", w.Body.String())
	_, ok := storage.get("11111111-2222-3333-4444-555555555555")
	assert.True(t, ok)
}

func TestSubmissionEndpointMalformedStillGetsCrashID(t *testing.T) {
	th := &stubThrottlerForEndpoint{decision: throttler.Accept, ruleName: "ACCEPT_ALL", percentage: 100}
	storage := newCapturingStorage()
	endpoint, _, pool, _ := newTestEndpoint(t, th, storage)

	r := httptest.NewRequest(http.MethodPost, "/submit", bytes.NewReader([]byte("garbage")))
	w := httptest.NewRecorder()

	endpoint.ServeHTTP(w, r)
	pool.JoinPool()

	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("CrashID=bp-")))
	assert.Equal(t, 1, len(storage.saved))
}

type stubThrottlerForEndpoint struct {
	decision   throttler.Decision
	ruleName   string
	percentage int
}

func (s *stubThrottlerForEndpoint) Throttle(crashreport.Metadata) (throttler.Decision, string, int) {
	return s.decision, s.ruleName, s.percentage
}
