package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shuttletrack/backend/services/telemetry-service/internal/broker"
)

type fakePublisher struct {
	topic   string
	payload []byte
}

func (f *fakePublisher) Publish(topic string, payload []byte) {
	f.topic = topic
	f.payload = payload
}

func TestRingHandlerPublishesCommand(t *testing.T) {
	pub := &fakePublisher{}
	h := NewRingHandler(pub, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/ring", strings.NewReader(`{"bus_mac":"AA:BB:CC:DD:EE:FF"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, broker.TopicRing, pub.topic)

	var cmd map[string]interface{}
	require.NoError(t, json.Unmarshal(pub.payload, &cmd))
	assert.Equal(t, "ring", cmd["command"])
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", cmd["bus_mac"])
	assert.NotZero(t, cmd["timestamp"])
}

func TestRingHandlerRejectsMissingMAC(t *testing.T) {
	pub := &fakePublisher{}
	h := NewRingHandler(pub, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/ring", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, pub.topic)
}

func TestRingHandlerRejectsBadJSON(t *testing.T) {
	pub := &fakePublisher{}
	h := NewRingHandler(pub, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/ring", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, pub.topic)
}
