package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"shuttletrack/backend/services/telemetry-service/internal/broker"
)

// RingPublisher sends a command payload to the broker.
type RingPublisher interface {
	Publish(topic string, payload []byte)
}

// RingHandler forwards ring commands from riders to a shuttle's bell.
type RingHandler struct {
	publisher RingPublisher
	logger    *zap.Logger
}

// NewRingHandler returns handler for POST /api/ring.
func NewRingHandler(publisher RingPublisher, logger *zap.Logger) *RingHandler {
	return &RingHandler{publisher: publisher, logger: logger}
}

type ringRequest struct {
	BusMAC string `json:"bus_mac"`
}

type ringCommand struct {
	Command   string `json:"command"`
	BusMAC    string `json:"bus_mac"`
	Timestamp int64  `json:"timestamp"`
}

// ServeHTTP publishes a ring command for the requested shuttle.
func (h *RingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req ringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	req.BusMAC = strings.TrimSpace(req.BusMAC)
	if req.BusMAC == "" {
		writeError(w, http.StatusBadRequest, "bus_mac is required")
		return
	}

	cmd := ringCommand{
		Command:   "ring",
		BusMAC:    req.BusMAC,
		Timestamp: time.Now().Unix(),
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode command")
		return
	}

	h.publisher.Publish(broker.TopicRing, payload)
	h.logger.Info("ring command published", zap.String("mac", req.BusMAC))
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent", "bus_mac": req.BusMAC})
}
