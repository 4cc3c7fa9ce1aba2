package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/clubcal/clubcal/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

const (
	streamBuffer    = 16
	streamKeepAlive = 25 * time.Second
)

// streamedEvents are forwarded to connected clients so they can refetch views.
var streamedEvents = []event_bus.EventType{
	event_bus.EventsSnapshotReplacedType,
	event_bus.SettingsUpdatedType,
	event_bus.HolidaysSeededType,
	event_bus.ExportCompletedType,
}

type streamMessage struct {
	Type event_bus.EventType
	Data any
}

// StreamHandler serves bus events as server-sent events.
type StreamHandler struct {
	bus *event_bus.EventBus
}

func NewStreamHandler(bus *event_bus.EventBus) *StreamHandler {
	return &StreamHandler{bus: bus}
}

func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Debugf("stream: cannot clear write deadline: %v", err)
	}

	messages := make(chan streamMessage, streamBuffer)
	for _, eventType := range streamedEvents {
		unsubscribe := h.bus.Subscribe(eventType, func(e event_bus.Event) error {
			select {
			case messages <- streamMessage{Type: e.Type, Data: e.Data}:
			default:
				log.Warnf("stream: client too slow, dropping %s", e.Type)
			}
			return nil
		})
		defer unsubscribe()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		log.Errorf("stream: response does not support flushing: %v", err)
		return
	}

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case msg := <-messages:
			data, err := json.Marshal(msg.Data)
			if err != nil {
				log.Errorf("stream: cannot encode %s: %v", msg.Type, err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
