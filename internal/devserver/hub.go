package devserver

import (
	"encoding/json"
	"sync"
	"time"

	"traffic-share-client/internal/common/logger"
	"traffic-share-client/internal/models"
)

// hub fans live events out to every socket of a user
type hub struct {
	mu      sync.RWMutex
	clients map[int64]map[chan []byte]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[int64]map[chan []byte]struct{})}
}

func (h *hub) register(telegramID int64) chan []byte {
	ch := make(chan []byte, 64)
	h.mu.Lock()
	if h.clients[telegramID] == nil {
		h.clients[telegramID] = make(map[chan []byte]struct{})
	}
	h.clients[telegramID][ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *hub) unregister(telegramID int64, ch chan []byte) {
	h.mu.Lock()
	delete(h.clients[telegramID], ch)
	if len(h.clients[telegramID]) == 0 {
		delete(h.clients, telegramID)
	}
	h.mu.Unlock()
}

func (h *hub) publish(telegramID int64, eventType, message string, data interface{}) {
	event := models.LiveEvent{
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			logger.Error().Err(err).Str("type", eventType).Msg("Failed to encode live event")
			return
		}
		event.Data = raw
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients[telegramID] {
		select {
		case ch <- payload:
		default:
			logger.Warn().Int64("telegram_id", telegramID).Msg("Live client too slow, dropping event")
		}
	}
}
