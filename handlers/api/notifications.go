package api

import (
	"bufio"
	"encoding/json"
	"sync"
	"time"

	"penpal/compose"
	"penpal/middleware"
	"penpal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/valyala/fasthttp"
)

// Notification is a localized toast pushed to the writer's open pages
type Notification struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Kind        compose.ToastKind `json:"kind"`
	Key         string            `json:"key"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Time        time.Time         `json:"time"`
}

type subscriber struct {
	userID    string
	localizer *i18n.Localizer
	ch        chan Notification
}

// NotificationHandler fans compose toasts out to SSE and WebSocket
// subscribers of the same user. It implements compose.Notifier.
type NotificationHandler struct {
	subscribers map[string]*subscriber
	mu          sync.RWMutex
	keepAlive   time.Duration
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler() *NotificationHandler {
	return &NotificationHandler{
		subscribers: make(map[string]*subscriber),
		keepAlive:   30 * time.Second,
	}
}

// Notify localizes toast for each of the user's subscribers and queues it.
// Subscribers with a full queue miss the toast.
func (h *NotificationHandler) Notify(userID string, toast compose.Toast) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for id, sub := range h.subscribers {
		if sub.userID != userID {
			continue
		}
		select {
		case sub.ch <- localize(sub.localizer, toast):
			delivered++
		default:
			utils.Log.Warn("Notification channel full for subscriber %s", id)
		}
	}
	utils.Log.Debug("toast %s for %s delivered to %d subscribers", toast.Key, userID, delivered)
}

func localize(loc *i18n.Localizer, toast compose.Toast) Notification {
	n := Notification{
		ID:          uuid.NewString(),
		Type:        "toast",
		Kind:        toast.Kind,
		Key:         toast.Key,
		Title:       utils.T(loc, "toast."+toast.Key+".title"),
		Description: toast.Description,
		Time:        time.Now(),
	}
	if n.Description == "" {
		n.Description = utils.T(loc, "toast."+toast.Key+".description")
	}
	return n
}

func (h *NotificationHandler) subscribe(userID string, loc *i18n.Localizer) (string, chan Notification) {
	id := uuid.NewString()
	ch := make(chan Notification, 10)

	h.mu.Lock()
	h.subscribers[id] = &subscriber{userID: userID, localizer: loc, ch: ch}
	h.mu.Unlock()
	return id, ch
}

func (h *NotificationHandler) unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subscribers[id]; ok {
		delete(h.subscribers, id)
		close(sub.ch)
	}
}

// SubscriberCount returns the number of open streams
func (h *NotificationHandler) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// HandleSSE streams the caller's toasts as Server-Sent Events
func (h *NotificationHandler) HandleSSE(c *fiber.Ctx) error {
	identity, err := IdentityFrom(c)
	if err != nil {
		return err
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")

	subscriberID, messageChan := h.subscribe(identity.UserID, middleware.GetLocalizerFromCtx(c))
	utils.Log.Info("SSE subscriber connected: %s", subscriberID)

	keepAlive := h.keepAlive
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer func() {
			h.unsubscribe(subscriberID)
			utils.Log.Info("SSE subscriber disconnected: %s", subscriberID)
		}()

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		for {
			select {
			case notification, ok := <-messageChan:
				if !ok {
					return
				}
				data, err := json.Marshal(notification)
				if err != nil {
					continue
				}
				w.WriteString("data: " + string(data) + "\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			case <-ticker.C:
				w.WriteString(": keepalive\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))

	return nil
}

// HandleWebSocket streams the caller's toasts as JSON messages
func (h *NotificationHandler) HandleWebSocket(c *websocket.Conn) {
	userID, _ := c.Locals(LocalUserID).(string)
	if userID == "" {
		c.Close()
		return
	}
	loc, _ := c.Locals("localizer").(*i18n.Localizer)
	if loc == nil {
		loc = utils.Localizer
	}

	subscriberID, messageChan := h.subscribe(userID, loc)
	utils.Log.Info("WebSocket subscriber connected: %s", subscriberID)

	// The reader notices the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		h.unsubscribe(subscriberID)
		c.Close()
		utils.Log.Info("WebSocket subscriber disconnected: %s", subscriberID)
	}()

	for {
		select {
		case notification, ok := <-messageChan:
			if !ok {
				return
			}
			if err := c.WriteJSON(notification); err != nil {
				utils.Log.Error("Failed to send WebSocket notification: %v", err)
				return
			}
		case <-closed:
			return
		}
	}
}

// UpgradeWebSocket only lets WebSocket upgrade requests through
func UpgradeWebSocket(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
