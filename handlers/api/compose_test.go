package api

import (
	"testing"
	"time"

	"penpal/compose"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newComposeApp(t *testing.T, b *backend, hub *NotificationHandler) *fiber.App {
	t.Helper()
	client := b.client(t)
	manager := compose.NewManager(time.Hour,
		compose.NewResolver(client, compose.WithRetryDelay(0)),
		compose.NewDeliverer(client),
		hub,
		compose.DefaultDraftOptions())
	t.Cleanup(manager.Close)

	h := NewComposeHandler(manager)
	app := fiber.New(fiber.Config{ErrorHandler: testErrorHandler})
	r := app.Group("/api", withIdentity("user-1", "sid-1"))
	r.Get("/compose", h.GetSession)
	r.Post("/compose/recipients", h.LoadRecipients)
	r.Put("/compose/recipient", h.SelectRecipient)
	r.Put("/compose/body", h.UpdateBody)
	r.Post("/compose/selection", h.UpdateSelection)
	r.Post("/compose/format", h.Format)
	r.Post("/compose/key", h.HandleKey)
	r.Post("/compose/undo", h.Undo)
	r.Post("/compose/redo", h.Redo)
	r.Put("/compose/letter", h.UpdateLetter)
	r.Post("/compose/template", h.ApplyTemplate)
	r.Post("/compose/send", h.Send)
	r.Post("/compose/reset", h.Reset)
	r.Get("/templates", h.Templates)
	return app
}

func TestComposeSendFlow(t *testing.T) {
	b := newBackend(t)
	hub := NewNotificationHandler()
	app := newComposeApp(t, b, hub)

	_, toasts := hub.subscribe("user-1", nil)

	status, view := doJSON(t, app, "GET", "/api/compose", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, view["loaded"])
	assert.Equal(t, false, view["can_send"])

	status, view = doJSON(t, app, "POST", "/api/compose/recipients", fiber.Map{"target": "pal-1"})
	require.Equal(t, fiber.StatusOK, status)
	recipient := view["recipient"].(map[string]interface{})
	assert.Equal(t, "pal-1", recipient["id"])
	assert.Equal(t, "thread-1", recipient["conversation_thread_id"])

	status, out := doJSON(t, app, "PUT", "/api/compose/body", fiber.Map{"content": "<p>Dear friend, autumn is here.</p>"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, out["changed"])
	view = out["view"].(map[string]interface{})
	assert.Equal(t, true, view["can_send"])

	status, out = doJSON(t, app, "POST", "/api/compose/send", nil)
	require.Equal(t, fiber.StatusOK, status)
	receipt := out["receipt"].(map[string]interface{})
	assert.Equal(t, "m-1", receipt["message_id"])
	assert.Equal(t, "thread-1", receipt["conversation_thread_id"])
	view = out["view"].(map[string]interface{})
	assert.Equal(t, true, view["sent"])
	assert.Equal(t, true, view["read_only"])

	require.Len(t, b.sends, 1)
	sent := b.sends[0]
	assert.Equal(t, "user-1", sent.SenderID)
	assert.Equal(t, "pal-1", sent.RecipientID)
	assert.Equal(t, "<p>Dear friend, autumn is here.</p>", sent.MessageContent)
	assert.Equal(t, "Yours, QuietOtter", sent.LetterFooter)

	select {
	case n := <-toasts:
		assert.Equal(t, compose.ToastLetterSent, n.Key)
		assert.Equal(t, compose.ToastSuccess, n.Kind)
	case <-time.After(time.Second):
		t.Fatal("no toast for the sent letter")
	}

	// Editing a sent letter is refused
	status, _ = doJSON(t, app, "PUT", "/api/compose/letter", fiber.Map{"heading": "Hi"})
	assert.Equal(t, fiber.StatusConflict, status)

	status, view = doJSON(t, app, "POST", "/api/compose/reset", fiber.Map{})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, view["sent"])
	assert.Equal(t, "", view["body"])
}

func TestComposeSendFailureIsClassified(t *testing.T) {
	b := newBackend(t)
	b.sendStatus = fiber.StatusInternalServerError
	b.sendDetail = "insert violates foreign key constraint"
	hub := NewNotificationHandler()
	app := newComposeApp(t, b, hub)
	_, toasts := hub.subscribe("user-1", nil)

	status, _ := doJSON(t, app, "POST", "/api/compose/recipients", fiber.Map{})
	require.Equal(t, fiber.StatusOK, status)

	status, out := doJSON(t, app, "POST", "/api/compose/send", nil)
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Contains(t, out["error"], "Failed to send letter. ")
	details := out["details"].(map[string]interface{})
	assert.Equal(t, "relationship", details["kind"])

	var keys []string
	for len(keys) < 2 {
		select {
		case n := <-toasts:
			keys = append(keys, n.Key)
		case <-time.After(time.Second):
			t.Fatalf("got toasts %v", keys)
		}
	}
	assert.ElementsMatch(t, []string{compose.ToastDatabaseSetup, compose.ToastSendFailed}, keys)

	_, view := doJSON(t, app, "GET", "/api/compose", nil)
	assert.Equal(t, false, view["sent"])
	assert.Contains(t, view["error"], "Failed to send letter. ")
}

func TestComposeErrorMapping(t *testing.T) {
	b := newBackend(t)
	app := newComposeApp(t, b, NewNotificationHandler())

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"send before recipients load", "POST", "/api/compose/send", nil, fiber.StatusBadRequest},
		{"unknown template", "POST", "/api/compose/template", fiber.Map{"template_id": "t9"}, fiber.StatusNotFound},
		{"unknown recipient", "PUT", "/api/compose/recipient", fiber.Map{"recipient_id": "nobody"}, fiber.StatusNotFound},
		{"unknown format", "POST", "/api/compose/format", fiber.Map{"format": "strike"}, fiber.StatusBadRequest},
		{"invalid font", "PUT", "/api/compose/letter", fiber.Map{"font_id": "comic"}, fiber.StatusBadRequest},
		{"selection required", "POST", "/api/compose/selection", fiber.Map{}, fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := doJSON(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, status)
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestComposeResetNeedsConfirmation(t *testing.T) {
	app := newComposeApp(t, newBackend(t), NewNotificationHandler())

	status, out := doJSON(t, app, "POST", "/api/compose/reset", fiber.Map{"confirmed": false})
	assert.Equal(t, fiber.StatusConflict, status)
	details := out["details"].(map[string]interface{})
	assert.Equal(t, true, details["needs_confirmation"])

	status, view := doJSON(t, app, "POST", "/api/compose/reset", fiber.Map{"confirmed": true})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "", view["body"])
}

func TestComposeEditingRoutes(t *testing.T) {
	app := newComposeApp(t, newBackend(t), NewNotificationHandler())

	status, _ := doJSON(t, app, "PUT", "/api/compose/body", fiber.Map{"content": "<p>hello there</p>"})
	require.Equal(t, fiber.StatusOK, status)

	selection := fiber.Map{
		"start": fiber.Map{"path": []int{0, 0}, "offset": 0},
		"end":   fiber.Map{"path": []int{0, 0}, "offset": 11},
	}
	status, out := doJSON(t, app, "POST", "/api/compose/format", fiber.Map{"format": "unorderedList", "selection": selection})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, out["changed"])
	view := out["view"].(map[string]interface{})
	assert.Equal(t, "<ul><li>hello there</li></ul>", view["body"])

	status, out = doJSON(t, app, "POST", "/api/compose/key", fiber.Map{"key": "z", "mod": true})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "undo", out["command"])
	assert.Equal(t, true, out["changed"])
	assert.Equal(t, "<p>hello there</p>", out["view"].(map[string]interface{})["body"])

	status, out = doJSON(t, app, "POST", "/api/compose/redo", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, out["changed"])

	status, out = doJSON(t, app, "POST", "/api/compose/key", fiber.Map{"key": "k", "mod": true})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "toggleFontPicker", out["command"])
	assert.Equal(t, false, out["changed"])

	status, view = doJSON(t, app, "PUT", "/api/compose/letter", fiber.Map{"heading": "Dear <b>pal</b>,", "font_id": "serif", "font_size": 20})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Dear pal,", view["heading"])
	assert.Equal(t, "serif", view["font_id"])
	assert.EqualValues(t, 20, view["font_size"])

	status, view = doJSON(t, app, "POST", "/api/compose/template", fiber.Map{"template_id": "t1"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, view["can_undo"])

	status, out = doJSON(t, app, "GET", "/api/templates", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, out["templates"], 3)
}

func TestComposeSessionsArePerBrowser(t *testing.T) {
	b := newBackend(t)
	client := b.client(t)
	manager := compose.NewManager(time.Hour, compose.NewResolver(client), compose.NewDeliverer(client), nil, compose.DefaultDraftOptions())
	defer manager.Close()
	h := NewComposeHandler(manager)

	app := fiber.New(fiber.Config{ErrorHandler: testErrorHandler})
	app.Put("/a/body", withIdentity("user-1", "sid-a"), h.UpdateBody)
	app.Get("/a", withIdentity("user-1", "sid-a"), h.GetSession)
	app.Get("/b", withIdentity("user-1", "sid-b"), h.GetSession)
	app.Get("/anon", h.GetSession)

	status, _ := doJSON(t, app, "PUT", "/a/body", fiber.Map{"content": "<p>only in a</p>"})
	require.Equal(t, fiber.StatusOK, status)

	_, a := doJSON(t, app, "GET", "/a", nil)
	_, bView := doJSON(t, app, "GET", "/b", nil)
	assert.Equal(t, "<p>only in a</p>", a["body"])
	assert.NotEqual(t, a["body"], bView["body"])

	status, _ = doJSON(t, app, "GET", "/anon", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}
