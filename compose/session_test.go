package compose

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"penpal/editor"
	"penpal/messaging"
	"penpal/models"
)

var testIdentity = Identity{UserID: "me", Handle: "QuietOtter"}

func newTestSession(t *testing.T, searcher Searcher, sender Sender, notifier Notifier) *Session {
	t.Helper()
	s, err := NewSession(testIdentity, NewResolver(searcher, WithRetryDelay(0)), NewDeliverer(sender), notifier, DefaultDraftOptions())
	require.NoError(t, err)
	return s
}

func loadedSession(t *testing.T, sender Sender, notifier Notifier) *Session {
	t.Helper()
	searcher := &fakeSearcher{results: []searchResult{{resp: searchResponse(penPal("pal", "BraveFinch"))}}}
	s := newTestSession(t, searcher, sender, notifier)
	require.NoError(t, s.LoadRecipients(context.Background(), ""))
	return s
}

func TestSessionLoadRecipientsSelectsTarget(t *testing.T) {
	searcher := &fakeSearcher{results: []searchResult{{resp: searchResponse(
		penPal("a", "QuietOtter"),
		penPal("b", "BraveFinch"),
	)}}}
	s := newTestSession(t, searcher, &fakeSender{}, nil)

	require.NoError(t, s.LoadRecipients(context.Background(), "b"))
	v := s.View()
	assert.True(t, v.Loaded)
	require.NotNil(t, v.Recipient)
	assert.Equal(t, "b", v.Recipient.ID)
	assert.Len(t, v.Recipients, 2)

	require.NoError(t, s.SelectRecipient("a"))
	assert.Equal(t, "a", s.View().Recipient.ID)
	assert.ErrorIs(t, s.SelectRecipient("zzz"), ErrUnknownRecipient)
	assert.Equal(t, 1, searcher.calls())
}

func TestSessionLoadFailureKeepsDraft(t *testing.T) {
	searcher := &fakeSearcher{results: []searchResult{{err: &messaging.APIError{Status: 503, Message: "unavailable"}}}}
	notifier := &recordingNotifier{}
	s := newTestSession(t, searcher, &fakeSender{}, notifier)
	_, err := s.Edit("<p>My words</p>")
	require.NoError(t, err)

	err = s.LoadRecipients(context.Background(), "")
	require.Error(t, err)

	v := s.View()
	assert.Equal(t, "Failed to load matches. Please check your connection or try again later.", v.Error)
	assert.Equal(t, "<p>My words</p>", v.Body)
	assert.False(t, v.CanSend)
	assert.Equal(t, []string{ToastLoadFailed}, notifier.keys())
}

func TestSessionLoadNeedsUser(t *testing.T) {
	s, err := NewSession(Identity{}, NewResolver(&fakeSearcher{}), NewDeliverer(&fakeSender{}), nil, DefaultDraftOptions())
	require.NoError(t, err)
	assert.ErrorIs(t, s.LoadRecipients(context.Background(), ""), ErrNotReady)
}

func TestSessionSendPreconditions(t *testing.T) {
	t.Run("no recipient", func(t *testing.T) {
		sender := &fakeSender{}
		s := newTestSession(t, &fakeSearcher{}, sender, nil)

		_, err := s.Send(context.Background())
		assert.ErrorIs(t, err, ErrNotReady)
		assert.Empty(t, sender.sent())
	})

	t.Run("empty body", func(t *testing.T) {
		sender := &fakeSender{}
		s := loadedSession(t, sender, nil)
		_, err := s.Edit("<p>   </p>")
		require.NoError(t, err)

		assert.False(t, s.CanSend())
		_, err = s.Send(context.Background())
		assert.ErrorIs(t, err, ErrNotReady)
		assert.Empty(t, sender.sent())
	})

	t.Run("send in flight", func(t *testing.T) {
		sender := &fakeSender{entered: make(chan struct{}), release: make(chan struct{})}
		s := loadedSession(t, sender, nil)

		done := make(chan error, 1)
		go func() {
			_, err := s.Send(context.Background())
			done <- err
		}()
		<-sender.entered

		assert.False(t, s.CanSend())
		assert.True(t, s.View().Sending)
		_, err := s.Send(context.Background())
		assert.ErrorIs(t, err, ErrBusy)
		assert.ErrorIs(t, s.Reset(true), ErrBusy)

		close(sender.release)
		require.NoError(t, <-done)
		assert.Len(t, sender.sent(), 1)
	})
}

func TestSessionSendEndToEnd(t *testing.T) {
	sender := &fakeSender{resp: &models.SendLetterResponse{MessageID: "m-1"}}
	notifier := &recordingNotifier{}
	s := loadedSession(t, sender, notifier)

	_, err := s.Edit("Hello there")
	require.NoError(t, err)
	require.True(t, s.CanSend())

	before := time.Now()
	receipt, err := s.Send(context.Background())
	require.NoError(t, err)

	reqs := sender.sent()
	require.Len(t, reqs, 1)
	req := reqs[0]

	assert.NotEmpty(t, req.ConversationThreadID)
	_, err = uuid.Parse(req.ConversationThreadID)
	assert.NoError(t, err)
	assert.Equal(t, "Hello there", req.MessageContent)
	assert.Equal(t, "Yours, QuietOtter", req.LetterFooter)
	assert.Equal(t, "me", req.SenderID)
	assert.Equal(t, "pal", req.RecipientID)

	scheduled, err := time.Parse(time.RFC3339Nano, req.ScheduledDeliveryAt)
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(12*time.Hour), scheduled, 5*time.Second)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`, req.ScheduledDeliveryAt)

	v := s.View()
	assert.True(t, v.Sent)
	assert.True(t, v.ReadOnly)
	assert.Empty(t, v.Error)
	assert.Equal(t, receipt, v.Receipt)
	require.NotNil(t, v.Recipient)
	assert.Equal(t, req.ConversationThreadID, v.Recipient.ConversationThreadID)
	assert.Equal(t, []string{ToastLetterSent}, notifier.keys())

	_, err = s.Edit("<p>changed</p>")
	assert.ErrorIs(t, err, editor.ErrReadOnly)
}

func TestSessionSendFailure(t *testing.T) {
	sender := &fakeSender{err: &messaging.APIError{Status: 400, Message: "Request failed: violates foreign key constraint"}}
	notifier := &recordingNotifier{}
	s := loadedSession(t, sender, notifier)

	_, err := s.Send(context.Background())
	var de *DeliveryError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, DeliveryRelationship, de.Kind)

	v := s.View()
	assert.Equal(t, "Failed to send letter. "+relationshipMessage, v.Error)
	assert.False(t, v.Sent)
	assert.False(t, v.ReadOnly)
	assert.True(t, v.CanSend)
	assert.Equal(t, []string{ToastDatabaseSetup, ToastSendFailed}, notifier.keys())
	assert.Equal(t, relationshipMessage, notifier.toasts[1].Description)
	// no retry
	assert.Len(t, sender.sent(), 1)
}

func TestSessionReset(t *testing.T) {
	s := loadedSession(t, &fakeSender{}, nil)

	assert.ErrorIs(t, s.Reset(false), ErrDiscardNeedsConfirmation)
	assert.Equal(t, PlaceholderLetter, s.View().PlainText)

	require.NoError(t, s.Reset(true))
	v := s.View()
	assert.Empty(t, v.Body)
	assert.False(t, v.CanUndo)
	assert.False(t, v.CanSend)

	// an empty draft needs no confirmation
	require.NoError(t, s.Reset(false))
}

func TestSessionResetAfterSend(t *testing.T) {
	s := loadedSession(t, &fakeSender{}, nil)
	_, err := s.Send(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.Reset(false))
	v := s.View()
	assert.False(t, v.Sent)
	assert.False(t, v.ReadOnly)
	assert.Nil(t, v.Receipt)
	assert.Empty(t, v.Body)
}

func TestSessionUpdateLetter(t *testing.T) {
	s := loadedSession(t, &fakeSender{}, nil)
	heading := "Dear friend,"
	font := "comic"

	err := s.UpdateLetter(LetterSettings{Heading: &heading, FontID: &font})
	assert.ErrorIs(t, err, ErrInvalidFont)
	assert.Equal(t, "To a kindred spirit,", s.View().Heading)

	font = "typewriter"
	size := 20
	prefix := "Warmly,"
	require.NoError(t, s.UpdateLetter(LetterSettings{Heading: &heading, FooterPrefix: &prefix, FontID: &font, FontSizePx: &size}))

	v := s.View()
	assert.Equal(t, "Dear friend,", v.Heading)
	assert.Equal(t, "Warmly, QuietOtter", v.Footer)
	assert.Equal(t, "typewriter", v.FontID)
	assert.Equal(t, 20, v.FontSizePx)

	zero := 0
	assert.ErrorIs(t, s.UpdateLetter(LetterSettings{FontSizePx: &zero}), ErrInvalidFont)
}

func TestSessionApplyTemplate(t *testing.T) {
	s := loadedSession(t, &fakeSender{}, nil)

	require.NoError(t, s.ApplyTemplate("t3"))
	tpl, _ := FindTemplate("t3")
	assert.Equal(t, tpl.Content, s.View().PlainText)

	require.True(t, s.Undo())
	assert.Equal(t, PlaceholderLetter, s.View().PlainText)
	require.True(t, s.Redo())
	assert.Equal(t, tpl.Content, s.View().PlainText)

	assert.ErrorIs(t, s.ApplyTemplate("t9"), ErrUnknownTemplate)
}

func TestSessionFormatting(t *testing.T) {
	s := loadedSession(t, &fakeSender{}, nil)
	_, err := s.Edit("<p>Hello world</p>")
	require.NoError(t, err)

	sel := editor.Selection{
		Start: editor.Position{Path: []int{0, 0}, Offset: 0},
		End:   editor.Position{Path: []int{0, 0}, Offset: 5},
	}
	cmd, changed, err := s.HandleKey(editor.KeyPress{Key: "i", Mod: true}, &sel)
	require.NoError(t, err)
	assert.Equal(t, editor.CommandItalic, cmd)
	assert.True(t, changed)
	assert.Equal(t, "<p><em>Hello</em> world</p>", s.View().Body)

	s.Select(editor.Selection{
		Start: editor.Position{Path: []int{0, 1}, Offset: 0},
		End:   editor.Position{Path: []int{0, 1}, Offset: 6},
	})
	changed, err = s.Format(editor.FormatUnderline, nil)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "<p><em>Hello</em><u> world</u></p>", s.View().Body)
	assert.NotNil(t, s.View().Selection)
}
