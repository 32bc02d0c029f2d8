package compose

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"penpal/messaging"
	"penpal/models"
)

var fixedNow = time.Date(2026, 10, 15, 8, 30, 0, 123000000, time.UTC)

func testLetter(recipient models.Match) Letter {
	return Letter{
		SenderID:     "me",
		SenderHandle: "QuietOtter",
		Recipient:    recipient,
		Body:         "<p>Hello there</p>",
		Heading:      "To a kindred spirit,",
		FooterPrefix: "Yours,",
		Styles:       models.LetterStyles{FontSize: 16, FontFamily: "handwritten"},
	}
}

func TestDeliverNewThread(t *testing.T) {
	sender := &fakeSender{resp: &models.SendLetterResponse{MessageID: "m-1"}}
	d := NewDeliverer(sender,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { return "thread-new" }),
	)

	receipt, err := d.Deliver(context.Background(), testLetter(models.Match{ID: "pal", MatchID: ""}))
	require.NoError(t, err)

	reqs := sender.sent()
	require.Len(t, reqs, 1)
	assert.Equal(t, models.SendLetterRequest{
		MatchID:              "",
		SenderID:             "me",
		RecipientID:          "pal",
		ConversationThreadID: "thread-new",
		MessageContent:       "<p>Hello there</p>",
		LetterStyles:         &models.LetterStyles{FontSize: 16, FontFamily: "handwritten"},
		ScheduledDeliveryAt:  "2026-10-15T20:30:00.123Z",
		LetterHeading:        "To a kindred spirit,",
		LetterFooter:         "Yours, QuietOtter",
	}, reqs[0])

	assert.Equal(t, &Receipt{MessageID: "m-1", ThreadID: "thread-new", ScheduledDeliveryAt: "2026-10-15T20:30:00.123Z"}, receipt)
}

func TestDeliverKeepsExistingThread(t *testing.T) {
	sender := &fakeSender{resp: &models.SendLetterResponse{ConversationThreadID: "thread-server"}}
	d := NewDeliverer(sender, WithIDGenerator(func() string {
		t.Fatal("no id should be generated")
		return ""
	}))

	receipt, err := d.Deliver(context.Background(), testLetter(models.Match{ID: "pal", ConversationThreadID: "thread-old", MatchID: "match-1"}))
	require.NoError(t, err)
	assert.Equal(t, "thread-old", sender.sent()[0].ConversationThreadID)
	assert.Equal(t, "match-1", sender.sent()[0].MatchID)
	// the server's thread id wins
	assert.Equal(t, "thread-server", receipt.ThreadID)
}

func TestDeliverUsesConfiguredDelay(t *testing.T) {
	sender := &fakeSender{}
	d := NewDeliverer(sender,
		WithClock(func() time.Time { return fixedNow }),
		WithDeliveryDelay(time.Hour),
	)

	receipt, err := d.Deliver(context.Background(), testLetter(models.Match{ID: "pal"}))
	require.NoError(t, err)
	assert.Equal(t, "2026-10-15T09:30:00.123Z", receipt.ScheduledDeliveryAt)
	assert.NotEmpty(t, receipt.ThreadID)
}

func TestDeliverFailureIsClassified(t *testing.T) {
	sender := &fakeSender{err: &messaging.APIError{Status: 400, Message: "Request failed: insert violates foreign key constraint"}}
	d := NewDeliverer(sender)

	_, err := d.Deliver(context.Background(), testLetter(models.Match{ID: "pal"}))
	var de *DeliveryError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, DeliveryRelationship, de.Kind)
	assert.Equal(t, 400, messaging.StatusOf(err))
	assert.Len(t, sender.sent(), 1)
}

func TestClassifyDeliveryError(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		kind    DeliveryErrorKind
		message string
	}{
		{"foreign key", errors.New("violates foreign key constraint"), DeliveryRelationship, relationshipMessage},
		{"fk name", errors.New("FK_messages_match"), DeliveryRelationship, relationshipMessage},
		{"check violation", errors.New("check violation"), DeliveryRelationship, relationshipMessage},
		{"uuid", errors.New("invalid input for type uuid"), DeliveryInvalidID, invalidIDMessage},
		{"syntax", errors.New("invalid input syntax"), DeliveryInvalidID, invalidIDMessage},
		{"generic", errors.New("service unavailable"), DeliveryGeneric, "service unavailable"},
		{"empty", errors.New(""), DeliveryGeneric, "Unknown error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			de := ClassifyDeliveryError(tc.err)
			assert.Equal(t, tc.kind, de.Kind)
			assert.Equal(t, tc.message, de.Message)
			assert.Equal(t, "Failed to send letter. "+tc.message, de.Inline())
			assert.ErrorIs(t, de, tc.err)
		})
	}
}
