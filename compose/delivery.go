package compose

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"penpal/models"
	"penpal/utils"
)

const (
	defaultDeliveryDelay = 12 * time.Hour
	// ISO-8601 in UTC with milliseconds
	deliveryTimeLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Sender stores letters with the messaging service
type Sender interface {
	SendLetter(ctx context.Context, req models.SendLetterRequest) (*models.SendLetterResponse, error)
}

// DeliveryErrorKind classifies a failed send
type DeliveryErrorKind string

const (
	DeliveryRelationship DeliveryErrorKind = "relationship"
	DeliveryInvalidID    DeliveryErrorKind = "invalid_id"
	DeliveryGeneric      DeliveryErrorKind = "generic"
)

const (
	relationshipMessage = "Database relationship error. This may require database setup to link these users."
	invalidIDMessage    = "Invalid ID format. Please try again or select a different recipient."
	unknownErrorMessage = "Unknown error"
	sendFailedPrefix    = "Failed to send letter. "
)

// DeliveryError is a failed send with a message fit for the writer
type DeliveryError struct {
	Kind    DeliveryErrorKind
	Message string
	Err     error
}

func (e *DeliveryError) Error() string {
	return e.Message
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Inline is the message shown above the editor
func (e *DeliveryError) Inline() string {
	return sendFailedPrefix + e.Message
}

// ClassifyDeliveryError rewrites service errors the writer cannot act on.
// Constraint violations point at missing match setup, malformed ids ask
// for another recipient; anything else keeps its own message.
func ClassifyDeliveryError(err error) *DeliveryError {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de
	}

	msg := unknownErrorMessage
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}

	switch {
	case containsAny(msg, "foreign key", "FK", "violation", "constraint"):
		return &DeliveryError{Kind: DeliveryRelationship, Message: relationshipMessage, Err: err}
	case containsAny(msg, "uuid", "syntax"):
		return &DeliveryError{Kind: DeliveryInvalidID, Message: invalidIDMessage, Err: err}
	}
	return &DeliveryError{Kind: DeliveryGeneric, Message: msg, Err: err}
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// Letter is everything needed to send one letter
type Letter struct {
	SenderID     string
	SenderHandle string
	Recipient    models.Match
	Body         string
	Heading      string
	FooterPrefix string
	Styles       models.LetterStyles
}

// Receipt describes a letter accepted by the messaging service
type Receipt struct {
	MessageID           string `json:"message_id,omitempty"`
	ThreadID            string `json:"conversation_thread_id"`
	ScheduledDeliveryAt string `json:"scheduled_delivery_at"`
}

// Deliverer submits letters
type Deliverer struct {
	api   Sender
	delay time.Duration
	now   func() time.Time
	newID func() string
	log   *utils.Logger
}

// DelivererOption configures a Deliverer
type DelivererOption func(*Deliverer)

// WithDeliveryDelay sets how long after sending a letter is delivered
func WithDeliveryDelay(d time.Duration) DelivererOption {
	return func(dl *Deliverer) {
		if d > 0 {
			dl.delay = d
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) DelivererOption {
	return func(dl *Deliverer) {
		dl.now = now
	}
}

// WithIDGenerator replaces the generator of conversation thread ids
func WithIDGenerator(newID func() string) DelivererOption {
	return func(dl *Deliverer) {
		dl.newID = newID
	}
}

// NewDeliverer creates a deliverer sending through api
func NewDeliverer(api Sender, opts ...DelivererOption) *Deliverer {
	d := &Deliverer{
		api:   api,
		delay: defaultDeliveryDelay,
		now:   time.Now,
		newID: uuid.NewString,
		log:   utils.Log.WithField("component", "delivery"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Deliver sends the letter once. A recipient without a conversation gets a
// new thread id. Failures are returned as *DeliveryError.
func (d *Deliverer) Deliver(ctx context.Context, l Letter) (*Receipt, error) {
	threadID := l.Recipient.ConversationThreadID
	if !l.Recipient.HasThread() {
		threadID = d.newID()
	}
	scheduled := d.now().Add(d.delay).UTC().Format(deliveryTimeLayout)
	styles := l.Styles

	req := models.SendLetterRequest{
		MatchID:              l.Recipient.MatchID,
		SenderID:             l.SenderID,
		RecipientID:          l.Recipient.ID,
		ConversationThreadID: threadID,
		MessageContent:       utils.SanitizeLetterHTML(l.Body),
		LetterStyles:         &styles,
		ScheduledDeliveryAt:  scheduled,
		LetterHeading:        utils.SanitizeText(l.Heading),
		LetterFooter:         Footer(l.FooterPrefix, l.SenderHandle),
	}

	resp, err := d.api.SendLetter(ctx, req)
	if err != nil {
		de := ClassifyDeliveryError(err)
		d.log.Error("failed to send letter from %s to %s (%s): %v", l.SenderID, l.Recipient.ID, de.Kind, err)
		return nil, de
	}

	receipt := &Receipt{ThreadID: threadID, ScheduledDeliveryAt: scheduled}
	if resp != nil {
		receipt.MessageID = resp.MessageID
		if resp.ConversationThreadID != "" {
			receipt.ThreadID = resp.ConversationThreadID
		}
	}
	d.log.Info("letter sent: from=%s to=%s thread=%s", l.SenderID, l.Recipient.ID, receipt.ThreadID)
	return receipt, nil
}
