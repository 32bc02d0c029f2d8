package compose

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"penpal/editor"
	"penpal/models"
	"penpal/utils"
)

var (
	// ErrNotReady is returned when an action's preconditions do not hold
	ErrNotReady = errors.New("compose session is not ready")
	// ErrBusy is returned while the same operation is still running
	ErrBusy = errors.New("operation already in progress")
	// ErrUnknownRecipient is returned for a recipient not in the list
	ErrUnknownRecipient = errors.New("unknown recipient")
	// ErrDiscardNeedsConfirmation guards an unsent draft against Reset
	ErrDiscardNeedsConfirmation = errors.New("discarding the draft needs confirmation")
)

const loadFailedMessage = "Failed to load matches. Please check your connection or try again later."

// Identity is the signed-in writer
type Identity struct {
	UserID string
	Handle string
}

// Session is one browser's compose screen: the draft, the recipient list
// and the delivery state. It is safe for concurrent use; network calls
// run without holding the lock.
type Session struct {
	mu sync.Mutex

	identity  Identity
	draft     *Draft
	resolver  *Resolver
	deliverer *Deliverer
	notifier  Notifier
	log       *utils.Logger

	matches   []models.Match
	selected  string
	loaded    bool
	searching bool
	sending   bool
	sent      bool
	errMsg    string
	receipt   *Receipt
}

// NewSession creates a session for identity with a fresh draft
func NewSession(identity Identity, resolver *Resolver, deliverer *Deliverer, notifier Notifier, opts DraftOptions) (*Session, error) {
	draft, err := NewDraft(opts)
	if err != nil {
		return nil, err
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Session{
		identity:  identity,
		draft:     draft,
		resolver:  resolver,
		deliverer: deliverer,
		notifier:  notifier,
		log:       utils.Log.WithField("user", identity.UserID),
	}, nil
}

// LoadRecipients fetches the recipient list and selects target, or the
// first recipient. On failure the error is kept for display and the draft
// is left alone.
func (s *Session) LoadRecipients(ctx context.Context, target string) error {
	s.mu.Lock()
	if s.identity.UserID == "" {
		s.mu.Unlock()
		return ErrNotReady
	}
	if s.searching {
		s.mu.Unlock()
		return ErrBusy
	}
	s.searching = true
	s.errMsg = ""
	userID := s.identity.UserID
	s.mu.Unlock()

	matches, err := s.resolver.SearchMatches(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.searching = false
	if err != nil {
		s.log.Error("failed to load recipients: %v", err)
		s.errMsg = loadFailedMessage
		s.notifier.Notify(userID, Toast{Kind: ToastError, Key: ToastLoadFailed})
		return fmt.Errorf("load recipients: %w", err)
	}

	s.matches = matches
	s.loaded = true
	s.selected, _ = SelectRecipient(matches, target)
	s.log.Debug("loaded %d recipients, selected %q", len(matches), s.selected)
	return nil
}

// SelectRecipient switches the recipient without any network call
func (s *Session) SelectRecipient(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recipientLocked(id) == nil {
		return ErrUnknownRecipient
	}
	s.selected = id
	return nil
}

func (s *Session) recipientLocked(id string) *models.Match {
	for i := range s.matches {
		if s.matches[i].ID == id {
			return &s.matches[i]
		}
	}
	return nil
}

// CanSend reports whether a recipient is selected, the body has text and
// no send is running
func (s *Session) CanSend() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canSendLocked()
}

func (s *Session) canSendLocked() bool {
	return s.recipientLocked(s.selected) != nil && !s.draft.IsEmpty() && !s.sending
}

// Send submits the letter to the selected recipient. Nothing is sent when
// CanSend is false. After success the body is read-only.
func (s *Session) Send(ctx context.Context) (*Receipt, error) {
	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if !s.canSendLocked() || s.identity.UserID == "" {
		s.mu.Unlock()
		return nil, ErrNotReady
	}
	recipient := *s.recipientLocked(s.selected)
	letter := Letter{
		SenderID:     s.identity.UserID,
		SenderHandle: s.identity.Handle,
		Recipient:    recipient,
		Body:         s.draft.Body(),
		Heading:      s.draft.Heading(),
		FooterPrefix: s.draft.FooterPrefix(),
		Styles:       s.draft.Styles(),
	}
	s.sending = true
	s.sent = false
	s.errMsg = ""
	s.mu.Unlock()

	receipt, err := s.deliverer.Deliver(ctx, letter)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sending = false
	userID := s.identity.UserID

	if err != nil {
		de := ClassifyDeliveryError(err)
		s.errMsg = de.Inline()
		if de.Kind == DeliveryRelationship {
			s.notifier.Notify(userID, Toast{Kind: ToastError, Key: ToastDatabaseSetup})
		}
		s.notifier.Notify(userID, Toast{Kind: ToastError, Key: ToastSendFailed, Description: de.Message})
		return nil, de
	}

	if m := s.recipientLocked(recipient.ID); m != nil {
		m.ConversationThreadID = receipt.ThreadID
	}
	s.sent = true
	s.receipt = receipt
	s.draft.Editor().SetReadOnly(true)
	s.notifier.Notify(userID, Toast{Kind: ToastSuccess, Key: ToastLetterSent})
	return receipt, nil
}

// Reset starts a new letter. An unsent draft with text is only discarded
// when confirmed is true.
func (s *Session) Reset(confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sending {
		return ErrBusy
	}
	if !confirmed && !s.sent && !s.draft.IsEmpty() {
		return ErrDiscardNeedsConfirmation
	}
	if err := s.draft.Editor().Reset(""); err != nil {
		return err
	}
	s.sent = false
	s.errMsg = ""
	s.receipt = nil
	return nil
}

// Edit replaces the body with what the writer typed
func (s *Session) Edit(content string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Edit(content)
}

// Select records the writer's selection
func (s *Session) Select(sel editor.Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Editor().Select(sel)
}

// Format toggles a formatting command over sel, or the current selection
func (s *Session) Format(kind editor.Format, sel *editor.Selection) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Editor().ToggleFormatting(kind, sel)
}

// HandleKey runs a keyboard shortcut
func (s *Session) HandleKey(k editor.KeyPress, sel *editor.Selection) (editor.Command, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Editor().HandleKey(k, sel)
}

func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Editor().Undo()
}

func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Editor().Redo()
}

// LetterSettings are the non-body parts of the letter. Nil fields are left
// unchanged.
type LetterSettings struct {
	Heading      *string `json:"heading"`
	FooterPrefix *string `json:"footer_prefix"`
	FontID       *string `json:"font_id"`
	FontSizePx   *int    `json:"font_size"`
}

// UpdateLetter applies settings. An invalid font leaves every setting
// untouched.
func (s *Session) UpdateLetter(settings LetterSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft.Editor().ReadOnly() {
		return editor.ErrReadOnly
	}

	if settings.FontID != nil || settings.FontSizePx != nil {
		id, size := "", 0
		if settings.FontID != nil {
			id = *settings.FontID
		}
		if settings.FontSizePx != nil {
			if *settings.FontSizePx == 0 {
				return fmt.Errorf("%w: size 0", ErrInvalidFont)
			}
			size = *settings.FontSizePx
		}
		if err := s.draft.SetFont(id, size); err != nil {
			return err
		}
	}
	if settings.Heading != nil {
		s.draft.SetHeading(*settings.Heading)
	}
	if settings.FooterPrefix != nil {
		s.draft.SetFooterPrefix(*settings.FooterPrefix)
	}
	return nil
}

// ApplyTemplate replaces the body with a template's text. The change can
// be undone.
func (s *Session) ApplyTemplate(id string) error {
	t, ok := FindTemplate(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTemplate, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.draft.Edit(TemplateBody(t))
	return err
}

// View is a snapshot of the session for rendering
type View struct {
	Body         string            `json:"body"`
	PlainText    string            `json:"plain_text"`
	Heading      string            `json:"heading"`
	FooterPrefix string            `json:"footer_prefix"`
	Footer       string            `json:"footer"`
	FontID       string            `json:"font_id"`
	FontSizePx   int               `json:"font_size"`
	Stats        Stats             `json:"stats"`
	Readability  CEFRLevel         `json:"readability"`
	Recipients   []models.Match    `json:"recipients"`
	Recipient    *models.Match     `json:"recipient,omitempty"`
	Selection    *editor.Selection `json:"selection,omitempty"`
	Loaded       bool              `json:"loaded"`
	Loading      bool              `json:"loading"`
	Sending      bool              `json:"sending"`
	Sent         bool              `json:"sent"`
	ReadOnly     bool              `json:"read_only"`
	CanSend      bool              `json:"can_send"`
	CanUndo      bool              `json:"can_undo"`
	CanRedo      bool              `json:"can_redo"`
	Error        string            `json:"error,omitempty"`
	Receipt      *Receipt          `json:"receipt,omitempty"`
}

// View returns a snapshot of the session
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	eng := s.draft.Editor()
	plain := s.draft.PlainText()
	v := View{
		Body:         s.draft.Body(),
		PlainText:    plain,
		Heading:      s.draft.Heading(),
		FooterPrefix: s.draft.FooterPrefix(),
		Footer:       Footer(s.draft.FooterPrefix(), s.identity.Handle),
		FontID:       s.draft.FontID(),
		FontSizePx:   s.draft.FontSizePx(),
		Stats:        GetStats(plain),
		Readability:  EstimateReadability(plain),
		Recipients:   append([]models.Match(nil), s.matches...),
		Loaded:       s.loaded,
		Loading:      s.searching,
		Sending:      s.sending,
		Sent:         s.sent,
		ReadOnly:     eng.ReadOnly(),
		CanSend:      s.canSendLocked(),
		CanUndo:      eng.CanUndo(),
		CanRedo:      eng.CanRedo(),
		Error:        s.errMsg,
		Receipt:      s.receipt,
	}
	if m := s.recipientLocked(s.selected); m != nil {
		r := *m
		v.Recipient = &r
	}
	if sel, ok := eng.Selection(); ok {
		v.Selection = &sel
	}
	return v
}
