package compose

// ToastKind is the look of a notification
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

// Message keys of the notifications raised by a compose session. The
// notification stream localizes "toast.<key>.title" and, when the toast
// carries no description, "toast.<key>.description".
const (
	ToastLetterSent    = "letter_sent"
	ToastDatabaseSetup = "database_setup"
	ToastSendFailed    = "send_failed"
	ToastLoadFailed    = "load_failed"
)

// Toast is a short notification for the writer
type Toast struct {
	Kind        ToastKind `json:"kind"`
	Key         string    `json:"key"`
	Description string    `json:"description,omitempty"`
}

// Notifier delivers toasts to a user's open pages
type Notifier interface {
	Notify(userID string, toast Toast)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, Toast) {}
