package controller

import "fmt"

// Kind classifies a notification for display.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Notification is a one-shot, user-facing message.
type Notification struct {
	Kind Kind
	Text string
}

// Failed reports whether the notification describes a failure or rejection.
func (n Notification) Failed() bool {
	return n.Kind == KindError || n.Kind == KindWarning
}

// User-facing texts, one per operation outcome.
const (
	TextLoadFailed    = "Failed to load your royal tasks!"
	TextTitleRequired = "Please enter a royal task!"
	TextAdded         = "Royal task added to your kingdom!"
	TextAddFailed     = "Failed to add your royal task!"
	TextCompleted     = "Task completed! You are a magnificent princess!"
	TextReopened      = "Task reopened, Your Highness!"
	TextUpdateFailed  = "Failed to update your royal task!"
	TextDismissed     = "Royal task dismissed from your kingdom!"
	TextDismissedOnly = "Royal task dismissed!"
)

func loadedText(n int) string {
	switch n {
	case 0:
		return "Your kingdom is peaceful, Your Highness!"
	case 1:
		return "1 royal task awaits you."
	default:
		return fmt.Sprintf("%d royal tasks await you.", n)
	}
}
