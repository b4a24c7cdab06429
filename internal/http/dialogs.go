package http

import "expensetracker/internal/form"

// DialogKind selects how a dialog is styled.
type DialogKind string

const (
	DialogWarning  DialogKind = "warning"
	DialogCritical DialogKind = "critical"
	DialogQuestion DialogKind = "question"
)

// Dialog is a message box rendered on top of the page.
type Dialog struct {
	Kind    DialogKind
	Title   string
	Message string
}

// Answer is the user's reply to a pending question, carried in the
// "confirm" form field.
type Answer int

const (
	Unanswered Answer = iota
	AnswerYes
	AnswerNo
)

// pageDialogs collects the dialogs raised while handling one request.
// A question without an answer is recorded as pending so the page can ask it.
type pageDialogs struct {
	answer  Answer
	shown   []Dialog
	pending *Dialog
}

var _ form.Dialogs = (*pageDialogs)(nil)

func newPageDialogs(answer Answer) *pageDialogs {
	return &pageDialogs{answer: answer}
}

func (d *pageDialogs) Warning(title, message string) {
	d.shown = append(d.shown, Dialog{Kind: DialogWarning, Title: title, Message: message})
}

func (d *pageDialogs) Critical(title, message string) {
	d.shown = append(d.shown, Dialog{Kind: DialogCritical, Title: title, Message: message})
}

func (d *pageDialogs) Question(title, message string) bool {
	switch d.answer {
	case AnswerYes:
		return true
	case AnswerNo:
		return false
	default:
		d.pending = &Dialog{Kind: DialogQuestion, Title: title, Message: message}
		return false
	}
}

// Shown returns the message dialogs in the order they were raised.
func (d *pageDialogs) Shown() []Dialog {
	return d.shown
}

// Pending returns the unanswered question, if any.
func (d *pageDialogs) Pending() *Dialog {
	return d.pending
}
