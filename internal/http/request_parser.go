package http

import (
	"net/http"
	"strings"

	"expensetracker/internal/form"
)

// Form field names posted by the page.
const (
	fieldDate        = "date"
	fieldCategory    = "category"
	fieldAmount      = "amount"
	fieldDescription = "description"
	fieldSelected    = "selected"
	fieldConfirm     = "confirm"
)

// maxFormBytes bounds the posted body; the form has four short fields.
const maxFormBytes = 64 << 10

// addRequest is the parsed body of POST /expenses.
type addRequest struct {
	Inputs   form.Inputs
	Category string
}

// deleteRequest is the parsed body of POST /expenses/delete.
type deleteRequest struct {
	Selected string
	Answer   Answer
}

func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	return r.ParseForm()
}

// parseAddRequest reads the add inputs. Amount and description keep their
// spacing; category is kept as text and the form maps it onto its option index.
func parseAddRequest(r *http.Request) addRequest {
	return addRequest{
		Inputs: form.Inputs{
			Date:        sanitizeInput(r.PostFormValue(fieldDate)),
			Amount:      stripControl(r.PostFormValue(fieldAmount)),
			Description: stripControl(r.PostFormValue(fieldDescription)),
		},
		Category: sanitizeInput(r.PostFormValue(fieldCategory)),
	}
}

func parseDeleteRequest(r *http.Request) deleteRequest {
	return deleteRequest{
		Selected: sanitizeInput(r.PostFormValue(fieldSelected)),
		Answer:   parseAnswer(r.PostFormValue(fieldConfirm)),
	}
}

func parseAnswer(v string) Answer {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes":
		return AnswerYes
	case "no":
		return AnswerNo
	default:
		return Unanswered
	}
}
