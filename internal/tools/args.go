package tools

import (
	"encoding/json"
	"regexp"
)

// emailPattern is the standard address shape checked before any
// persistence happens.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// sendMessageArgs are the typed arguments of the send_message tool.
type sendMessageArgs struct {
	ServiceID   string `json:"service_id"`
	SenderName  string `json:"sender_name"`
	SenderEmail string `json:"sender_email"`
	Message     string `json:"message"`
}

func (a *sendMessageArgs) validate() string {
	switch {
	case a.ServiceID == "":
		return "Missing required field: service_id."
	case a.SenderName == "":
		return "Missing required field: sender_name."
	case a.SenderEmail == "":
		return "Missing required field: sender_email."
	case a.Message == "":
		return "Missing required field: message."
	case !emailPattern.MatchString(a.SenderEmail):
		return "Invalid email format."
	}
	return ""
}

// requestQuoteArgs are the typed arguments of the request_quote tool.
type requestQuoteArgs struct {
	ServiceID          string `json:"service_id"`
	SenderName         string `json:"sender_name"`
	SenderEmail        string `json:"sender_email"`
	ProjectDescription string `json:"project_description"`
}

func (a *requestQuoteArgs) validate() string {
	switch {
	case a.ServiceID == "":
		return "Missing required field: service_id."
	case a.SenderName == "":
		return "Missing required field: sender_name."
	case a.SenderEmail == "":
		return "Missing required field: sender_email."
	case a.ProjectDescription == "":
		return "Missing required field: project_description."
	case !emailPattern.MatchString(a.SenderEmail):
		return "Invalid email format."
	}
	return ""
}

// decodeArgs unmarshals a raw argument bag into a typed struct. Absent
// arguments decode as the zero value and are caught by validate.
func decodeArgs(raw json.RawMessage, into any) string {
	if len(raw) == 0 {
		return ""
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return "Invalid arguments: " + err.Error()
	}
	return ""
}
