package koral

import (
	"encoding/json"
	"slices"
)

// Severity classifies a notification.
type Severity int

const (
	SeverityMessage Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "message"
	}
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Notification is one error, warning or message raised while compiling.
// Code 0 marks deprecation messages.
type Notification struct {
	Code     int      `json:"code"`
	Severity Severity `json:"severity"`
	Text     string   `json:"text"`
}

// Notifications is an ordered list of notifications.
type Notifications []Notification

func (n *Notifications) add(sev Severity, code int, text string) {
	*n = append(*n, Notification{Code: code, Severity: sev, Text: text})
}

func (n *Notifications) addMessage(code int, text string) { n.add(SeverityMessage, code, text) }
func (n *Notifications) addWarning(code int, text string) { n.add(SeverityWarning, code, text) }

func (n Notifications) filter(sev Severity) Notifications {
	var out Notifications
	for _, x := range n {
		if x.Severity == sev {
			out = append(out, x)
		}
	}
	return out
}

// Errors returns the error notifications.
func (n Notifications) Errors() Notifications { return n.filter(SeverityError) }

// Warnings returns the warning notifications.
func (n Notifications) Warnings() Notifications { return n.filter(SeverityWarning) }

// Messages returns the informational notifications.
func (n Notifications) Messages() Notifications { return n.filter(SeverityMessage) }

// Has reports whether any notification carries code.
func (n Notifications) Has(code int) bool {
	return slices.ContainsFunc(n, func(x Notification) bool { return x.Code == code })
}

// MarshalJSON renders the notifications grouped by severity as
// [code, text] pairs, omitting empty groups.
func (n Notifications) MarshalJSON() ([]byte, error) {
	groups := map[string][][2]any{}
	for _, x := range n {
		key := x.Severity.String() + "s"
		groups[key] = append(groups[key], [2]any{x.Code, x.Text})
	}
	return json.Marshal(groups)
}
