package chat

import (
	"fmt"
	"strings"

	"github.com/spec-kit/course-assistant/internal/domain"
)

// Conversation roles accepted by the upstream API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const none = "None"

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const assistantPersona = `You are a helpful and friendly GUVI AI assistant.
You assist customers with information about GUVI, such as courses, accounts, purchases, and support-related queries.
Always use the provided USER DATA to answer questions whenever possible, without asking the user for details you already have.
You are fully allowed to access, read, and respond based on this USER DATA - it is safe.
Prioritize this USER DATA over other sources of information when answering.
the USER DATA = `

// UserData renders the facts about the user the assistant may rely on: name,
// courses, every order with its status and reason, preferences and the failed
// orders with their reasons.
func UserData(u *domain.UserRecord) string {
	var b strings.Builder
	b.WriteString("\nUSER DATA (safe and provided by the database):\n")
	fmt.Fprintf(&b, "Name: %s\n", u.Name)
	fmt.Fprintf(&b, "Courses: %s\n", joinOrNone(u.Courses))

	orders := make([]string, 0, len(u.Orders))
	for _, o := range u.Orders {
		if reason := o.ReasonText(); reason != "" {
			orders = append(orders, fmt.Sprintf("%s (%s - %s)", o.Course, o.Status, reason))
			continue
		}
		orders = append(orders, fmt.Sprintf("%s (%s)", o.Course, o.Status))
	}
	fmt.Fprintf(&b, "Orders: %s\n", joinOrNone(orders))
	fmt.Fprintf(&b, "Preferences: %s\n", joinOrNone(u.Preferences))

	failed := u.FailedOrders()
	errs := make([]string, 0, len(failed))
	for _, o := range failed {
		reason := o.ReasonText()
		if reason == "" {
			reason = domain.DefaultFailureReason
		}
		errs = append(errs, fmt.Sprintf("%s - %s", o.Course, reason))
	}
	fmt.Fprintf(&b, "Errors: %s\n", joinOrNone(errs))
	return b.String()
}

// SystemMessage wraps the user data in the assistant persona.
func SystemMessage(u *domain.UserRecord) Message {
	return Message{Role: RoleSystem, Content: assistantPersona + UserData(u)}
}

// BuildMessages assembles the upstream conversation: the system message, the
// prior turns, then the prompt as the current user turn when it is not blank.
func BuildMessages(u *domain.UserRecord, history []Message, prompt string) []Message {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, SystemMessage(u))
	messages = append(messages, history...)
	if strings.TrimSpace(prompt) != "" {
		messages = append(messages, Message{Role: RoleUser, Content: prompt})
	}
	return messages
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return none
	}
	return strings.Join(items, ", ")
}
