package leadform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	// StatusNewLead marks a ledger row that nobody has followed up on yet.
	StatusNewLead = "New Lead"

	// FallbackAck is sent when the generator comes back with no text.
	FallbackAck = "Thanks for reaching out! We'll be in touch soon."

	// TimestampLayout is the ledger timestamp format.
	TimestampLayout = "2006-01-02 15:04:05"
)

// Lead is a contact-form submission. Every field is optional and none is
// validated.
type Lead struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// UnmarshalJSON decodes a submission object. Non-string values are kept as
// their JSON text, so {"phone":5551234} yields Phone "5551234". A null field
// decodes to "".
func (l *Lead) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}

	var out Lead
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"name", &out.Name},
		{"email", &out.Email},
		{"phone", &out.Phone},
		{"message", &out.Message},
	} {
		v, err := fieldText(fields[f.key])
		if err != nil {
			return fmt.Errorf("field %q: %w", f.key, err)
		}
		*f.dst = v
	}

	*l = out
	return nil
}

func fieldText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0, bytes.Equal(raw, []byte("null")):
		return "", nil
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	default:
		return string(raw), nil
	}
}

// Entry is the ledger projection of a Lead.
type Entry struct {
	Lead
	Timestamp time.Time
	Status    string
}

// NewEntry stamps a lead for the ledger.
func NewEntry(lead Lead, now time.Time) Entry {
	return Entry{
		Lead:      lead,
		Timestamp: now,
		Status:    StatusNewLead,
	}
}

// Row returns the six ordered ledger columns.
func (e Entry) Row() []string {
	return []string{
		e.Name,
		e.Email,
		e.Phone,
		e.Message,
		e.Timestamp.Format(TimestampLayout),
		e.Status,
	}
}

// Acknowledgement is the reply mailed back to the submitter.
type Acknowledgement struct {
	To   string
	Name string
	Text string
}

// Prompt builds the generation prompt for a lead. Field values are embedded
// verbatim.
func Prompt(lead Lead) string {
	return fmt.Sprintf(`You are a friendly and professional business assistant.
A potential customer just submitted a contact form. Write a warm, personalized
response (2-3 sentences) thanking them for reaching out and letting them know
someone will follow up within 24 hours.

Customer Name: %s
Customer Email: %s
Customer Phone: %s
Their Message: %s`, lead.Name, lead.Email, lead.Phone, lead.Message)
}

// TextGenerator turns a prompt into generated text. An empty result is not
// an error.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Mailer delivers an acknowledgement email.
type Mailer interface {
	Send(ctx context.Context, ack Acknowledgement) error
}

// Ledger records leads for follow-up tracking.
type Ledger interface {
	Append(ctx context.Context, entry Entry) error
}
