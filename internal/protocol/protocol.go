// Package protocol implements the band's wire formats: the two inbound
// command forms, the outbound reminder-list notification with its
// truncation policy, and the outbound alert text.
//
// The formats are a contract with the companion app. Changing a key, the
// payload budget, or the truncation rule breaks paired devices in the
// field; the golden files under testdata/golden pin the exact bytes.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Oluwatunmise116/caremini/internal/device"
)

const (
	// PayloadBudget caps one outbound notification, in serialized bytes.
	// Sized to fit a single transport frame on the band's radio.
	PayloadBudget = 500
	// summaryEntries is how many reminders survive truncation.
	summaryEntries = 3
	// summaryRunes is the message length kept under truncation.
	summaryRunes = 20
	// ellipsis marks a truncated message.
	ellipsis = "..."
)

// alertPrefix starts every alert text push.
const alertPrefix = "ALERT: "

// timeSetMessage is the inbound time-set form. Hour and minute are
// mandatory; the rest default on the band (second to 0, calendar fields
// to their current values).
type timeSetMessage struct {
	Hour   *int `json:"hour"`
	Minute *int `json:"minute"`
	Second *int `json:"second,omitempty"`
	Day    *int `json:"day,omitempty"`
	Month  *int `json:"month,omitempty"`
	Year   *int `json:"year,omitempty"`
}

// reminderMessage is the inbound reminder command form.
type reminderMessage struct {
	Action  string `json:"action"`
	ID      *int   `json:"id"`
	Hour    *int   `json:"hour"`
	Minute  *int   `json:"minute"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ReminderList is the outbound list notification.
type ReminderList struct {
	Action    string      `json:"action"` // always "reminder_list"
	Count     int         `json:"count"`  // total stored, not entries sent
	Reminders []ListEntry `json:"reminders"`
}

// ListEntry is one reminder as the companion sees it.
type ListEntry struct {
	ID      int    `json:"id"`
	Hour    int    `json:"hour"`
	Minute  int    `json:"minute"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ParseInbound decodes one raw inbound payload into a command.
//
// The two wire forms share the stream; the presence of an "action" key
// selects the reminder form, anything else parses as a time-set. Required
// fields missing from a known form yield a VALIDATION error and the caller
// drops the payload with a diagnostic. An unrecognized action parses
// cleanly: ignoring it is the engine's decision, not a parse failure.
func ParseInbound(raw []byte) (device.Command, error) {
	var probe struct {
		Action *string `json:"action"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return device.Command{}, device.NewValidationError("malformed payload: %v", err)
	}

	if probe.Action != nil {
		return parseReminder(raw)
	}
	return parseTimeSet(raw)
}

func parseTimeSet(raw []byte) (device.Command, error) {
	var msg timeSetMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return device.Command{}, device.NewValidationError("malformed time-set: %v", err)
	}
	if msg.Hour == nil || msg.Minute == nil {
		return device.Command{}, device.NewValidationError("time-set requires hour and minute")
	}

	return device.Command{
		Kind: device.CommandTimeSet,
		TimeSet: &device.TimeSet{
			Hour:   *msg.Hour,
			Minute: *msg.Minute,
			Second: msg.Second,
			Day:    msg.Day,
			Month:  msg.Month,
			Year:   msg.Year,
		},
	}, nil
}

func parseReminder(raw []byte) (device.Command, error) {
	var msg reminderMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return device.Command{}, device.NewValidationError("malformed reminder command: %v", err)
	}

	rc := device.ReminderCommand{Action: device.Action(msg.Action)}
	switch rc.Action {
	case device.ActionAdd:
		if msg.Hour == nil || msg.Minute == nil || msg.Type == "" || msg.Message == "" {
			return device.Command{}, device.NewValidationError("add requires hour, minute, type and message")
		}
		rc.Hour = *msg.Hour
		rc.Minute = *msg.Minute
		rc.Kind = msg.Type
		rc.Message = msg.Message
	case device.ActionDelete:
		if msg.ID == nil {
			return device.Command{}, device.NewValidationError("delete requires id")
		}
		rc.ID = *msg.ID
	case device.ActionClear, device.ActionList:
		// No payload beyond the action itself.
	default:
		// Unknown verbs pass through for the engine to ignore.
	}

	return device.Command{Kind: device.CommandReminder, Reminder: &rc}, nil
}

// EncodeTimeSet builds the wire form of a time push. Companion side.
func EncodeTimeSet(ts device.TimeSet) ([]byte, error) {
	hour, minute := ts.Hour, ts.Minute
	msg := timeSetMessage{
		Hour:   &hour,
		Minute: &minute,
		Second: ts.Second,
		Day:    ts.Day,
		Month:  ts.Month,
		Year:   ts.Year,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode time-set: %w", err)
	}
	return data, nil
}

// EncodeReminderCommand builds the wire form of a reminder command.
// Companion side. Fields irrelevant to the action are omitted.
func EncodeReminderCommand(rc device.ReminderCommand) ([]byte, error) {
	msg := map[string]any{"action": string(rc.Action)}
	switch rc.Action {
	case device.ActionAdd:
		msg["hour"] = rc.Hour
		msg["minute"] = rc.Minute
		msg["type"] = rc.Kind
		msg["message"] = rc.Message
	case device.ActionDelete:
		msg["id"] = rc.ID
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode reminder command: %w", err)
	}
	return data, nil
}

// EncodeReminderList builds the outbound list notification.
//
// The full list is tried first. If its serialized form exceeds
// PayloadBudget, the notification degrades to a summary: the first
// summaryEntries reminders with messages cut to summaryRunes runes plus an
// ellipsis. Count always reports the total stored so the companion knows
// entries were withheld.
func EncodeReminderList(reminders []device.Reminder) ([]byte, error) {
	full := ReminderList{
		Action:    "reminder_list",
		Count:     len(reminders),
		Reminders: entriesFrom(reminders, len(reminders), false),
	}
	data, err := json.Marshal(full)
	if err != nil {
		return nil, fmt.Errorf("encode reminder list: %w", err)
	}
	if len(data) <= PayloadBudget {
		return data, nil
	}

	summary := ReminderList{
		Action:    "reminder_list",
		Count:     len(reminders),
		Reminders: entriesFrom(reminders, summaryEntries, true),
	}
	data, err = json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("encode reminder summary: %w", err)
	}
	return data, nil
}

func entriesFrom(reminders []device.Reminder, limit int, truncate bool) []ListEntry {
	if limit > len(reminders) {
		limit = len(reminders)
	}
	entries := make([]ListEntry, 0, limit)
	for _, r := range reminders[:limit] {
		msg := r.Message
		if truncate {
			msg = TruncateMessage(msg)
		}
		entries = append(entries, ListEntry{
			ID:      r.ID,
			Hour:    r.Hour,
			Minute:  r.Minute,
			Type:    r.Kind,
			Message: msg,
		})
	}
	return entries
}

// TruncateMessage cuts a message to the summary length. Counting runes,
// not bytes, keeps multibyte text intact; messages are NFC-normalized on
// ingest so the count is stable.
func TruncateMessage(msg string) string {
	runes := []rune(msg)
	if len(runes) <= summaryRunes {
		return msg
	}
	return string(runes[:summaryRunes]) + ellipsis
}

// DecodeReminderList parses an outbound list notification. Companion side.
func DecodeReminderList(raw []byte) (*ReminderList, error) {
	var list ReminderList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode reminder list: %w", err)
	}
	if list.Action != "reminder_list" {
		return nil, fmt.Errorf("not a reminder list: action %q", list.Action)
	}
	return &list, nil
}

// EncodeAlert builds the alert text push for a fired reminder. This is the
// one non-JSON payload: plain text the companion shows as-is.
func EncodeAlert(kind, message string) []byte {
	return []byte(alertPrefix + kind + " - " + message)
}

// IsAlertText reports whether an outbound payload is an alert push.
func IsAlertText(raw []byte) bool {
	return bytes.HasPrefix(raw, []byte(alertPrefix))
}
