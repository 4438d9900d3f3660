package device

// Action identifies a reminder command verb from the paired device.
type Action string

const (
	ActionAdd    Action = "add"
	ActionDelete Action = "delete"
	ActionClear  Action = "clear"
	ActionList   Action = "list"
)

// Valid reports whether the action is one the band understands.
// Unknown actions are ignored with a diagnostic, never an error back to the
// paired device.
func (a Action) Valid() bool {
	switch a {
	case ActionAdd, ActionDelete, ActionClear, ActionList:
		return true
	}
	return false
}

// CommandKind distinguishes between command kinds.
type CommandKind int

const (
	// CommandTimeSet is a clock synchronization push.
	CommandTimeSet CommandKind = iota + 1
	// CommandReminder is a reminder store operation.
	CommandReminder
)

// Command wraps the two inbound message forms for the command queue.
type Command struct {
	Kind     CommandKind
	TimeSet  *TimeSet
	Reminder *ReminderCommand
}

// TimeSet carries a clock push. Hour and Minute are mandatory; the optional
// fields are pointers so absence is distinguishable from zero. Absent fields
// take documented defaults at application time: Second becomes 0, calendar
// fields keep their current values.
type TimeSet struct {
	Hour   int
	Minute int
	Second *int
	Day    *int
	Month  *int
	Year   *int
}

// ReminderCommand carries one reminder store operation. Which fields are
// meaningful depends on Action: add uses Hour/Minute/Kind/Message, delete
// uses ID, clear and list carry nothing.
type ReminderCommand struct {
	Action  Action
	ID      int
	Hour    int
	Minute  int
	Kind    string
	Message string
}
