package workflow

import "encoding/json"

// Role attributes a Turn to one side of the dialogue.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one immutable message in the conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Message string `json:"message"`
}

// Log is the append-only conversation record. Append never mutates the
// receiver's backing array, so a Log held by a snapshot is stable.
type Log struct {
	turns []Turn
}

// NewLog returns a Log holding the given turns in order.
func NewLog(turns ...Turn) Log {
	return Log{turns: append([]Turn{}, turns...)}
}

// Append returns a new Log with t added at the end.
func (l Log) Append(t ...Turn) Log {
	next := make([]Turn, 0, len(l.turns)+len(t))
	next = append(next, l.turns...)
	next = append(next, t...)
	return Log{turns: next}
}

// Len returns the number of turns.
func (l Log) Len() int {
	return len(l.turns)
}

// Turns returns a copy of the ordered turns.
func (l Log) Turns() []Turn {
	return append([]Turn{}, l.turns...)
}

// Last returns the final turn and false when the log is empty.
func (l Log) Last() (Turn, bool) {
	if len(l.turns) == 0 {
		return Turn{}, false
	}
	return l.turns[len(l.turns)-1], true
}

// HasPrefix reports whether prefix is an ordered prefix of l.
func (l Log) HasPrefix(prefix Log) bool {
	if prefix.Len() > l.Len() {
		return false
	}
	for i, t := range prefix.turns {
		if l.turns[i] != t {
			return false
		}
	}
	return true
}

func (l Log) clone() Log {
	return NewLog(l.turns...)
}

func (l Log) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Turns())
}

func (l *Log) UnmarshalJSON(data []byte) error {
	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return err
	}
	*l = NewLog(turns...)
	return nil
}
