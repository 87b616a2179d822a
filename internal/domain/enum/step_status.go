package enum

import "encoding/json"

// StepStatus is the display state of a checkout step
type StepStatus int

const (
	StepStatusUpcoming  StepStatus = 0
	StepStatusActive    StepStatus = 1
	StepStatusCompleted StepStatus = 2
)

func (s StepStatus) String() string {
	names := [...]string{"upcoming", "active", "completed"}
	if int(s) < 0 || int(s) >= len(names) {
		return "upcoming"
	}
	return names[s]
}

func (s StepStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
