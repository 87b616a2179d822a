package enum

import "encoding/json"

// AttemptStatus is the lifecycle of a payment attempt driven by the browser
type AttemptStatus int

const (
	AttemptStatusPending        AttemptStatus = 0 // dispatching or verifying
	AttemptStatusActionRequired AttemptStatus = 1 // browser must open the gateway
	AttemptStatusSucceeded      AttemptStatus = 2
	AttemptStatusFailed         AttemptStatus = 3
	AttemptStatusCancelled      AttemptStatus = 4
)

var attemptStatusNames = [...]string{"pending", "action_required", "succeeded", "failed", "cancelled"}

func (s AttemptStatus) String() string {
	if int(s) < 0 || int(s) >= len(attemptStatusNames) {
		return "pending"
	}
	return attemptStatusNames[s]
}

// Terminal reports whether the attempt has finished
func (s AttemptStatus) Terminal() bool {
	return s >= AttemptStatusSucceeded
}

func (s AttemptStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
