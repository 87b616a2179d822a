package enum

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CheckoutStepID identifies a step of the linear checkout flow
type CheckoutStepID int

const (
	CheckoutStepContact  CheckoutStepID = 0
	CheckoutStepAddress  CheckoutStepID = 1
	CheckoutStepShipping CheckoutStepID = 2
	CheckoutStepPayment  CheckoutStepID = 3
)

// CheckoutSteps is the fixed step ordering
var CheckoutSteps = []CheckoutStepID{
	CheckoutStepContact,
	CheckoutStepAddress,
	CheckoutStepShipping,
	CheckoutStepPayment,
}

var checkoutStepNames = [...]string{"contact", "address", "shipping", "payment"}

var checkoutStepLabels = [...]string{"Contact", "Address", "Shipping", "Payment"}

func (s CheckoutStepID) Valid() bool {
	return s >= CheckoutStepContact && s <= CheckoutStepPayment
}

func (s CheckoutStepID) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return checkoutStepNames[s]
}

// Label is the human readable step title
func (s CheckoutStepID) Label() string {
	if !s.Valid() {
		return ""
	}
	return checkoutStepLabels[s]
}

// Next returns the following step; payment is terminal and returns itself
func (s CheckoutStepID) Next() CheckoutStepID {
	if s >= CheckoutStepPayment {
		return CheckoutStepPayment
	}
	return s + 1
}

// Prev returns the preceding step; contact returns itself
func (s CheckoutStepID) Prev() CheckoutStepID {
	if s <= CheckoutStepContact {
		return CheckoutStepContact
	}
	return s - 1
}

// ParseCheckoutStepID parses a step name such as "shipping"
func ParseCheckoutStepID(name string) (CheckoutStepID, error) {
	for i, n := range checkoutStepNames {
		if strings.EqualFold(n, name) {
			return CheckoutStepID(i), nil
		}
	}
	return 0, fmt.Errorf("unknown checkout step %q", name)
}

func (s CheckoutStepID) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *CheckoutStepID) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = CheckoutStepID(i)
		return nil
	}
	parsed, err := ParseCheckoutStepID(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
