package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// PaymentProvider is the fulfillment path a payment goes through
type PaymentProvider int

const (
	PaymentProviderCOD      PaymentProvider = 0
	PaymentProviderRazorpay PaymentProvider = 1
	PaymentProviderStripe   PaymentProvider = 2
)

var paymentProviderNames = [...]string{"cod", "razorpay", "stripe"}

func (p PaymentProvider) String() string {
	if int(p) < 0 || int(p) >= len(paymentProviderNames) {
		return "cod"
	}
	return paymentProviderNames[p]
}

func (p PaymentProvider) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *PaymentProvider) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	for i, n := range paymentProviderNames {
		if strings.EqualFold(n, str) {
			*p = PaymentProvider(i)
			return nil
		}
	}
	return fmt.Errorf("unknown payment provider %q", str)
}

func (p PaymentProvider) Value() (driver.Value, error) {
	return p.String(), nil
}

func (p *PaymentProvider) Scan(value interface{}) error {
	var str string
	switch v := value.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	case nil:
		*p = PaymentProviderCOD
		return nil
	default:
		return fmt.Errorf("cannot scan %T into PaymentProvider", value)
	}
	for i, n := range paymentProviderNames {
		if n == str {
			*p = PaymentProvider(i)
			return nil
		}
	}
	return fmt.Errorf("unknown payment provider %q", str)
}

// PaymentMethod is what the shopper picks on the payment step
type PaymentMethod int

const (
	PaymentMethodOnline PaymentMethod = 0
	PaymentMethodCOD    PaymentMethod = 1
)

func (m PaymentMethod) String() string {
	if m == PaymentMethodCOD {
		return "cod"
	}
	return "online"
}

func (m PaymentMethod) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *PaymentMethod) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch strings.ToLower(str) {
	case "cod":
		*m = PaymentMethodCOD
	case "online", "":
		*m = PaymentMethodOnline
	default:
		return fmt.Errorf("unknown payment method %q", str)
	}
	return nil
}
