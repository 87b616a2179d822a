package enum

import (
	"encoding/json"
	"strings"
)

// DiscountType describes how a coupon value is interpreted
type DiscountType int

const (
	DiscountTypeFlat       DiscountType = 0
	DiscountTypePercentage DiscountType = 1
)

func (t DiscountType) String() string {
	if t == DiscountTypePercentage {
		return "percentage"
	}
	return "flat"
}

func (t DiscountType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *DiscountType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch strings.ToLower(str) {
	case "percentage", "percent":
		*t = DiscountTypePercentage
	default:
		*t = DiscountTypeFlat
	}
	return nil
}
