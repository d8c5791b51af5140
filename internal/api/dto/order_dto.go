package dto

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FlexBool holds a flag sent either as a JSON boolean or as the strings
// "true"/"false" that HTML forms submit.
type FlexBool string

// UnmarshalJSON accepts booleans and strings.
func (b *FlexBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = FlexBool(strconv.FormatBool(v))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*b = FlexBool(s)
	return nil
}

// Bool reports whether the flag is set.
func (b FlexBool) Bool() bool {
	v, err := strconv.ParseBool(strings.TrimSpace(string(b)))
	return err == nil && v
}

// OrderRequest payload for a simulated purchase.
type OrderRequest struct {
	Course          string   `json:"course" form:"course" validate:"notblank"`
	SimulateSuccess FlexBool `json:"simulateSuccess" form:"simulateSuccess"`
	Error           string   `json:"error" form:"error"`
}

// OrderResponse renders one order.
type OrderResponse struct {
	ID     string  `json:"id"`
	Course string  `json:"course"`
	Status string  `json:"status"`
	Reason *string `json:"reason"`
}

// OrderPageResponse is the order view: the catalog and what the user owns.
type OrderPageResponse struct {
	User    UserResponse `json:"user"`
	Courses []string     `json:"courses"`
}
