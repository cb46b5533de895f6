package swapform

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Field names a form input. FieldGeneral is the form-wide error slot.
type Field string

const (
	FieldFromCurrency Field = "fromCurrency"
	FieldToCurrency   Field = "toCurrency"
	FieldFromAmount   Field = "fromAmount"
	FieldToAmount     Field = "toAmount"
	FieldGeneral      Field = "general"
)

// MaxAmount is the largest accepted from-amount
const MaxAmount = 1_000_000

// Error messages shown to the user
const (
	MsgFromCurrencyRequired = "Please select a currency to swap from"
	MsgToCurrencyRequired   = "Please select a currency to swap to"
	MsgIdenticalCurrencies  = "Cannot swap identical currencies"
	MsgAmountRequired       = "Please enter an amount"
	MsgAmountInvalid        = "Please enter a valid positive number"
	MsgAmountTooLarge       = "Amount too large"
	MsgSwapFailed           = "Swap failed. Please try again."
	MsgNetworkError         = "Network error. Please check your connection."
)

var (
	// ErrSubmitInFlight is returned by Submit when a submission is already
	// running. The call has no effect.
	ErrSubmitInFlight = errors.New("swap submission already in progress")

	// ErrUnknownField is returned by UpdateField for fields that cannot be edited
	ErrUnknownField = errors.New("unknown form field")
)

// Fields are the user-entered swap parameters
type Fields struct {
	FromCurrency string `json:"fromCurrency" validate:"required"`
	ToCurrency   string `json:"toCurrency" validate:"required"`
	FromAmount   string `json:"fromAmount" validate:"required"`
	ToAmount     string `json:"toAmount"`
}

// ValidationErrors maps a field to its message. An empty map means the form is valid.
type ValidationErrors map[Field]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for f := range v {
		keys = append(keys, string(f))
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, v[Field(k)])
	}
	return "invalid swap form: " + strings.Join(parts, "; ")
}

// Clone returns an independent copy
func (v ValidationErrors) Clone() ValidationErrors {
	out := make(ValidationErrors, len(v))
	for k, msg := range v {
		out[k] = msg
	}
	return out
}

// SettlementError wraps a failed settlement
type SettlementError struct {
	Err error
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("swap settlement failed: %v", e.Err)
}

func (e *SettlementError) Unwrap() error {
	return e.Err
}
