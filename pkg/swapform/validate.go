package swapform

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var requiredMessages = map[string]struct {
	field Field
	msg   string
}{
	"FromCurrency": {FieldFromCurrency, MsgFromCurrencyRequired},
	"ToCurrency":   {FieldToCurrency, MsgToCurrencyRequired},
	"FromAmount":   {FieldFromAmount, MsgAmountRequired},
}

var maxAmount = decimal.NewFromInt(MaxAmount)

// Validate checks every rule independently and reports all failures
func Validate(f Fields) ValidationErrors {
	errs := ValidationErrors{}

	var fieldErrs validator.ValidationErrors
	if err := validate.Struct(f); errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if m, ok := requiredMessages[fe.StructField()]; ok {
				errs[m.field] = m.msg
			}
		}
	}

	// two missing ids are not "identical"
	if f.FromCurrency != "" && f.FromCurrency == f.ToCurrency {
		errs[FieldGeneral] = MsgIdenticalCurrencies
	}

	if _, missing := errs[FieldFromAmount]; !missing {
		amount, err := parseAmount(f.FromAmount)
		switch {
		case err != nil || !amount.IsPositive():
			errs[FieldFromAmount] = MsgAmountInvalid
		case amount.GreaterThan(maxAmount):
			errs[FieldFromAmount] = MsgAmountTooLarge
		}
	}

	return errs
}
