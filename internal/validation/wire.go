package validation

import (
	"github.com/go-playground/validator/v10"
)

// WireMessages converts go-playground validation errors on a wire
// payload into user-facing messages, one per failing field. Used by the
// simulated backend and the devserver handlers so server-side errors
// read the same as client-side ones.
func WireMessages(err error) []string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{"Invalid request"}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		messages = append(messages, wireMessage(fieldError))
	}
	return messages
}

func wireMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must not exceed " + fe.Param() + " characters"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}
