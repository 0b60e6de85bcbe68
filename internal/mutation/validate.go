package mutation

import "github.com/go-playground/validator/v10"

// One validator instance for the whole package; it is stateless after
// construction and safe for concurrent use.
var validate = validator.New()

// inlineMessage collapses a validator result into the single sentence a
// modal shows inline.
//
// The forms here are small enough that users get one fixed message per
// failure class rather than a per-field list: any missing required field
// yields the form's "... are required." sentence, and only when every
// required field is present does a format failure (the email shape)
// surface its own message.
func inlineMessage(err error, requiredMsg, invalidMsg string) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		// Struct-level failures (nil pointers, bad tags) cannot be
		// fixed by the user; show the conservative message.
		return requiredMsg
	}
	for _, e := range errs {
		if e.ActualTag() == "required" {
			return requiredMsg
		}
	}
	return invalidMsg
}
