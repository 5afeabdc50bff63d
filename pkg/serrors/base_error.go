package serrors

import "fmt"

// BaseError is the shared error shape for errors that cross service
// boundaries. Code is a stable machine-readable identifier; Message is a
// developer-facing default text.
type BaseError struct {
	Code         string
	Message      string
	TemplateData map[string]string
}

func NewError(code, message string) *BaseError {
	return &BaseError{
		Code:    code,
		Message: message,
	}
}

func (e *BaseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithTemplateData attaches key/value details used when rendering the error
// for clients. Returns the receiver for chaining.
func (e *BaseError) WithTemplateData(data map[string]string) *BaseError {
	e.TemplateData = data
	return e
}

// Is reports equality by code so wrapped copies with different template data
// still match their sentinel.
func (e *BaseError) Is(target error) bool {
	other, ok := target.(*BaseError)
	if !ok {
		return false
	}
	return other.Code == e.Code
}
