package domain

import "fmt"

// ShapeError reports a custom data attribute whose JSON shape does not
// match its schema, such as a string where a number is expected.
type ShapeError struct {
	Field string
	Err   error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid custom_data.%s: %v", e.Field, e.Err)
}

func (e *ShapeError) Unwrap() error {
	return e.Err
}
