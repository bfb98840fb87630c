package binder

import "fmt"

// MissingParamError reports a required argument that was not supplied and
// had no resolvable default. The dispatcher maps it to invalid-params.
type MissingParamError struct {
	Name string
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Name)
}

// TypeMismatchError reports a supplied value that could not be converted
// to the parameter's declared type. The dispatcher maps it to
// invalid-params with a message naming the offending parameter.
type TypeMismatchError struct {
	Name     string
	Expected string
	Err      error
}

func (e *TypeMismatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parameter %q: expected %s: %v", e.Name, e.Expected, e.Err)
	}
	return fmt.Sprintf("parameter %q: expected %s", e.Name, e.Expected)
}

func (e *TypeMismatchError) Unwrap() error { return e.Err }

// SchemaError reports a server-side configuration defect: a mandatory
// method parameter with no published schema entry. The dispatcher maps it
// to an internal error, not invalid-params, since the caller did nothing
// wrong.
type SchemaError struct {
	Name   string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema defect for parameter %q: %s", e.Name, e.Reason)
}
