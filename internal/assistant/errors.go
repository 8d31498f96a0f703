package assistant

import "fmt"

// InvalidEventError reports an event that lacks a container the handler needs.
type InvalidEventError struct {
	Variant Variant
	Path    string
	Reason  string
}

func (e *InvalidEventError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("assistant: invalid event: %s", e.Reason)
	}
	return fmt.Sprintf("assistant: invalid %s event: %s %s", e.Variant, e.Path, e.Reason)
}

// MalformedToolArgumentsError reports tool arguments that are not valid JSON.
type MalformedToolArgumentsError struct {
	Tool      string
	Arguments string
	Err       error
}

func (e *MalformedToolArgumentsError) Error() string {
	return fmt.Sprintf("assistant: malformed %s arguments: %v", e.Tool, e.Err)
}

func (e *MalformedToolArgumentsError) Unwrap() error {
	return e.Err
}
