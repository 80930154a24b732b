package forecast

import "fmt"

// MissingParameterError reports a required forecaster input that was zero,
// negative, or otherwise unusable.
type MissingParameterError struct {
	Parameter string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing or invalid required parameter %q", e.Parameter)
}
