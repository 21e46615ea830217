package analysis

import "fmt"

// UsageError marks a request that is wrong before any solve is attempted:
// an unknown method, a variability scan naming a reaction the model does not
// have, or a differential comparison with no comparison condition. It never
// reaches the dispatcher.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return "analysis: " + e.Msg
}

func usageErrorf(format string, args ...interface{}) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}
