package registry

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks every fatal configuration problem.
var ErrConfiguration = errors.New("progress monitor configuration error")

// ConfigurationError reports why a monitor definition cannot be built.
type ConfigurationError struct {
	Monitor string
	Reason  string
	Err     error
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error"
	if e.Monitor != "" {
		msg += fmt.Sprintf(" for monitor %q", e.Monitor)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// UnknownMonitorError is returned by Lookup when neither the name nor any of
// its dotted ancestors is configured.
type UnknownMonitorError struct {
	Name string
}

func (e *UnknownMonitorError) Error() string {
	return fmt.Sprintf("unknown progress monitor %q", e.Name)
}
