package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/shelf/internal/shop"
)

// Process exit codes. A rejected shop operation or a failed scenario exits
// with ExitFailure; anything that stops a command from running at all
// (bad flags, unreadable database) exits with ExitCommandError.
const (
	ExitFailure      = 1
	ExitCommandError = 2
)

// ExitError carries the exit code for main.
type ExitError struct {
	Code    int
	Message string
	Err     error

	// Reported is set once the error has been written in the selected
	// format, so main does not print it a second time.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the code of the first ExitError in err's chain, or
// ExitFailure.
func GetExitCode(err error) int {
	if ee := asExitError(err); ee != nil {
		return ee.Code
	}
	return ExitFailure
}

// IsReported reports whether err was already written to the output.
func IsReported(err error) bool {
	ee := asExitError(err)
	return ee != nil && ee.Reported
}

func asExitError(err error) *ExitError {
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee
	}
	return nil
}

// OutputFormatter writes command results as text or as a JSON envelope.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	Verbose bool
}

// CLIResponse is the JSON envelope. Exactly one of Data and Error is set.
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError describes a failed command. Code is a shop error kind such as
// "OutOfStock".
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (f *OutputFormatter) isJSON() bool { return f.Format == "json" }

func (f *OutputFormatter) encode(resp CLIResponse) error {
	return json.NewEncoder(f.Writer).Encode(resp)
}

// Success writes data. Text output relies on the value's String method.
func (f *OutputFormatter) Success(data any) error {
	if f.isJSON() {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error writes a failure. Details appear in text output only with
// --verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.isJSON() {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	if _, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message); err != nil {
		return err
	}
	if f.Verbose && details != nil {
		_, err := fmt.Fprintf(f.Writer, "Details: %v\n", details)
		return err
	}
	return nil
}

// Fail reports a rejected shop operation and returns the matching
// ExitError.
func (f *OutputFormatter) Fail(err error) error {
	kind := shop.KindOf(err)
	if werr := f.Error(string(kind), err.Error(), nil); werr != nil {
		return WrapExitError(ExitCommandError, "failed to write output", werr)
	}
	return &ExitError{Code: ExitFailure, Message: string(kind), Err: err, Reported: true}
}

func jsonObject(key string, value any) ([]byte, error) {
	return json.Marshal(map[string]any{key: value})
}
