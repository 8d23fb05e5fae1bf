package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrLoad is matched by errors.Is for any unreachable or unreadable source.
	ErrLoad = errors.New("catalog load failed")
	// ErrSchema is matched by errors.Is when required columns are absent.
	ErrSchema = errors.New("catalog schema invalid")
)

// LoadError reports a source that could not be read
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load catalog %s: %v", displaySource(e.Source), e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// SchemaError lists the required columns missing from a source
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("catalog %s is missing required columns: %s",
		displaySource(e.Source), strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// displaySource hides credentials in database URLs.
func displaySource(source string) string {
	if !isDatabaseSource(source) {
		return source
	}
	u, err := url.Parse(source)
	if err != nil {
		return "database source"
	}
	return u.Redacted()
}
