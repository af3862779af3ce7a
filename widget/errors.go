package widget

import (
	"errors"
	"fmt"
)

// Error kinds every family reports through
var (
	ErrUnknownWidgetType = errors.New("unknown widget type")
	ErrDataLoad          = errors.New("could not load data source")
	ErrMalformedData     = errors.New("malformed data")
	ErrInvalidConfig     = errors.New("invalid widget config")
)

// UnknownTypeError the type string does not resolve to a registered adapter
type UnknownTypeError struct {
	Type       string
	Suggestion string
}

func (e *UnknownTypeError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s: %q (did you mean %q?)", ErrUnknownWidgetType, e.Type, e.Suggestion)
	}
	return fmt.Sprintf("%s: %q", ErrUnknownWidgetType, e.Type)
}

// Is matches ErrUnknownWidgetType
func (e *UnknownTypeError) Is(target error) bool { return target == ErrUnknownWidgetType }

// Code the exception code
func (e *UnknownTypeError) Code() int { return 404 }

// DataLoadError fetching the data source failed
type DataLoadError struct {
	URI string
	Err error
}

func (e *DataLoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("Could not load url: %s", e.URI)
	}
	return fmt.Sprintf("Could not load url: %s: %s", e.URI, e.Err)
}

// Is matches ErrDataLoad
func (e *DataLoadError) Is(target error) bool { return target == ErrDataLoad }

// Unwrap the low-level fetch error
func (e *DataLoadError) Unwrap() error { return e.Err }

// Code the exception code
func (e *DataLoadError) Code() int { return 502 }

// MalformedDataError the payload does not have the shape the family expects
type MalformedDataError struct {
	URI    string
	Reason string
}

func (e *MalformedDataError) Error() string {
	return fmt.Sprintf("%s from %s: %s", ErrMalformedData, e.URI, e.Reason)
}

// Is matches ErrMalformedData
func (e *MalformedDataError) Is(target error) bool { return target == ErrMalformedData }

// Code the exception code
func (e *MalformedDataError) Code() int { return 422 }

// LoadError wrap a fetch error with the failed source
func LoadError(uri string, err error) error {
	var loadErr *DataLoadError
	if errors.As(err, &loadErr) {
		return err
	}
	return &DataLoadError{URI: uri, Err: err}
}

// Malformed build a MalformedDataError
func Malformed(uri string, format string, args ...interface{}) error {
	return &MalformedDataError{URI: uri, Reason: fmt.Sprintf(format, args...)}
}
