package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrKeyNotSet is returned when a required key has no value
type ErrKeyNotSet struct {
	Key string
}

func (e ErrKeyNotSet) Error() string {
	return fmt.Sprintf("configuration key %s must be set", e.Key)
}

// ErrInvalidValue is returned when a key is set to a value that cannot
// be used. Values lists the accepted values when they are enumerable
type ErrInvalidValue struct {
	Key          string
	InvalidValue string
	Values       []string
}

func (e ErrInvalidValue) Error() string {
	if len(e.Values) == 0 {
		return fmt.Sprintf("configuration key %s set to invalid value %q", e.Key, e.InvalidValue)
	}

	return fmt.Sprintf("configuration key %s set to invalid value %q, accepted values are %s",
		e.Key, e.InvalidValue, strings.Join(e.Values, ", "))
}

// ErrParseFlags is returned when the command line cannot be parsed
type ErrParseFlags struct {
	Cause error
}

func (e ErrParseFlags) Error() string {
	return fmt.Sprintf("failed to parse flags: %s", e.Cause.Error())
}

func (e ErrParseFlags) Unwrap() error {
	return e.Cause
}

var (
	ErrAlreadyParsed = errors.New("arguments already parsed")
)
