package addrlist

import (
	"fmt"
	"strings"
)

// TimeoutError reports a timeout that failed validation.
type TimeoutError struct {
	Value string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%v %q: use H:MM:SS (5:17:00) or {D}d H:MM:SS (2d 00:37:25, 2d00:37:25)", ErrInvalidTimeout, e.Value)
}

// Is makes errors.Is(err, ErrInvalidTimeout) match.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrInvalidTimeout
}

// NormalizeTimeout collapses "2d 00:37:25" into "2d00:37:25", the form
// RouterOS expects. Other input is returned unchanged.
func NormalizeTimeout(timeout string) string {
	return strings.Replace(timeout, "d ", "d", 1)
}

// PrepareTimeout validates timeout with v and returns its normalized form.
// An empty timeout means none and is returned as is.
func PrepareTimeout(v Validator, timeout string) (string, error) {
	timeout = strings.TrimSpace(timeout)
	if timeout == "" {
		return "", nil
	}
	if !v.ValidateTimeout(timeout) {
		return "", &TimeoutError{Value: timeout}
	}
	return NormalizeTimeout(timeout), nil
}
