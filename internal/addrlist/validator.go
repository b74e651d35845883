package addrlist

import (
	"errors"
	"fmt"
	"net/netip"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrInvalidTimeout is returned when a timeout does not match H:MM:SS or {D}d[ ]H:MM:SS.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrInvalidListName is returned when a list name cannot be placed in a command safely.
	ErrInvalidListName = errors.New("invalid list name")
)

var (
	cidrPattern     = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}/\d{1,2}$`)
	hostnamePattern = regexp.MustCompile(`^[A-Za-z0-9.-]+$`)
	timeoutPattern  = regexp.MustCompile(`^(\d{1,2}:\d{2}:\d{2}|\d+d ?\d{1,2}:\d{2}:\d{2})$`)

	// labelPattern is one RFC 1123 hostname label.
	labelPattern = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?$`)

	strictTimeoutPattern = regexp.MustCompile(`^(?:(\d+)d ?)?(\d{1,2}):(\d{2}):(\d{2})$`)
)

// Validator decides whether address and timeout tokens are acceptable.
type Validator interface {
	// ValidateAddress reports whether token is an IP, CIDR block or hostname.
	ValidateAddress(token string) bool

	// ValidateTimeout reports whether token is a usable timeout expression.
	ValidateTimeout(token string) bool
}

// DefaultValidator checks syntax only. Octets, prefix lengths and time
// fields are not range checked; the router validates them on add.
type DefaultValidator struct{}

// ValidateAddress tries an IP literal, then the CIDR grammar, then the
// hostname grammar.
func (DefaultValidator) ValidateAddress(token string) bool {
	if ipLiteral(token) {
		return true
	}
	if cidrPattern.MatchString(token) {
		return true
	}
	return hostnamePattern.MatchString(token)
}

// ValidateTimeout accepts H:MM:SS and {D}d[ ]H:MM:SS.
func (DefaultValidator) ValidateTimeout(token string) bool {
	return timeoutPattern.MatchString(token)
}

// StrictValidator also enforces numeric ranges: octets 0-255, prefix
// 0-32, minutes and seconds 0-59, and RFC 1123 hostname labels.
type StrictValidator struct{}

// ValidateAddress accepts IP literals, IPv4 prefixes and hostnames.
func (StrictValidator) ValidateAddress(token string) bool {
	if ipLiteral(token) {
		return true
	}
	if strings.Contains(token, "/") {
		prefix, err := netip.ParsePrefix(token)
		return err == nil && prefix.Addr().Is4()
	}
	return validHostname(token)
}

// ValidateTimeout accepts the same forms as DefaultValidator with field
// ranges enforced.
func (StrictValidator) ValidateTimeout(token string) bool {
	m := strictTimeoutPattern.FindStringSubmatch(token)
	if m == nil {
		return false
	}
	hours, _ := strconv.Atoi(m[2])
	minutes, _ := strconv.Atoi(m[3])
	seconds, _ := strconv.Atoi(m[4])
	if m[1] != "" && hours > 23 {
		return false
	}
	return minutes < 60 && seconds < 60
}

// ipLiteral reports whether token is an IP address without a zone. Zones
// are free text and address-list entries cannot carry one.
func ipLiteral(token string) bool {
	addr, err := netip.ParseAddr(token)
	return err == nil && addr.Zone() == ""
}

func validHostname(host string) bool {
	if host == "" || len(host) > 253 {
		return false
	}
	labels := strings.Split(strings.TrimSuffix(host, "."), ".")
	for _, label := range labels {
		if !labelPattern.MatchString(label) {
			return false
		}
	}

	// A numeric last label is a malformed IP, not a hostname.
	_, err := strconv.Atoi(labels[len(labels)-1])
	return err != nil
}

// ValidateAddress checks token with DefaultValidator.
func ValidateAddress(token string) bool {
	return DefaultValidator{}.ValidateAddress(token)
}

// ValidateTimeout checks token with DefaultValidator.
func ValidateTimeout(token string) bool {
	return DefaultValidator{}.ValidateTimeout(token)
}

// ValidateListName rejects list names that would break out of the
// list= argument of a RouterOS command.
func ValidateListName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: list name is empty", ErrInvalidListName)
	}
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f:
			return fmt.Errorf("%w: %q contains a control character", ErrInvalidListName, name)
		case r == ' ' || r == '\t':
			return fmt.Errorf("%w: %q contains whitespace", ErrInvalidListName, name)
		case strings.ContainsRune(`;"'\$[]{}=`, r):
			return fmt.Errorf("%w: %q contains %q", ErrInvalidListName, name, r)
		}
	}
	return nil
}
