// Package connector defines the interface for executing commands on a router.
package connector

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAuthentication is returned by Connect when the router rejects the credentials.
	ErrAuthentication = errors.New("authentication failed")

	// ErrTransport is returned by Connect when the router cannot be reached.
	ErrTransport = errors.New("connection failed")
)

// Result holds the output from command execution.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Connector is the interface for connecting to and executing commands on targets.
type Connector interface {
	// Connect establishes a connection to the target.
	// Errors wrap ErrAuthentication or ErrTransport when the cause is known.
	Connect(ctx context.Context) error

	// Execute runs a command on the target and returns the result.
	// A returned error means the command could not be run at all.
	Execute(ctx context.Context, cmd string) (*Result, error)

	// Close terminates the connection.
	Close() error

	// String returns a human-readable description of the connection.
	String() string
}

// Config holds common configuration for connectors.
type Config struct {
	// Host is the target hostname or IP address.
	Host string

	// Port is the target port.
	Port int

	// User is the username for authentication.
	User string

	// Password is the secret for password authentication.
	Password string

	// Timeout bounds connection establishment.
	Timeout time.Duration
}
