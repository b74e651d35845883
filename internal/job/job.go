// Package job defines a provisioning job and how it is loaded from YAML.
package job

import (
	"fmt"
	"time"

	"github.com/eugenetaranov/addrlist/internal/addrlist"
)

const (
	// DefaultPort is the SSH port used when none is given.
	DefaultPort = 22

	// DefaultDelay is the pause between consecutive router commands.
	DefaultDelay = 100 * time.Millisecond

	// DefaultDialTimeout bounds connection establishment.
	DefaultDialTimeout = 10 * time.Second
)

// Job is one provisioning run: where to connect, which list to fill and
// where the addresses come from.
type Job struct {
	// Path is the file path the job was loaded from, if any.
	Path string `yaml:"-"`

	// Host is the router hostname or IP address.
	Host string `yaml:"host"`

	// Port is the router SSH port (default: 22).
	Port int `yaml:"port"`

	// User is the login name.
	User string `yaml:"user"`

	// Password is the login secret. Never printed.
	Password string `yaml:"password"`

	// IdentityFile is an optional private key for public key authentication.
	IdentityFile string `yaml:"identity_file"`

	// KnownHosts is an optional known_hosts file used to verify the router.
	KnownHosts string `yaml:"known_hosts"`

	// List is the firewall address-list name entries are added to.
	List string `yaml:"list"`

	// Timeout is the optional entry lifetime, H:MM:SS or {D}d[ ]H:MM:SS.
	Timeout string `yaml:"timeout"`

	// Source is the path of the address file.
	Source string `yaml:"source"`

	// Delay is the pause between commands (default: 100ms).
	Delay *time.Duration `yaml:"delay"`

	// DialTimeout bounds connection establishment (default: 10s).
	DialTimeout time.Duration `yaml:"dial_timeout"`

	// Strict enables range checking of addresses and timeouts.
	Strict bool `yaml:"strict"`
}

// GetPort returns the SSH port, defaulting to 22.
func (j *Job) GetPort() int {
	if j.Port == 0 {
		return DefaultPort
	}
	return j.Port
}

// GetDelay returns the pause between commands, defaulting to 100ms.
func (j *Job) GetDelay() time.Duration {
	if j.Delay == nil {
		return DefaultDelay
	}
	return *j.Delay
}

// GetDialTimeout returns the connection timeout, defaulting to 10s.
func (j *Job) GetDialTimeout() time.Duration {
	if j.DialTimeout == 0 {
		return DefaultDialTimeout
	}
	return j.DialTimeout
}

// Validator returns the address and timeout validator for the job.
func (j *Job) Validator() addrlist.Validator {
	if j.Strict {
		return addrlist.StrictValidator{}
	}
	return addrlist.DefaultValidator{}
}

// Validate checks the job for missing or malformed fields. The timeout is
// not checked here; the executor rejects it before connecting.
func (j *Job) Validate() error {
	if j.Host == "" {
		return fmt.Errorf("job is missing required 'host' field")
	}

	if port := j.GetPort(); port < 1 || port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", port)
	}

	if j.User == "" {
		return fmt.Errorf("job is missing required 'user' field")
	}

	if j.Password == "" && j.IdentityFile == "" {
		return fmt.Errorf("job needs a password or an identity_file")
	}

	if err := addrlist.ValidateListName(j.List); err != nil {
		return err
	}

	if j.Source == "" {
		return fmt.Errorf("job is missing required 'source' field")
	}

	if j.GetDelay() < 0 {
		return fmt.Errorf("delay cannot be negative")
	}

	if j.DialTimeout < 0 {
		return fmt.Errorf("dial_timeout cannot be negative")
	}

	return nil
}

// String returns a human-readable description of the job without secrets.
func (j *Job) String() string {
	desc := fmt.Sprintf("%s@%s:%d list=%s", j.User, j.Host, j.GetPort(), j.List)
	if j.Timeout != "" {
		desc += fmt.Sprintf(" timeout=%q", j.Timeout)
	}
	return desc
}
