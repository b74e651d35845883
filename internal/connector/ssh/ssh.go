// Package ssh provides a connector that runs RouterOS commands over SSH.
//
// One SSH connection is held for the lifetime of the connector and every
// command runs on its own session channel over it, with stdout and stderr
// captured separately. RouterOS reports command errors on stderr.
//
// Security: host keys are not verified unless a known_hosts file is
// configured with WithKnownHosts or a callback with WithHostKeyCallback.
package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	gossh "golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/eugenetaranov/addrlist/internal/connector"
)

const (
	defaultPort        = 22
	defaultDialTimeout = 10 * time.Second
)

// Connector executes commands on a router over SSH.
type Connector struct {
	config          connector.Config
	signer          gossh.Signer
	hostKeyCallback gossh.HostKeyCallback
	knownHostsPath  string
	privateKeyPath  string
	privateKey      []byte

	client *gossh.Client
}

// Option configures the SSH connector.
type Option func(*Connector)

// WithPrivateKeyFile adds public key authentication with the key at path.
func WithPrivateKeyFile(path string) Option {
	return func(c *Connector) {
		c.privateKeyPath = path
	}
}

// WithPrivateKey adds public key authentication with a PEM encoded key.
func WithPrivateKey(pem []byte) Option {
	return func(c *Connector) {
		c.privateKey = pem
	}
}

// WithKnownHosts verifies the router host key against a known_hosts file.
func WithKnownHosts(path string) Option {
	return func(c *Connector) {
		c.knownHostsPath = path
	}
}

// WithHostKeyCallback sets a custom host key check. It takes precedence
// over WithKnownHosts.
func WithHostKeyCallback(cb gossh.HostKeyCallback) Option {
	return func(c *Connector) {
		c.hostKeyCallback = cb
	}
}

// New creates a new SSH connector. Key material and known_hosts files are
// loaded here so that Connect only fails for network or auth reasons.
func New(cfg connector.Config, opts ...Option) (*Connector, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("config host cannot be empty")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("config user cannot be empty")
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultDialTimeout
	}

	c := &Connector{config: cfg}
	for _, opt := range opts {
		opt(c)
	}

	if c.privateKeyPath != "" {
		data, err := os.ReadFile(c.privateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		c.privateKey = data
	}
	if len(c.privateKey) > 0 {
		signer, err := gossh.ParsePrivateKey(c.privateKey)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		c.signer = signer
	}

	if c.hostKeyCallback == nil && c.knownHostsPath != "" {
		cb, err := knownhosts.New(c.knownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts: %w", err)
		}
		c.hostKeyCallback = cb
	}
	if c.hostKeyCallback == nil {
		c.hostKeyCallback = gossh.InsecureIgnoreHostKey() //nolint:gosec // no known_hosts configured
	}

	if c.signer == nil && c.config.Password == "" {
		return nil, fmt.Errorf("either a password or a private key is required")
	}

	return c, nil
}

// Connect dials the router and authenticates.
func (c *Connector) Connect(ctx context.Context) error {
	if c.client != nil {
		return nil
	}

	addr := c.addr()
	dialer := &net.Dialer{Timeout: c.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %w", connector.ErrTransport, addr, err)
	}

	// The handshake has no context of its own; bound it with a deadline.
	deadline := time.Now().Add(c.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	sshConn, chans, reqs, err := gossh.NewClientConn(conn, addr, c.clientConfig())
	if !stop() {
		// Cancelled: conn is closed or about to be, whatever the handshake said.
		if err == nil {
			_ = sshConn.Close()
		}
		_ = conn.Close()
		return fmt.Errorf("%w: %w", connector.ErrTransport, context.Cause(ctx))
	}
	if err != nil {
		_ = conn.Close()
		return classify(addr, err)
	}
	_ = conn.SetDeadline(time.Time{})

	c.client = gossh.NewClient(sshConn, chans, reqs)
	return nil
}

func (c *Connector) clientConfig() *gossh.ClientConfig {
	var auth []gossh.AuthMethod
	if c.signer != nil {
		auth = append(auth, gossh.PublicKeys(c.signer))
	}
	if c.config.Password != "" {
		password := c.config.Password
		auth = append(auth,
			gossh.Password(password),
			gossh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		)
	}

	return &gossh.ClientConfig{
		User:            c.config.User,
		Auth:            auth,
		HostKeyCallback: c.hostKeyCallback,
		Timeout:         c.config.Timeout,
	}
}

// classify maps a handshake error onto the connector error kinds.
func classify(addr string, err error) error {
	if strings.Contains(err.Error(), "unable to authenticate") {
		return fmt.Errorf("%w: %s: %w", connector.ErrAuthentication, addr, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: handshake with %s: %w", connector.ErrTransport, addr, err)
	}

	return fmt.Errorf("ssh handshake with %s: %w", addr, err)
}

// Execute runs cmd on its own session and returns its output.
func (c *Connector) Execute(ctx context.Context, cmd string) (*connector.Result, error) {
	if c.client == nil {
		return nil, fmt.Errorf("not connected to %s", c.addr())
	}

	session, err := c.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH session on %s: %w", c.config.Host, err)
	}
	defer func() { _ = session.Close() }()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(cmd) }()

	select {
	case <-ctx.Done():
		_ = session.Close()
		return nil, ctx.Err()
	case err = <-done:
	}

	result := &connector.Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *gossh.ExitError
		var missingErr *gossh.ExitMissingError
		switch {
		case errors.As(err, &exitErr):
			result.ExitCode = exitErr.ExitStatus()
		case errors.As(err, &missingErr):
			result.ExitCode = -1
		default:
			return nil, fmt.Errorf("failed to execute command: %w", err)
		}
	}

	return result, nil
}

// Close terminates the SSH connection.
func (c *Connector) Close() error {
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

// String returns a description of the connection.
func (c *Connector) String() string {
	return fmt.Sprintf("ssh://%s@%s", c.config.User, c.addr())
}

func (c *Connector) addr() string {
	return net.JoinHostPort(c.config.Host, strconv.Itoa(c.config.Port))
}

// Ensure Connector implements the connector.Connector interface.
var _ connector.Connector = (*Connector)(nil)
