// Package executor provisions firewall address-list entries over a single
// router session.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/eugenetaranov/addrlist/internal/addrlist"
	"github.com/eugenetaranov/addrlist/internal/connector"
	"github.com/eugenetaranov/addrlist/internal/connector/ssh"
	"github.com/eugenetaranov/addrlist/internal/job"
	"github.com/eugenetaranov/addrlist/internal/output"
)

// Reporter receives one call per processed address. Calls are made in
// processing order on the goroutine running the job; handing them to
// another goroutine is the caller's business.
type Reporter interface {
	Progress(r *Result)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(r *Result)

// Progress calls f(r).
func (f ReporterFunc) Progress(r *Result) { f(r) }

// DialFunc creates the connector for a job.
type DialFunc func(j *job.Job) (connector.Connector, error)

// Executor runs provisioning jobs. A job owns its connection exclusively;
// an Executor runs one job at a time.
type Executor struct {
	// Output handles formatted output.
	Output *output.Output

	// DryRun builds commands without connecting.
	DryRun bool

	// Dial creates the connector for a job. Defaults to SSH.
	Dial DialFunc

	mu       sync.Mutex
	state    State
	position int
}

// New creates a new executor.
func New() *Executor {
	return &Executor{
		Output: output.New(os.Stdout),
		Dial:   getConnector,
	}
}

// State returns the current lifecycle state and, while executing, the
// index of the address being processed.
func (e *Executor) State() (State, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, e.position
}

func (e *Executor) setState(s State, position int) {
	e.mu.Lock()
	e.state = s
	e.position = position
	e.mu.Unlock()
}

// Start runs the job on a new goroutine. The result is delivered on the
// returned channel, which is then closed.
func (e *Executor) Start(ctx context.Context, j *job.Job, rep Reporter) <-chan *RunResult {
	ch := make(chan *RunResult, 1)
	go func() {
		defer close(ch)
		ch <- e.Run(ctx, j, rep)
	}()
	return ch
}

// Run executes a job: pre-flight checks, connect, one command per valid
// address in input order, disconnect.
func (e *Executor) Run(ctx context.Context, j *job.Job, rep Reporter) *RunResult {
	stats := &Stats{StartTime: time.Now()}
	result := &RunResult{Stats: stats}

	e.setState(StateIdle, 0)
	e.Output.JobStart(j.String(), j.Source)

	e.run(ctx, j, rep, result)

	stats.EndTime = time.Now()
	result.Success = result.Outcome.Kind == Succeeded
	if result.Success {
		e.setState(StateDone, len(result.Results))
	} else {
		e.setState(StateFailed, len(result.Results))
	}

	e.Output.JobEnd(stats)

	return result
}

func (e *Executor) run(ctx context.Context, j *job.Job, rep Reporter, result *RunResult) {
	v := j.Validator()

	// Pre-flight: nothing below may touch the network.
	timeout, err := addrlist.PrepareTimeout(v, j.Timeout)
	if err != nil {
		e.fail(result, Outcome{Kind: InvalidTimeout, Err: err})
		return
	}
	if err := addrlist.ValidateListName(j.List); err != nil {
		e.fail(result, Outcome{Kind: InvalidJob, Err: err})
		return
	}
	tokens, err := addrlist.ReadAddressFile(j.Source)
	if err != nil {
		e.fail(result, Outcome{Kind: FileReadFailed, Err: err})
		return
	}
	result.Stats.Total = len(tokens)
	e.Output.Debug("Read %d address(es) from %s", len(tokens), j.Source)

	if e.DryRun {
		e.dryRun(tokens, j.List, timeout, v, rep, result)
		return
	}

	conn, err := e.Dial(j)
	if err != nil {
		e.fail(result, Outcome{Kind: ConnectionFailed, Connection: FailureUnknown, Err: fmt.Errorf("failed to create connector: %w", err)})
		return
	}

	e.setState(StateConnecting, 0)
	if err := conn.Connect(ctx); err != nil {
		e.fail(result, Outcome{Kind: ConnectionFailed, Connection: classifyConnectError(err), Err: err})
		return
	}
	e.setState(StateConnected, 0)
	e.Output.Info("Connected to %s", conn)

	defer func() {
		e.setState(StateDisconnecting, len(result.Results))
		if err := conn.Close(); err != nil {
			e.Output.Warn("Failed to close connection: %v", err)
		}
	}()

	delay := j.GetDelay()
	sent := false

	for i, address := range tokens {
		if err := ctx.Err(); err != nil {
			e.fail(result, Outcome{Kind: Cancelled, Err: err})
			return
		}
		e.setState(StateExecuting, i)

		if !v.ValidateAddress(address) {
			e.report(rep, result, Skipped(i, address, "invalid address"))
			continue
		}

		// Throttle the router's command processor.
		if sent {
			if err := sleep(ctx, delay); err != nil {
				e.fail(result, Outcome{Kind: Cancelled, Err: err})
				return
			}
		}

		cmd := addrlist.BuildCommand(address, j.List, timeout)
		start := time.Now()
		res, err := conn.Execute(ctx, cmd)
		sent = true

		if err != nil {
			r := Failed(i, address, cmd, err.Error())
			r.Duration = time.Since(start)
			e.report(rep, result, r)

			if ctx.Err() != nil {
				e.fail(result, Outcome{Kind: Cancelled, Err: ctx.Err()})
			} else {
				e.fail(result, Outcome{Kind: SessionLost, Err: err})
			}
			return
		}

		var r *Result
		if res.Stderr != "" {
			r = Failed(i, address, cmd, strings.TrimSpace(res.Stderr))
		} else {
			r = Applied(i, address, cmd)
		}
		r.Duration = time.Since(start)
		e.report(rep, result, r)
	}

	result.Outcome = Outcome{Kind: Succeeded}
}

// dryRun reports what would be sent without connecting.
func (e *Executor) dryRun(tokens []string, list, timeout string, v addrlist.Validator, rep Reporter, result *RunResult) {
	for i, address := range tokens {
		if !v.ValidateAddress(address) {
			e.report(rep, result, Skipped(i, address, "invalid address"))
			continue
		}

		cmd := addrlist.BuildCommand(address, list, timeout)
		r := Skipped(i, address, "dry run: "+cmd)
		r.Command = cmd
		e.report(rep, result, r)
	}

	result.Outcome = Outcome{Kind: Succeeded}
}

// report records r and notifies the output and the reporter.
func (e *Executor) report(rep Reporter, result *RunResult, r *Result) {
	result.Results = append(result.Results, r)
	result.Stats.record(r)

	e.Output.ItemResult(r.Address, string(r.Status), r.Message())
	if rep != nil {
		rep.Progress(r)
	}
}

func (e *Executor) fail(result *RunResult, outcome Outcome) {
	result.Outcome = outcome
	e.Output.Error("%s", outcome.Message())
}

// Message returns a user-facing description of the outcome.
func (o Outcome) Message() string {
	switch o.Kind {
	case Pending:
		return "Job did not finish"
	case Succeeded:
		return "Address list uploaded"
	case ConnectionFailed:
		switch o.Connection {
		case FailureAuthentication:
			return fmt.Sprintf("Authentication failed, check the user and password: %v", o.Err)
		case FailureTransport:
			return fmt.Sprintf("SSH connection failed, check the host and port: %v", o.Err)
		default:
			return fmt.Sprintf("Unknown connection error: %v", o.Err)
		}
	case SessionLost:
		return fmt.Sprintf("Connection lost while executing commands: %v", o.Err)
	case Cancelled:
		return fmt.Sprintf("Interrupted: %v", o.Err)
	default:
		return fmt.Sprintf("%v", o.Err)
	}
}

func classifyConnectError(err error) ConnectionFailure {
	switch {
	case errors.Is(err, connector.ErrAuthentication):
		return FailureAuthentication
	case errors.Is(err, connector.ErrTransport):
		return FailureTransport
	default:
		return FailureUnknown
	}
}

// getConnector returns an SSH connector for the job.
func getConnector(j *job.Job) (connector.Connector, error) {
	var opts []ssh.Option
	if j.IdentityFile != "" {
		opts = append(opts, ssh.WithPrivateKeyFile(job.ExpandHome(j.IdentityFile)))
	}
	if j.KnownHosts != "" {
		opts = append(opts, ssh.WithKnownHosts(job.ExpandHome(j.KnownHosts)))
	}

	return ssh.New(connector.Config{
		Host:     j.Host,
		Port:     j.GetPort(),
		User:     j.User,
		Password: j.Password,
		Timeout:  j.GetDialTimeout(),
	}, opts...)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
