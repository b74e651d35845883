// Package main is the entrypoint for the addrlist CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/eugenetaranov/addrlist/internal/addrlist"
	"github.com/eugenetaranov/addrlist/internal/executor"
	"github.com/eugenetaranov/addrlist/internal/job"
	"github.com/eugenetaranov/addrlist/internal/output"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags
var (
	debug   bool
	dryRun  bool
	noColor bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "addrlist",
	Short: "addrlist - Bulk import into MikroTik firewall address lists",
	Long: `addrlist adds addresses from a text file to a RouterOS firewall
address list over SSH, one "/ip firewall address-list add" per address.

Addresses may be separated by commas and/or newlines. Each entry must be an
IP address, an IPv4 CIDR block or a hostname.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage: true,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug output with the commands sent")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show the commands without connecting")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}

// runCmd provisions an address list
var runCmd = &cobra.Command{
	Use:   "run [addresses.txt]",
	Short: "Add addresses to a router address list",
	Long: `Connect to the router once and add every valid address from the file.

Invalid addresses are skipped and router errors are reported per address;
neither stops the run. Connection and authentication errors abort it.

Examples:
  addrlist run blocked.txt -H 192.168.88.1 -u admin -l blocklist
  addrlist run blocked.txt -H 192.168.88.1 -u admin -l blocklist -t "2d 00:00:00"
  addrlist run --job router.yaml
  ADDRLIST_PASSWORD=secret addrlist run blocked.txt -H r1 -u admin -l blocklist`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJob,
}

func init() {
	addRunFlags(runCmd.Flags())
}

// addRunFlags registers the job flags of the run command.
func addRunFlags(f *pflag.FlagSet) {
	f.StringP("job", "j", "", "YAML job file (flags override its values)")
	f.StringP("host", "H", "", "Router hostname or IP address")
	f.IntP("port", "p", job.DefaultPort, "Router SSH port")
	f.StringP("user", "u", "", "Login name")
	f.String("password", "", "Login password (default: $"+job.PasswordEnv+")")
	f.StringP("identity", "i", "", "Private key file for public key authentication")
	f.String("known-hosts", "", "known_hosts file used to verify the router host key")
	f.StringP("list", "l", "", "Address list name")
	f.StringP("timeout", "t", "", "Entry timeout, H:MM:SS or {D}d H:MM:SS")
	f.Duration("delay", job.DefaultDelay, "Pause between commands")
	f.Duration("dial-timeout", job.DefaultDialTimeout, "Connection timeout")
	f.Bool("strict", false, "Range-check octets, prefixes and timeout fields")
	f.String("env-file", ".env", "Load environment variables from this file if it exists")
}

func runJob(cmd *cobra.Command, args []string) error {
	j, err := loadJob(cmd.Flags(), args)
	if err != nil {
		return err
	}

	// Create executor
	exec := executor.New()
	exec.DryRun = dryRun
	exec.Output.SetDebug(debug)
	if noColor {
		exec.Output.SetColor(false)
	}

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted, finishing current address...")
		cancel()
	}()

	var last string
	result := <-exec.Start(ctx, j, executor.ReporterFunc(func(r *executor.Result) {
		last = r.Address
	}))

	if !result.Success {
		if last != "" {
			exec.Output.Info("Last processed address: %s", last)
		}
		os.Exit(1)
	}

	return nil
}

// loadJob builds the job from the job file, flags, arguments and environment.
func loadJob(fs *pflag.FlagSet, args []string) (*job.Job, error) {
	envFile, _ := fs.GetString("env-file")
	if err := job.LoadDotEnv(envFile); err != nil {
		return nil, err
	}

	j := &job.Job{}
	if path, _ := fs.GetString("job"); path != "" {
		parsed, err := job.ParseFile(path)
		if err != nil {
			return nil, err
		}
		j = parsed
	}

	if err := applyFlags(fs, j); err != nil {
		return nil, err
	}

	if len(args) == 1 {
		j.Source = args[0]
	}
	j.PasswordFromEnv()

	if err := j.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job: %w", err)
	}

	return j, nil
}

// applyFlags copies explicitly set flags onto the job.
func applyFlags(fs *pflag.FlagSet, j *job.Job) error {
	var firstErr error
	setErr := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	fs.Visit(func(f *pflag.Flag) {
		var err error
		switch f.Name {
		case "host":
			j.Host, err = fs.GetString(f.Name)
		case "port":
			j.Port, err = fs.GetInt(f.Name)
		case "user":
			j.User, err = fs.GetString(f.Name)
		case "password":
			j.Password, err = fs.GetString(f.Name)
		case "identity":
			j.IdentityFile, err = fs.GetString(f.Name)
		case "known-hosts":
			j.KnownHosts, err = fs.GetString(f.Name)
		case "list":
			j.List, err = fs.GetString(f.Name)
		case "timeout":
			j.Timeout, err = fs.GetString(f.Name)
		case "delay":
			d, derr := fs.GetDuration(f.Name)
			j.Delay, err = &d, derr
		case "dial-timeout":
			j.DialTimeout, err = fs.GetDuration(f.Name)
		case "strict":
			j.Strict, err = fs.GetBool(f.Name)
		}
		setErr(err)
	})

	return firstErr
}

// validateCmd checks an address file without connecting
var validateCmd = &cobra.Command{
	Use:   "validate <addresses.txt> [addresses2.txt ...]",
	Short: "Validate address files",
	Long: `Parse address files and check every entry without connecting.

This checks for:
  - IP addresses, IPv4 CIDR blocks and hostnames
  - The timeout format, if --timeout is given
  - The list name, if --list is given

Examples:
  addrlist validate blocked.txt
  addrlist validate blocked.txt --timeout "2d 00:37:25" --strict`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateFiles,
}

func init() {
	addValidateFlags(validateCmd.Flags())
}

// addValidateFlags registers the flags of the validate command.
func addValidateFlags(f *pflag.FlagSet) {
	f.StringP("timeout", "t", "", "Entry timeout to check")
	f.StringP("list", "l", "", "Address list name to check")
	f.Bool("strict", false, "Range-check octets, prefixes and timeout fields")
}

func validateFiles(cmd *cobra.Command, args []string) error {
	strict, _ := cmd.Flags().GetBool("strict")
	timeoutFlag, _ := cmd.Flags().GetString("timeout")
	list, _ := cmd.Flags().GetString("list")

	out := output.New(cmd.OutOrStdout())
	if noColor {
		out.SetColor(false)
	}

	j := &job.Job{Strict: strict}
	v := j.Validator()

	timeout, err := addrlist.PrepareTimeout(v, timeoutFlag)
	if err != nil {
		return err
	}
	if list != "" {
		if err := addrlist.ValidateListName(list); err != nil {
			return err
		}
	} else {
		list = "<list>"
	}

	var total, invalid int
	var hasErrors bool

	for _, path := range args {
		out.Section(path)

		tokens, err := addrlist.ReadAddressFile(path)
		if err != nil {
			out.Error("%v", err)
			hasErrors = true
			continue
		}

		for _, token := range tokens {
			total++
			if !v.ValidateAddress(token) {
				out.Check(token, false, "invalid address")
				invalid++
				continue
			}
			out.Check(token, true, addrlist.BuildCommand(token, list, timeout))
		}
	}

	if hasErrors {
		return fmt.Errorf("one or more files could not be read")
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d address(es) invalid", invalid, total)
	}

	out.Info("All %d address(es) valid.", total)
	return nil
}
