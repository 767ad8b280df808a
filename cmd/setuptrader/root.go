package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "setuptrader",
	Short: "Position-trading pattern screener",
	Long: `setuptrader analyses an instrument universe for statistically robust
position-trading setups: multi-horizon outcome analysis, sample-size and
permutation-tested pattern evaluation, regime-aware position sizing, and
deterministic ranking.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML configuration file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if code, ok := err.(exitCoder); ok {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(code.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(4)
	}
}

// exitCoder lets a command return an error carrying the specific exit
// code spec §6 assigns to its failure class, rather than the generic
// internal-error exit code 4 main uses for any other error.
type exitCoder interface {
	error
	ExitCode() int
}

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) ExitCode() int { return e.code }
func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}
