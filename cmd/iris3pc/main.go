// Command iris3pc is a demo CLI wiring the iris matcher, both engines, and
// the in-memory test transport into three runnable subcommands: enroll a
// synthetic subject, query the database for a match, and benchmark a scan.
// It exists to exercise the library end to end, the way the teacher's
// cmd/threshold-cli exercises its protocols' keygen/sign/bench commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags, matching the teacher's persistent-flag convention
	// (cmd/threshold-cli/main.go's configDir/protocolName/curveType/verbose).
	engineName string
	ringWidth  uint
	verbose    bool

	rootCmd = &cobra.Command{
		Use:   "iris3pc",
		Short: "Demo CLI for the iris-code 3PC matcher",
		Long: `iris3pc runs a local three-party simulation of the iris matcher over
either ENGINE-A (semi-honest, optionally authenticated) or ENGINE-B
(malicious-secure), using the in-memory test transport in place of a real
QUIC deployment.`,
	}

	enrollCmd = &cobra.Command{
		Use:   "enroll",
		Short: "Enroll a synthetic iris code into the demo database",
		RunE:  runEnroll,
	}

	queryCmd = &cobra.Command{
		Use:   "query",
		Short: "Run a 3PC match of a synthetic query against the demo database",
		RunE:  runQuery,
	}

	benchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Benchmark a DB scan and report distance-distribution diagnostics",
		RunE:  runBench,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&engineName, "engine", "e", "a",
		"Engine to run: a (semi-honest), auth (ENGINE-A + MAC), b (malicious)")
	rootCmd.PersistentFlags().UintVarP(&ringWidth, "ring-width", "w", 16,
		"Ring width in bits: 16, 32, 64, or 128")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	enrollCmd.Flags().Int("count", 1, "Number of synthetic subjects to enroll")
	enrollCmd.Flags().String("store", "", "Path to the demo store file (required)")
	enrollCmd.MarkFlagRequired("store")

	queryCmd.Flags().String("store", "", "Path to the demo store file (required)")
	queryCmd.Flags().Bool("genuine", false, "Query with a code copied from the store (forces a match)")
	queryCmd.MarkFlagRequired("store")

	benchCmd.Flags().String("store", "", "Path to the demo store file (required)")
	benchCmd.MarkFlagRequired("store")

	rootCmd.AddCommand(enrollCmd, queryCmd, benchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
