package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/feedbackhq/ui-contract-tests/config"
	"github.com/feedbackhq/ui-contract-tests/framework"
	"github.com/feedbackhq/ui-contract-tests/framework/harness"
	"github.com/feedbackhq/ui-contract-tests/uitests"
)

var errTestsFailed = errors.New("one or more tests failed")

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, errTestsFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	params := &commandParams{}
	cmd := &cobra.Command{
		Use:   "ui-contract-tests",
		Short: "End-to-end UI tests for the feedback web application",
		Long: `Runs the UI test suite in a real browser against a running instance of the
application. Settings come from the YAML file given with --config, then from
.env files, then from UITEST_* environment variables.

Examples:
  ui-contract-tests --config uitest.yaml
  ui-contract-tests --url http://localhost:3000 --run '^feedback/' --debug
  ui-contract-tests --skip accessibility --parallel 4 --metrics-addr :9100`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, params)
		},
	}
	params.addFlags(cmd.Flags())
	return cmd
}

func run(cmd *cobra.Command, params *commandParams) error {
	cfg, err := config.Load(params.configPath, params.envFiles...)
	if err != nil {
		return err
	}
	if params.baseURL != "" {
		cfg.BaseURL = params.baseURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	h, err := harness.NewTestHarness(ctx, cfg, harness.Options{
		DebugLogger:   mainDebugLogger,
		StartupOutput: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("could not start test harness: %w", err)
	}
	defer func() { _ = h.Close() }()

	if info := h.AppInfo(); info.Version != "" {
		fmt.Printf("Application version: %s\n", info.Version)
	}

	if params.metricsAddr != "" {
		server := &http.Server{Addr: params.metricsAddr, Handler: h.Recorder().Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fmt.Fprintf(os.Stderr, "Metrics server error: %s\n", err)
			}
		}()
		defer func() { _ = server.Close() }()
		fmt.Printf("Serving metrics on %s\n", params.metricsAddr)
	}

	fmt.Println()
	framework.PrintFilterDescription(os.Stdout, params.filters)

	fmt.Println("Running test suite")

	testLogger := &ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}

	results := uitests.RunTestSuite(ctx, h, params.filters.AsFilter, testLogger, params.parallelism)

	fmt.Println()
	h.Recorder().WriteSummary(os.Stdout)
	fmt.Println()
	framework.PrintResults(os.Stdout, results)
	if !results.OK() {
		if dirs := h.FailureDirs(); len(dirs) > 0 {
			fmt.Println()
			fmt.Println("Failure artifacts:")
			for _, dir := range dirs {
				fmt.Printf("  %s\n", dir)
			}
		}
		fmt.Println()
		fmt.Println("To run only the failed tests:")
		fmt.Printf("  %s\n", params.rerunCommand(results.Failures))
		return errTestsFailed
	}
	return nil
}
