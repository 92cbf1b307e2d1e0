package main

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/spf13/pflag"

	"github.com/feedbackhq/ui-contract-tests/framework"
)

const defaultParallelism = 1

type commandParams struct {
	configPath  string
	envFiles    []string
	baseURL     string
	filters     framework.RegexFilters
	parallelism int
	metricsAddr string
	debug       bool
	debugAll    bool
}

func (c *commandParams) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "YAML configuration file")
	fs.StringSliceVar(&c.envFiles, "env-file", []string{".env"}, ".env file(s) to load; missing files are ignored")
	fs.StringVar(&c.baseURL, "url", "", "application base URL, overriding the configuration")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.IntVar(&c.parallelism, "parallel", defaultParallelism, "number of test groups to run at the same time")
	fs.StringVar(&c.metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on during the run")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")
}

// rerunCommand builds a command line that repeats this run for just the given tests.
func (c *commandParams) rerunCommand(failures []framework.TestResult) string {
	var b commandBuilder
	b.add(os.Args[0])
	if c.configPath != "" {
		b.add("--config", c.configPath)
	}
	for _, f := range c.envFiles {
		b.add("--env-file", f)
	}
	if c.baseURL != "" {
		b.add("--url", c.baseURL)
	}
	if c.parallelism != defaultParallelism {
		b.add("--parallel", strconv.Itoa(c.parallelism))
	}
	if len(failures) > 0 {
		ids := make([]string, 0, len(failures))
		for _, f := range failures {
			ids = append(ids, regexp.QuoteMeta(f.TestID.String()))
		}
		b.add("--run", "^("+strings.Join(ids, "|")+")$")
	}
	if c.debug || c.debugAll {
		b.add("--debug")
	}
	return b.String()
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
