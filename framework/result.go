package framework

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
)

type Results struct {
	Tests    []TestResult
	Failures []TestResult
}

type TestResult struct {
	TestID   TestID
	Errors   []error
	Skipped  bool
	Duration time.Duration
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// Merge combines the results of independently run test trees, in the given order.
func (r Results) Merge(others ...Results) Results {
	ret := Results{
		Tests:    append([]TestResult(nil), r.Tests...),
		Failures: append([]TestResult(nil), r.Failures...),
	}
	for _, o := range others {
		ret.Tests = append(ret.Tests, o.Tests...)
		ret.Failures = append(ret.Failures, o.Failures...)
	}
	return ret
}

type TestID struct {
	Path []string
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}

// Plus returns a new TestID with one more path component. The original is not modified.
func (t TestID) Plus(name string) TestID {
	return TestID{Path: append(append([]string(nil), t.Path...), name)}
}

type TestFailure struct {
	ID  TestID
	Err error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}

// PrintResults writes a summary of the run, listing every failed test with its errors.
func PrintResults(out io.Writer, results Results) {
	var skipped int
	for _, t := range results.Tests {
		if t.Skipped {
			skipped++
		}
	}
	ran := len(results.Tests) - skipped
	if results.OK() {
		color.New(color.FgGreen).Fprintf(out, "All tests passed (%d run, %d skipped)\n", ran, skipped)
		return
	}
	color.New(color.FgRed, color.Bold).Fprintf(out, "FAILED TESTS (%d of %d run, %d skipped):\n",
		len(results.Failures), ran, skipped)
	for _, f := range results.Failures {
		fmt.Fprintf(out, "* %s\n", f.TestID)
		for _, err := range f.Errors {
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Fprintf(out, "    %s\n", line)
			}
		}
	}
}
