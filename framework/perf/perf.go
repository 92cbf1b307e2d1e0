// Package perf measures how long user-visible operations take and compares them with budgets.
package perf

import (
	"context"
	"fmt"
	"time"
)

// Measurement is the wall-clock duration of one operation together with its budget.
type Measurement struct {
	Operation string        `json:"operation"`
	Duration  time.Duration `json:"duration"`
	Budget    time.Duration `json:"budget"`
	Passed    bool          `json:"passed"`
}

func newMeasurement(operation string, duration, budget time.Duration) Measurement {
	return Measurement{
		Operation: operation,
		Duration:  duration,
		Budget:    budget,
		Passed:    duration <= budget,
	}
}

// DurationMS returns the duration in milliseconds.
func (m Measurement) DurationMS() float64 {
	return float64(m.Duration) / float64(time.Millisecond)
}

// BudgetMS returns the budget in milliseconds.
func (m Measurement) BudgetMS() float64 {
	return float64(m.Budget) / float64(time.Millisecond)
}

func (m Measurement) String() string {
	return fmt.Sprintf("%s: %.0fms (budget %.0fms)", m.Operation, m.DurationMS(), m.BudgetMS())
}

// BudgetExceeded is returned by ExpectLoadTime when an operation was slower than its budget.
type BudgetExceeded struct {
	Operation string
	Duration  time.Duration
	Budget    time.Duration
}

func (e *BudgetExceeded) Error() string {
	return fmt.Sprintf("%s took %s, exceeding its budget of %s", e.Operation, e.Duration, e.Budget)
}

// Measure runs op once and records the time from the call until op returns. The measurement is
// returned even if op fails. The budget is only recorded here; see ExpectLoadTime.
func Measure(ctx context.Context, operation string, budget time.Duration, op func(ctx context.Context) error) (Measurement, error) {
	return measure(ctx, operation, budget, op, nil)
}

// measure is Measure with functions that receive the measurement however op settles. If op
// panics they still run before the panic continues.
func measure(ctx context.Context, operation string, budget time.Duration, op func(ctx context.Context) error,
	settled []func(Measurement)) (m Measurement, err error) {
	started := time.Now()
	defer func() {
		m = newMeasurement(operation, time.Since(started), budget)
		for _, fn := range settled {
			fn(m)
		}
	}()
	err = op(ctx)
	return m, err
}

// ExpectLoadTime fails if the measured duration is greater than budget. A duration equal to the
// budget passes.
func ExpectLoadTime(m Measurement, budget time.Duration) error {
	if m.Duration > budget {
		return &BudgetExceeded{Operation: m.Operation, Duration: m.Duration, Budget: budget}
	}
	return nil
}
