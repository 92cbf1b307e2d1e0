package expect

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbackhq/ui-contract-tests/browser/browsertest"
)

var fast = New(200*time.Millisecond, 5*time.Millisecond)

func TestVisibleSucceedsWhenElementAppearsLater(t *testing.T) {
	s := browsertest.NewSession()
	el := s.Set("#banner", &browsertest.Element{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		s.Update(func(map[string]*browsertest.Element) { el.Visible = true })
	}()

	require.NoError(t, fast.Visible(context.Background(), s.Locate("#banner")))
}

func TestVisibleTimesOut(t *testing.T) {
	s := browsertest.NewSession()
	s.Set("#banner", &browsertest.Element{})

	started := time.Now()
	err := fast.Visible(context.Background(), s.Locate("#banner"))
	elapsed := time.Since(started)

	var timeout *AssertionTimeout
	require.True(t, errors.As(err, &timeout))
	assert.Equal(t, "#banner to be visible", timeout.Predicate)
	assert.Equal(t, "not visible", timeout.LastObserved)
	assert.Equal(t, 200*time.Millisecond, timeout.Timeout)
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
}

func TestHiddenAcceptsAbsentElement(t *testing.T) {
	s := browsertest.NewSession()
	require.NoError(t, fast.Hidden(context.Background(), s.Locate("#spinner")))
}

func TestTextAndTextContains(t *testing.T) {
	s := browsertest.NewSession()
	el := s.Set("#msg", &browsertest.Element{Visible: true, Text: "Loading"})
	go func() {
		time.Sleep(20 * time.Millisecond)
		s.Update(func(map[string]*browsertest.Element) { el.Text = "Feedback submitted (ref FB-1042)" })
	}()

	require.NoError(t, fast.Text(context.Background(), s.Locate("#msg"), regexp.MustCompile(`FB-\d+`)))
	require.NoError(t, fast.TextContains(context.Background(), s.Locate("#msg"), "submitted"))

	err := fast.TextContains(context.Background(), s.Locate("#msg"), "failed")
	var timeout *AssertionTimeout
	require.True(t, errors.As(err, &timeout))
	assert.Equal(t, `"Feedback submitted (ref FB-1042)"`, timeout.LastObserved)
}

func TestValueAndEmpty(t *testing.T) {
	s := browsertest.NewSession()
	s.Set("#title", &browsertest.Element{Visible: true, Value: "draft"})

	require.NoError(t, fast.Value(context.Background(), s.Locate("#title"), "draft"))
	assert.Error(t, fast.Empty(context.Background(), s.Locate("#title")))

	require.NoError(t, s.Locate("#title").Fill(context.Background(), ""))
	require.NoError(t, fast.Empty(context.Background(), s.Locate("#title")))
}

func TestCount(t *testing.T) {
	s := browsertest.NewSession()
	s.Set(".row", &browsertest.Element{Visible: true, Count: 3})

	require.NoError(t, fast.Count(context.Background(), s.Locate(".row"), 3))
	require.NoError(t, fast.Count(context.Background(), s.Locate(".missing"), 0))
	assert.Error(t, fast.Count(context.Background(), s.Locate(".row"), 2))
}

func TestAnyVisible(t *testing.T) {
	s := browsertest.NewSession()
	s.Set("#sidebar", &browsertest.Element{Visible: false})
	s.Set("#menu-button", &browsertest.Element{Visible: true})

	require.NoError(t, fast.AnyVisible(context.Background(), s.Locate("#sidebar"), s.Locate("#menu-button")))

	err := fast.AnyVisible(context.Background(), s.Locate("#sidebar"), s.Locate("#nothing"))
	var timeout *AssertionTimeout
	require.True(t, errors.As(err, &timeout))
	assert.Equal(t, "any of [#sidebar, #nothing] to be visible", timeout.Predicate)
}

func TestConditionErrorEndsWaitImmediately(t *testing.T) {
	boom := errors.New("boom")
	err := fast.WithTimeout(time.Hour).Condition(context.Background(), "never", func(context.Context) (bool, string, error) {
		return false, "", boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestWithTimeoutDoesNotChangeOriginal(t *testing.T) {
	longer := fast.WithTimeout(time.Second)
	assert.Equal(t, time.Second, longer.Timeout)
	assert.Equal(t, 200*time.Millisecond, fast.Timeout)
}

func TestCancellationStopsPolling(t *testing.T) {
	s := browsertest.NewSession()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := fast.WithTimeout(time.Hour).Visible(ctx, s.Locate("#never"))
	assert.ErrorIs(t, err, context.Canceled)
	var timeout *AssertionTimeout
	assert.False(t, errors.As(err, &timeout))
}

func TestZeroValueUsesDefaults(t *testing.T) {
	s := browsertest.NewSession()
	s.Set("#ok", &browsertest.Element{Visible: true})
	assert.NoError(t, Expecter{}.Visible(context.Background(), s.Locate("#ok")))
}
