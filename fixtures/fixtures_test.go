package fixtures

import (
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValuesAreUniqueUnderConcurrency(t *testing.T) {
	f := NewFactory("e2e")
	const goroutines, perGoroutine = 8, 250

	var lock sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				d := f.CreateTestData()
				e := f.GenerateRandomEmail()
				lock.Lock()
				for _, v := range []string{d.Organization, d.Slug, d.Email, e} {
					assert.False(t, seen[v], "duplicate value %s", v)
					seen[v] = true
				}
				lock.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, goroutines*perGoroutine*4)
}

func TestValuesAreUniqueWithFrozenClock(t *testing.T) {
	f := NewFactory("e2e")
	frozen := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return frozen }

	a, b := f.CreateTestData(), f.CreateTestData()
	assert.NotEqual(t, a.Slug, b.Slug)
	assert.NotEqual(t, a.Email, b.Email)
}

func TestSeparateFactoriesDoNotCollide(t *testing.T) {
	frozen := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a, b := NewFactory("e2e"), NewFactory("e2e")
	a.now = func() time.Time { return frozen }
	b.now = a.now

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		for _, f := range []*Factory{a, b} {
			slug := f.CreateTestData().Slug
			// drop the random suffix so only the clock and the counter can keep values apart
			key := slug[:strings.LastIndex(slug, "-")]
			assert.False(t, seen[key], "duplicate %s", key)
			seen[key] = true
		}
	}
}

func TestFormats(t *testing.T) {
	f := NewFactory("e2e")
	d := f.CreateTestData()

	assert.True(t, strings.HasPrefix(d.Organization, "E2e Org "))
	assert.Regexp(t, regexp.MustCompile(`^e2e-org-\d+-\d+-[0-9a-f]{8}$`), d.Slug)
	assert.Regexp(t, regexp.MustCompile(`^e2e\+\d+-\d+-[0-9a-f]{8}@example\.com$`), d.Email)
	assert.Regexp(t, regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[a-z]+$`), f.GenerateRandomEmail())
}

func TestWithEmailDomain(t *testing.T) {
	f := NewFactory("qa").WithEmailDomain("test.feedbackhq.io")
	assert.True(t, strings.HasSuffix(f.GenerateRandomEmail(), "@test.feedbackhq.io"))
}

func TestFeedback(t *testing.T) {
	f := NewFactory("e2e")
	a, b := f.Feedback(), f.Feedback()
	assert.NotEqual(t, a.Title, b.Title)
	assert.Contains(t, FeedbackTypes, a.Type)
	assert.NotEmpty(t, a.Description)

	v := a.AsValue()
	assert.Equal(t, a.Title, v.GetByKey("title").StringValue())
	assert.Equal(t, a.Type, v.GetByKey("type").StringValue())
}

func TestPackageLevelFunctions(t *testing.T) {
	assert.NotEqual(t, GenerateRandomEmail(), GenerateRandomEmail())
	assert.NotEqual(t, CreateTestData(), CreateTestData())
	assert.Same(t, defaultFactory, Default())
}
