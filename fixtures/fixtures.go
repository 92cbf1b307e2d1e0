// Package fixtures generates unique test data, so that scenarios running in parallel or
// repeatedly against the same environment never collide on names or email addresses.
package fixtures

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// DefaultEmailDomain is reserved for documentation and testing, so generated addresses can never
// reach a real mailbox.
const DefaultEmailDomain = "example.com"

// TestFixture is the data for a new organization and its first user.
type TestFixture struct {
	Organization string `json:"organization"`
	Slug         string `json:"slug"`
	User         string `json:"user"`
	Email        string `json:"email"`
}

// FeedbackInput is the content of a feedback form submission.
type FeedbackInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// AsValue returns the submission as the JSON body the application's API accepts.
func (f FeedbackInput) AsValue() ldvalue.Value {
	return ldvalue.ObjectBuild().
		Set("title", ldvalue.String(f.Title)).
		Set("description", ldvalue.String(f.Description)).
		Set("type", ldvalue.String(f.Type)).
		Build()
}

// FeedbackTypes are the values of the feedback form's type field.
var FeedbackTypes = []string{"bug", "feature", "question"}

// sequence is shared by every Factory, so no two values generated in one process share a number.
var sequence uint64

// Factory generates unique values. Each value combines a process-wide counter, the time and random
// bits, so values are unique within a process and very unlikely to collide across processes.
type Factory struct {
	prefix  string
	domain  string
	counter *uint64
	now     func() time.Time
}

// NewFactory creates a Factory whose values start with prefix, such as "e2e".
func NewFactory(prefix string) *Factory {
	return &Factory{prefix: prefix, domain: DefaultEmailDomain, counter: &sequence, now: time.Now}
}

// WithEmailDomain returns a factory that generates addresses in a different domain.
func (f *Factory) WithEmailDomain(domain string) *Factory {
	return &Factory{prefix: f.prefix, domain: domain, now: f.now, counter: f.counter}
}

// UniqueID returns a short identifier that no other call returns.
func (f *Factory) UniqueID() string {
	n := atomic.AddUint64(f.counter, 1)
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%d-%s", f.now().UnixNano(), n, random)
}

// CreateTestData returns the names for a new organization and user.
func (f *Factory) CreateTestData() TestFixture {
	id := f.UniqueID()
	return TestFixture{
		Organization: fmt.Sprintf("%s Org %s", f.title(), id),
		Slug:         fmt.Sprintf("%s-org-%s", f.prefix, id),
		User:         fmt.Sprintf("%s User %s", f.title(), id),
		Email:        f.email(id),
	}
}

// GenerateRandomEmail returns a unique address.
func (f *Factory) GenerateRandomEmail() string {
	return f.email(f.UniqueID())
}

// Feedback returns a unique feedback submission.
func (f *Factory) Feedback() FeedbackInput {
	id := f.UniqueID()
	n := atomic.LoadUint64(f.counter)
	return FeedbackInput{
		Title:       fmt.Sprintf("%s feedback %s", f.title(), id),
		Description: "Generated by the UI contract tests. Reference " + id + ".",
		Type:        FeedbackTypes[n%uint64(len(FeedbackTypes))],
	}
}

func (f *Factory) email(id string) string {
	return fmt.Sprintf("%s+%s@%s", f.prefix, id, f.domain)
}

func (f *Factory) title() string {
	if f.prefix == "" {
		return "Test"
	}
	return strings.ToUpper(f.prefix[:1]) + f.prefix[1:]
}

var defaultFactory = NewFactory("e2e")

// Default returns the process-wide factory used by the package-level functions.
func Default() *Factory { return defaultFactory }

// CreateTestData calls CreateTestData on the default factory.
func CreateTestData() TestFixture { return defaultFactory.CreateTestData() }

// GenerateRandomEmail calls GenerateRandomEmail on the default factory.
func GenerateRandomEmail() string { return defaultFactory.GenerateRandomEmail() }
