// Package config loads the settings for a test run from a YAML file, an optional .env file and
// UITEST_* environment variables, in increasing order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/feedbackhq/ui-contract-tests/browser"
)

const (
	DriverPlaywright = "playwright"
	DriverChromedp   = "chromedp"

	envPrefix = "UITEST_"
)

// Config is the complete configuration of a run.
type Config struct {
	BaseURL string `yaml:"base_url" validate:"required,url"`
	// StatusPath is polled at startup until the application responds.
	StatusPath string `yaml:"status_path"`

	Driver     string `yaml:"driver" validate:"oneof=playwright chromedp"`
	Browser    string `yaml:"browser" validate:"oneof=chromium firefox webkit"`
	Headless   bool   `yaml:"headless"`
	ChromePath string `yaml:"chrome_path"`

	Viewport       browser.Viewport `yaml:"viewport"`
	MobileViewport browser.Viewport `yaml:"mobile_viewport"`

	Timeouts      Timeouts      `yaml:"timeouts"`
	Performance   Performance   `yaml:"performance"`
	Accessibility Accessibility `yaml:"accessibility"`
	Auth          Auth          `yaml:"auth"`

	ArtifactsDir string `yaml:"artifacts_dir" validate:"required"`
}

type Timeouts struct {
	Assertion    time.Duration `yaml:"assertion" validate:"gt=0"`
	PollInterval time.Duration `yaml:"poll_interval" validate:"gt=0"`
	Action       time.Duration `yaml:"action" validate:"gt=0"`
	Navigation   time.Duration `yaml:"navigation" validate:"gt=0"`
	Scenario     time.Duration `yaml:"scenario" validate:"gt=0"`
	Startup      time.Duration `yaml:"startup" validate:"gte=0"`
}

type Performance struct {
	DefaultBudget time.Duration            `yaml:"default_budget" validate:"gt=0"`
	Budgets       map[string]time.Duration `yaml:"budgets" validate:"dive,gt=0"`
}

type Accessibility struct {
	// AxeScriptPath is injected into pages that do not load axe-core themselves.
	AxeScriptPath string              `yaml:"axe_script"`
	DefaultTags   []string            `yaml:"default_tags"`
	TagSets       map[string][]string `yaml:"tag_sets"`
}

// Auth describes how scenarios that need a signed-in user get one. With a storage state file the
// session starts already signed in; otherwise the credentials are used to sign in through the UI.
type Auth struct {
	StorageStatePath string `yaml:"storage_state"`
	Email            string `yaml:"email" validate:"omitempty,email"`
	Password         string `yaml:"password"`
}

// Default returns the configuration used for anything the file and environment do not set.
func Default() Config {
	return Config{
		BaseURL:        "http://localhost:3000",
		Driver:         DriverPlaywright,
		Browser:        "chromium",
		Headless:       true,
		Viewport:       browser.Viewport{Width: 1280, Height: 800},
		MobileViewport: browser.Viewport{Width: 375, Height: 667},
		Timeouts: Timeouts{
			Assertion:    5 * time.Second,
			PollInterval: 100 * time.Millisecond,
			Action:       10 * time.Second,
			Navigation:   30 * time.Second,
			Scenario:     2 * time.Minute,
			Startup:      time.Minute,
		},
		Performance: Performance{
			DefaultBudget: 3 * time.Second,
			Budgets:       map[string]time.Duration{},
		},
		Accessibility: Accessibility{
			DefaultTags: []string{"wcag2a", "wcag2aa"},
			TagSets: map[string][]string{
				"wcag2aa":  {"wcag2a", "wcag2aa"},
				"wcag21aa": {"wcag2a", "wcag2aa", "wcag21a", "wcag21aa"},
			},
		},
		ArtifactsDir: "test-results",
	}
}

// Load reads the YAML file at path, if path is not empty, on top of the defaults. Variables from
// the env files are then added to the environment without overriding variables that are already
// set; a missing env file is ignored. Finally UITEST_* variables override individual settings.
func Load(path string, envFiles ...string) (Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("could not read config file: %w", err)
		}
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("could not load %s: %w", f, err)
		}
	}
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the configuration for missing or out-of-range values.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			msgs := make([]string, 0, len(invalid))
			for _, fe := range invalid {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Budget returns the performance budget for an operation.
func (c Config) Budget(operation string) time.Duration {
	if b, ok := c.Performance.Budgets[operation]; ok {
		return b
	}
	return c.Performance.DefaultBudget
}

// Tags resolves a named tag set. An empty name gives the default tags; a name that is not a
// configured set is treated as a single tag.
func (c Config) Tags(name string) []string {
	if name == "" {
		return c.Accessibility.DefaultTags
	}
	if tags, ok := c.Accessibility.TagSets[name]; ok {
		return tags
	}
	return []string{name}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"BASE_URL":      &c.BaseURL,
		"STATUS_PATH":   &c.StatusPath,
		"DRIVER":        &c.Driver,
		"BROWSER":       &c.Browser,
		"CHROME_PATH":   &c.ChromePath,
		"ARTIFACTS_DIR": &c.ArtifactsDir,
		"AXE_SCRIPT":    &c.Accessibility.AxeScriptPath,
		"STORAGE_STATE": &c.Auth.StorageStatePath,
		"AUTH_EMAIL":    &c.Auth.Email,
		"AUTH_PASSWORD": &c.Auth.Password,
	}
	for name, dest := range strs {
		if v, ok := lookup(envPrefix + name); ok {
			*dest = v
		}
	}
	if v, ok := lookup(envPrefix + "HEADLESS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sHEADLESS: %w", envPrefix, err)
		}
		c.Headless = b
	}
	durations := map[string]*time.Duration{
		"ASSERTION_TIMEOUT":  &c.Timeouts.Assertion,
		"POLL_INTERVAL":      &c.Timeouts.PollInterval,
		"ACTION_TIMEOUT":     &c.Timeouts.Action,
		"NAVIGATION_TIMEOUT": &c.Timeouts.Navigation,
		"SCENARIO_TIMEOUT":   &c.Timeouts.Scenario,
		"STARTUP_TIMEOUT":    &c.Timeouts.Startup,
		"DEFAULT_BUDGET":     &c.Performance.DefaultBudget,
	}
	for name, dest := range durations {
		if v, ok := lookup(envPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
			}
			*dest = d
		}
	}
	return nil
}
