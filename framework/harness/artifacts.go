package harness

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/feedbackhq/ui-contract-tests/framework"
	"github.com/feedbackhq/ui-contract-tests/framework/a11y"
	"github.com/feedbackhq/ui-contract-tests/framework/netmock"
	"github.com/feedbackhq/ui-contract-tests/framework/perf"
)

const artifactTimeFormat = "20060102-150405.000"

// Artifact file names.
const (
	ScreenshotFile   = "screenshot.png"
	DOMFile          = "dom.html"
	ErrorFile        = "error.txt"
	NetworkFile      = "network.json"
	MeasurementsFile = "measurements.json"
	ViolationsFile   = "violations.json"
	DebugLogFile     = "debug.log"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// Artifacts is everything captured about a failed scenario.
type Artifacts struct {
	Screenshot   []byte
	DOM          string
	Error        error
	Network      []netmock.LogEntry
	Measurements []perf.Measurement
	Violations   []a11y.Violation
	DebugOutput  framework.CapturedOutput
}

// ArtifactStore writes failure artifacts to a directory per scenario failure.
type ArtifactStore struct {
	dir string
}

func NewArtifactStore(dir string) *ArtifactStore {
	return &ArtifactStore{dir: dir}
}

// Dir returns the root directory.
func (s *ArtifactStore) Dir() string { return s.dir }

// Save writes the artifacts under <dir>/<scenario>-<timestamp>/ and returns that path. Empty
// artifacts are skipped, except for the error.
func (s *ArtifactStore) Save(scenario string, at time.Time, a Artifacts) (string, error) {
	name := strings.Trim(unsafeNameChars.ReplaceAllString(scenario, "-"), "-")
	if name == "" {
		name = "scenario"
	}
	path := filepath.Join(s.dir, fmt.Sprintf("%s-%s", name, at.UTC().Format(artifactTimeFormat)))
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("could not create artifact directory: %w", err)
	}

	errText := "(no error recorded)\n"
	if a.Error != nil {
		errText = a.Error.Error() + "\n"
	}
	files := map[string][]byte{ErrorFile: []byte(errText)}
	if len(a.Screenshot) > 0 {
		files[ScreenshotFile] = a.Screenshot
	}
	if a.DOM != "" {
		files[DOMFile] = []byte(a.DOM)
	}
	if len(a.DebugOutput) > 0 {
		var b strings.Builder
		a.DebugOutput.Dump(&b, "")
		files[DebugLogFile] = []byte(b.String())
	}
	for file, v := range map[string]interface{}{
		NetworkFile:      a.Network,
		MeasurementsFile: a.Measurements,
		ViolationsFile:   a.Violations,
	} {
		if isEmptySlice(v) {
			continue
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return path, fmt.Errorf("could not encode %s: %w", file, err)
		}
		files[file] = data
	}

	for file, data := range files {
		if err := os.WriteFile(filepath.Join(path, file), data, 0o644); err != nil {
			return path, fmt.Errorf("could not write %s: %w", file, err)
		}
	}
	return path, nil
}

func isEmptySlice(v interface{}) bool {
	switch x := v.(type) {
	case []netmock.LogEntry:
		return len(x) == 0
	case []perf.Measurement:
		return len(x) == 0
	case []a11y.Violation:
		return len(x) == 0
	}
	return false
}
