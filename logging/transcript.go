// Package logging persists a transcript of every CLI invocation so a failed
// run can be debugged after the fact.
package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/movemntdev/movement-cli-e2e/types"
)

const (
	OutputDirName = "out"
	LogSuffix     = ".log"
	FailureSuffix = ".failure"
)

// Transcript is the captured record of one CLI invocation.
type Transcript struct {
	TestName string
	Command  string
	Dir      string
	Stdin    string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
	Duration time.Duration
}

// TranscriptLogger writes one file per invocation to <workdir>/out. File
// names carry a zero padded invocation counter, so calling the same test
// twice never overwrites the earlier transcript.
type TranscriptLogger struct {
	dir   string
	mu    sync.Mutex
	count int
}

// NewTranscriptLogger creates the output directory under workDir.
func NewTranscriptLogger(workDir string) (*TranscriptLogger, error) {
	if workDir == "" {
		return nil, fmt.Errorf("workDir cannot be empty")
	}
	dir := filepath.Join(workDir, OutputDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create transcript directory %s: %w", dir, err)
	}
	return &TranscriptLogger{dir: dir}, nil
}

// Dir returns the directory transcripts are written to.
func (l *TranscriptLogger) Dir() string {
	return l.dir
}

// Count returns how many transcripts have been written.
func (l *TranscriptLogger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Write persists t and returns the path of the new file.
func (l *TranscriptLogger) Write(t Transcript) (string, error) {
	var content strings.Builder
	writeSection(&content, "COMMAND", t.Command)
	if t.Dir != "" {
		fmt.Fprintf(&content, "Working directory: %s\n", t.Dir)
	}
	fmt.Fprintf(&content, "Exit code: %d\n", t.ExitCode)
	fmt.Fprintf(&content, "Duration: %s\n\n", formatDuration(t.Duration))
	if t.Stdin != "" {
		writeSection(&content, "STDIN", t.Stdin)
	}
	writeSection(&content, "STDOUT", t.Stdout)
	writeSection(&content, "STDERR", t.Stderr)
	if t.Err != nil {
		writeSection(&content, "ERROR", t.Err.Error())
	}
	return l.create(t.TestName, LogSuffix, content.String())
}

// WriteFailure persists the failure detail recorded for a test case.
func (l *TranscriptLogger) WriteFailure(testName string, detail types.FailureDetail) (string, error) {
	var content strings.Builder
	fmt.Fprintf(&content, "Test: %s\n", testName)
	fmt.Fprintf(&content, "Kind: %s\n\n", detail.Kind)
	writeSection(&content, "ERROR", detail.Message())
	if detail.Command != "" {
		writeSection(&content, "COMMAND", detail.Command)
	}
	if detail.Stdout != "" {
		writeSection(&content, "STDOUT", detail.Stdout)
	}
	if detail.Stderr != "" {
		writeSection(&content, "STDERR", detail.Stderr)
	}
	return l.create(testName, FailureSuffix, content.String())
}

func (l *TranscriptLogger) create(testName, suffix, content string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		l.count++
		path := filepath.Join(l.dir, fmt.Sprintf("%03d_%s%s", l.count, safeFilename(testName), suffix))
		// O_EXCL keeps a stale file from a previous run from being clobbered.
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create transcript %s: %w", path, err)
		}
		if _, err := f.WriteString(content); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("failed to write transcript %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to close transcript %s: %w", path, err)
		}
		return path, nil
	}
}

func writeSection(b *strings.Builder, title, body string) {
	fmt.Fprintf(b, "%s:\n", title)
	fmt.Fprintf(b, "%s\n", strings.Repeat("=", len(title)+1))
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// safeFilename converts a string to a safe filename by replacing problematic characters
func safeFilename(s string) string {
	if s == "" {
		return "unnamed"
	}
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "_",
	)
	return replacer.Replace(s)
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}
