package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/movemntdev/movement-cli-e2e/types"
)

// WriteSummary writes the plain text summary of s to dir/summary.log and
// returns its path.
func WriteSummary(dir string, s Summary) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "RESULTS SUMMARY\n")
	fmt.Fprintf(&b, "===============\n\n")
	fmt.Fprintf(&b, "Run ID: %s\n", s.RunID)
	fmt.Fprintf(&b, "Network: %s\n", s.Network)
	fmt.Fprintf(&b, "Time: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&b, "Duration: %s\n", formatDuration(s.Duration))
	fmt.Fprintf(&b, "Final state: %s\n", s.State)
	fmt.Fprintf(&b, "Status: %s\n\n", strings.ToUpper(string(s.Status())))

	if s.Fatal != nil {
		fmt.Fprintf(&b, "Run aborted: %v\n\n", s.Fatal)
	}

	fmt.Fprintf(&b, "Total: %d, Passed: %d, Failed: %d\n\n", len(s.Outcomes), s.Passed(), s.Failed())

	for _, o := range s.Outcomes {
		fmt.Fprintf(&b, "%s %s (%s)\n", getResultString(o.Status), o.Name, formatDuration(o.Duration))
		if o.Status == types.TestStatusPass || o.Detail == nil {
			continue
		}
		fmt.Fprintf(&b, "    kind: %s\n", o.Detail.Kind)
		fmt.Fprintf(&b, "    error: %s\n", o.Detail.Message())
		if o.Detail.Command != "" {
			fmt.Fprintf(&b, "    command: %s\n", o.Detail.Command)
		}
	}

	path := filepath.Join(dir, SummaryFilename)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}
	return path, nil
}
