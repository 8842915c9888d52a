package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const versionTimeout = 5 * time.Second

// ProbeVersions fills Version on every available status whose requirement
// declares VersionArgs. A failing version probe leaves the binary available
// and records the failure in Detail.
func ProbeVersions(ctx context.Context, requirements []Requirement, statuses []Status) {
	for i := range statuses {
		if i >= len(requirements) || !statuses[i].Available || len(requirements[i].VersionArgs) == 0 {
			continue
		}
		version, err := Version(ctx, statuses[i].Path, requirements[i].VersionArgs...)
		if err != nil {
			statuses[i].Detail = err.Error()
			continue
		}
		statuses[i].Version = version
	}
}

// Version runs binary with args and returns the first non-empty output line.
func Version(ctx context.Context, binary string, args ...string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	probeCtx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, binary, args...) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("version probe %s: %w", binary, err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	return "", fmt.Errorf("version probe %s: empty output", binary)
}
