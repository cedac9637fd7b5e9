package git

import (
	"fmt"
	"os/exec"
	"strings"
)

// Head returns the abbreviated commit hash of HEAD in the given working
// tree. Extracted snapshots use it as their default revision tag.
func Head(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--short", "HEAD")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse failed: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}
