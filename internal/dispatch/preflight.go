package dispatch

import (
	"fmt"
	"os/exec"
	"strings"
)

// Preflight checks that bash and the programs the given commands start with
// are available on PATH.
func Preflight(commands ...string) error {
	needed := map[string]bool{"bash": true}
	for _, c := range commands {
		if bin := leadingProgram(c); bin != "" {
			needed[bin] = true
		}
	}

	var missing []string
	for bin := range needed {
		if _, err := exec.LookPath(bin); err != nil {
			missing = append(missing, bin)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("required binaries not found in PATH: %s", strings.Join(missing, ", "))
	}
	return nil
}

// leadingProgram returns the first word of a command that is not a
// variable assignment.
func leadingProgram(command string) string {
	for _, f := range strings.Fields(command) {
		if strings.Contains(f, "=") {
			continue
		}
		if strings.ContainsAny(f, "$`(") {
			return ""
		}
		return f
	}
	return ""
}
