//go:build windows
// +build windows

package winfw

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// powershell invocation flags. NonInteractive keeps a wedged script from
// waiting on a prompt forever.
var psArgs = []string{"-NoProfile", "-NonInteractive", "-Command"}

// Run executes a script without capturing output.
func (r *ExecRunner) Run(script string) error {
	cmd := exec.Command("powershell.exe", append(psArgs, script)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("powershell failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Output executes a script and returns its standard output.
func (r *ExecRunner) Output(script string) ([]byte, error) {
	out, err := exec.Command("powershell.exe", append(psArgs, script)...).Output()
	if err != nil {
		var ex *exec.ExitError
		if errors.As(err, &ex) && len(ex.Stderr) > 0 {
			return nil, fmt.Errorf("powershell failed: %w: %s", err, strings.TrimSpace(string(ex.Stderr)))
		}
		return nil, fmt.Errorf("powershell failed: %w", err)
	}
	return out, nil
}
