//go:build !windows
// +build !windows

package winfw

import "fmt"

// Run is a stub for non-Windows platforms. The Windows firewall is only
// reachable from the host it runs on.
func (r *ExecRunner) Run(script string) error {
	return fmt.Errorf("windows firewall access requires windows")
}

// Output is a stub for non-Windows platforms.
func (r *ExecRunner) Output(script string) ([]byte, error) {
	return nil, fmt.Errorf("windows firewall access requires windows")
}
