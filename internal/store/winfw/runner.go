// Package winfw implements the rule store against the Windows host
// firewall by shelling out to the NetSecurity PowerShell cmdlets.
// Scripts are built in script.go, executed through a Runner and their
// JSON output decoded in parse.go.
package winfw

// Runner abstracts PowerShell script execution.
// Used by Store for every firewall read and write.
type Runner interface {
	Run(script string) error
	Output(script string) ([]byte, error)
}

// ExecRunner executes scripts through powershell.exe.
// Methods are implemented in runner_windows.go and runner_stub.go.
type ExecRunner struct{}

// DefaultRunner is the default script runner.
var DefaultRunner Runner = &ExecRunner{}
