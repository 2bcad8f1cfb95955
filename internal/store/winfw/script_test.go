package winfw

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"grimm.is/rime/internal/rule"
	"grimm.is/rime/internal/store"
)

func TestPsQuote(t *testing.T) {
	assert.Equal(t, "'plain'", psQuote("plain"))
	assert.Equal(t, "''", psQuote(""))
	assert.Equal(t, "'Contoso''s rule'", psQuote("Contoso's rule"))
	assert.Equal(t, `'C:\Program Files\App\app.exe'`, psQuote(`C:\Program Files\App\app.exe`))
}

func TestPsList(t *testing.T) {
	assert.Equal(t, "@('80', '443')", psList([]string{"80", "443"}))
	assert.Equal(t, "@('Any')", psList([]string{"Any"}))
	assert.Equal(t, "@()", psList(nil))
}

func TestRuleQueryWrapsSubstrings(t *testing.T) {
	q := ruleQuery(store.Filter{DisplayName: "Remote"})
	assert.Contains(t, q, "-DisplayName '*Remote*'")

	q = ruleQuery(store.Filter{DisplayName: "Remote*"})
	assert.Contains(t, q, "-DisplayName 'Remote*'")
	assert.NotContains(t, q, "*Remote**")
}

func TestRuleQueryFilters(t *testing.T) {
	q := ruleQuery(store.Filter{
		Group:     "rime",
		Enabled:   "True",
		Direction: "Inbound",
		Action:    "Block",
	})
	assert.Contains(t, q, "-Group '*rime*'")
	assert.Contains(t, q, "-Enabled 'True'")
	assert.Contains(t, q, "-Direction 'Inbound'")
	assert.Contains(t, q, "-Action 'Block'")
	assert.NotContains(t, q, "Where-Object")
}

func TestRuleQueryProfileIsPipelineStage(t *testing.T) {
	q := ruleQuery(store.Filter{Profile: "Private"})
	assert.NotContains(t, q, "-Profile")
	assert.Contains(t, q, "Where-Object { [string]$_.Profile -eq 'Private' }")
}

func TestRuleQueryZeroFilter(t *testing.T) {
	q := ruleQuery(store.Filter{})
	assert.Equal(t, "$rules = @(Get-NetFirewallRule -ErrorAction SilentlyContinue)\n", q)
}

func TestStatesScriptSkipsFilterJoins(t *testing.T) {
	s := statesScript(store.Filter{})
	assert.Contains(t, s, "Select-Object")
	assert.Contains(t, s, "[string]$_.Enabled")
	assert.Contains(t, s, "ConvertTo-Json -InputObject")
	assert.NotContains(t, s, "Get-NetFirewallPortFilter")
}

func TestEnumerateScriptJoinsFilters(t *testing.T) {
	s := enumerateScript(store.Filter{})
	assert.Contains(t, s, "Get-NetFirewallPortFilter")
	assert.Contains(t, s, "Get-NetFirewallAddressFilter")
	assert.Contains(t, s, "Get-NetFirewallApplicationFilter")
	assert.Contains(t, s, "foreach ($r in $rules) { Expand-Rule $r }")
}

func TestGetScriptExitsNotFound(t *testing.T) {
	s := getScript("r1")
	assert.Contains(t, s, "Get-NetFirewallRule -Name 'r1' -ErrorAction Stop")
	assert.Contains(t, s, "ObjectNotFound")
	assert.Contains(t, s, "exit 3")
}

func TestCreateScriptParams(t *testing.T) {
	s := createScript(rule.Rule{
		ID:          "web-in",
		DisplayName: "Web Server (TCP-In)",
		Enabled:     "True",
		Direction:   "Inbound",
		Action:      "Allow",
		Protocol:    "TCP",
		LocalPort:   "80, 443",
	})
	assert.Contains(t, s, "New-NetFirewallRule -ErrorAction Stop")
	assert.Contains(t, s, "-Name 'web-in'")
	assert.Contains(t, s, "-DisplayName 'Web Server (TCP-In)'")
	assert.Contains(t, s, "-LocalPort @('80', '443')")
	// Empty fields stay out so the store defaults apply.
	assert.NotContains(t, s, "-Description")
	assert.NotContains(t, s, "-RemotePort")
	// The created rule is echoed back.
	assert.Contains(t, s, "$out = Expand-Rule $r")
}

func TestCreateScriptOmitsEmptyName(t *testing.T) {
	s := createScript(rule.Rule{DisplayName: "Assigned", Direction: "Inbound", Action: "Allow"})
	assert.NotContains(t, s, "-Name ")
	assert.Contains(t, s, "-DisplayName 'Assigned'")
}

func TestSetScriptSingleValue(t *testing.T) {
	s := setScript("r1", rule.AttrEnabled, []string{"False"})
	assert.Contains(t, s, "Set-NetFirewallRule -Name 'r1' -Enabled 'False' -ErrorAction Stop")
	assert.Contains(t, s, "exit 3")
}

func TestSetScriptListDecomposition(t *testing.T) {
	s := setScript("r1", rule.AttrLocalPort, []string{"80", "443"})
	assert.Contains(t, s, "-LocalPort @('80', '443')")
}

func TestSetScriptDisplayNameParam(t *testing.T) {
	s := setScript("r1", rule.AttrDisplayName, []string{"New Name"})
	assert.Contains(t, s, "-NewDisplayName 'New Name'")
	assert.NotContains(t, s, "-DisplayName ")
}

func TestSetGroupScriptRoundTrips(t *testing.T) {
	s := setGroupScript("r1", "Ops Baseline")
	assert.Contains(t, s, "$r = Get-NetFirewallRule -Name 'r1' -ErrorAction Stop")
	assert.Contains(t, s, "$r.Group = 'Ops Baseline'")
	assert.Contains(t, s, "$r | Set-NetFirewallRule -ErrorAction Stop")
	// The fetch and the write share one guard.
	assert.Equal(t, 1, strings.Count(s, "try {"))
}

func TestRenameScript(t *testing.T) {
	s := renameScript("r1", "Renamed")
	assert.Contains(t, s, "-Name 'r1' -NewDisplayName 'Renamed'")
}
