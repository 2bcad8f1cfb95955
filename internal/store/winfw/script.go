package winfw

import (
	"strconv"
	"strings"

	"grimm.is/rime/internal/rule"
	"grimm.is/rime/internal/store"
)

// exitNotFound is the exit code scripts use to signal a missing rule.
// Store maps it to store.ErrNotFound.
const exitNotFound = 3

// expandFunc joins a firewall rule with its port, address and
// application filter objects and renders the result with every enum cast
// to [string]. Without the casts Windows PowerShell serializes enums as
// their ordinals.
const expandFunc = `function Expand-Rule($r) {
    $pf = $r | Get-NetFirewallPortFilter
    $af = $r | Get-NetFirewallAddressFilter
    $apf = $r | Get-NetFirewallApplicationFilter
    [pscustomobject]@{
        Name          = [string]$r.Name
        DisplayName   = [string]$r.DisplayName
        Group         = [string]$r.Group
        Program       = [string]$apf.Program
        Enabled       = [string]$r.Enabled
        Profile       = [string]$r.Profile
        Direction     = [string]$r.Direction
        Action        = [string]$r.Action
        Protocol      = [string]$pf.Protocol
        LocalAddress  = @($af.LocalAddress)
        LocalPort     = @($pf.LocalPort)
        RemoteAddress = @($af.RemoteAddress)
        RemotePort    = @($pf.RemotePort)
        Description   = [string]$r.Description
    }
}
`

// psQuote renders a single-quoted PowerShell string literal. Single
// quotes are the only character that needs escaping in that form.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// psList renders a PowerShell array literal of quoted strings.
func psList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = psQuote(v)
	}
	return "@(" + strings.Join(quoted, ", ") + ")"
}

// nameArg gives the name-like filter fields their substring semantics:
// a value without wildcards is wrapped in them, a value with wildcards
// passes through for the cmdlet to glob natively.
func nameArg(v string) string {
	if strings.Contains(v, "*") {
		return v
	}
	return "*" + v + "*"
}

// ruleQuery builds the filtered Get-NetFirewallRule fetch into $rules.
// SilentlyContinue keeps a no-match filter from erroring; an empty
// result set is a normal answer for an enumeration. Profile has no
// native cmdlet parameter, so it filters in a pipeline stage.
func ruleQuery(f store.Filter) string {
	var b strings.Builder
	b.WriteString("$rules = @(Get-NetFirewallRule -ErrorAction SilentlyContinue")
	if f.DisplayName != "" {
		b.WriteString(" -DisplayName " + psQuote(nameArg(f.DisplayName)))
	}
	if f.Group != "" {
		b.WriteString(" -Group " + psQuote(nameArg(f.Group)))
	}
	if f.DisplayGroup != "" {
		b.WriteString(" -DisplayGroup " + psQuote(nameArg(f.DisplayGroup)))
	}
	if f.Enabled != "" {
		b.WriteString(" -Enabled " + psQuote(f.Enabled))
	}
	if f.Direction != "" {
		b.WriteString(" -Direction " + psQuote(f.Direction))
	}
	if f.Action != "" {
		b.WriteString(" -Action " + psQuote(f.Action))
	}
	b.WriteString(")\n")
	if f.Profile != "" {
		b.WriteString("$rules = @($rules | Where-Object { [string]$_.Profile -eq " + psQuote(f.Profile) + " })\n")
	}
	return b.String()
}

// guard wraps by-ID statements so a missing rule exits with
// exitNotFound and every other failure surfaces as a plain error.
func guard(body string) string {
	var b strings.Builder
	b.WriteString("try {\n")
	for _, line := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
		b.WriteString("    " + line + "\n")
	}
	b.WriteString("} catch {\n")
	b.WriteString("    if ($_.CategoryInfo.Category -eq 'ObjectNotFound') { exit " + strconv.Itoa(exitNotFound) + " }\n")
	b.WriteString("    Write-Error $_\n")
	b.WriteString("    exit 1\n")
	b.WriteString("}\n")
	return b.String()
}

// statesScript is the cheap enumeration: identity and enabled state
// only, no per-rule filter object joins.
func statesScript(f store.Filter) string {
	return ruleQuery(f) +
		"$out = @($rules | Select-Object -Property @{n='Name';e={[string]$_.Name}}, @{n='Enabled';e={[string]$_.Enabled}})\n" +
		"ConvertTo-Json -InputObject $out -Compress\n"
}

// enumerateScript is the full enumeration, three extra cmdlet calls per
// rule.
func enumerateScript(f store.Filter) string {
	return expandFunc + ruleQuery(f) +
		"$out = @(foreach ($r in $rules) { Expand-Rule $r })\n" +
		"ConvertTo-Json -InputObject $out -Depth 3 -Compress\n"
}

// getScript fetches one fully populated rule by name.
func getScript(id string) string {
	return expandFunc +
		guard("$r = Get-NetFirewallRule -Name "+psQuote(id)+" -ErrorAction Stop") +
		"$out = Expand-Rule $r\n" +
		"ConvertTo-Json -InputObject $out -Depth 3 -Compress\n"
}

// createScript builds the New-NetFirewallRule call from a template.
// Empty fields are omitted so the store fills its defaults; an empty ID
// omits -Name and Windows assigns a GUID. The created rule is echoed
// back fully expanded so the caller learns the assigned identity.
func createScript(r rule.Rule) string {
	var b strings.Builder
	b.WriteString(expandFunc)
	b.WriteString("$r = New-NetFirewallRule -ErrorAction Stop")
	for _, a := range rule.Fields() {
		v := r.Get(a)
		if v == "" {
			continue
		}
		if rule.IsList(a) {
			b.WriteString(" " + paramName(a) + " " + psList(rule.SplitList(v)))
		} else {
			b.WriteString(" " + paramName(a) + " " + psQuote(v))
		}
	}
	b.WriteString("\n")
	b.WriteString("$out = Expand-Rule $r\n")
	b.WriteString("ConvertTo-Json -InputObject $out -Depth 3 -Compress\n")
	return b.String()
}

// setScript patches one attribute on one rule. DisplayName maps to the
// cmdlet's -NewDisplayName; the other attribute names are the parameter
// names.
func setScript(id string, attr rule.Attr, values []string) string {
	arg := psQuote(rule.JoinList(values))
	if rule.IsList(attr) {
		arg = psList(values)
	}
	param := "-" + string(attr)
	if attr == rule.AttrDisplayName {
		param = "-NewDisplayName"
	}
	return guard("Set-NetFirewallRule -Name " + psQuote(id) + " " + param + " " + arg + " -ErrorAction Stop")
}

// setGroupScript writes the Group field. Set-NetFirewallRule has no
// -Group parameter; the documented way is a fetch, field assignment and
// write-back of the whole object.
func setGroupScript(id, group string) string {
	return guard("$r = Get-NetFirewallRule -Name " + psQuote(id) + " -ErrorAction Stop\n" +
		"$r.Group = " + psQuote(group) + "\n" +
		"$r | Set-NetFirewallRule -ErrorAction Stop")
}

// renameScript changes a rule's display name.
func renameScript(id, displayName string) string {
	return guard("Set-NetFirewallRule -Name " + psQuote(id) + " -NewDisplayName " + psQuote(displayName) + " -ErrorAction Stop")
}

// paramName maps an attribute to its New-NetFirewallRule parameter.
// Only the ID differs: the cmdlets call it Name.
func paramName(a rule.Attr) string {
	if a == rule.AttrID {
		return "-Name"
	}
	return "-" + string(a)
}
