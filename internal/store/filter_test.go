package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"grimm.is/rime/internal/rule"
)

func TestFilterZero(t *testing.T) {
	assert.True(t, Filter{}.IsZero())
	assert.False(t, Filter{Group: "Web"}.IsZero())

	// Zero filter matches everything
	assert.True(t, Filter{}.Matches(rule.Rule{ID: "x"}))
	assert.True(t, Filter{}.Matches(rule.Rule{}))
}

func TestFilterNameSubstring(t *testing.T) {
	r := rule.Rule{DisplayName: "Remote Desktop - User Mode (TCP-In)", Group: "Remote Desktop"}

	assert.True(t, Filter{DisplayName: "Remote Desktop"}.Matches(r))
	assert.True(t, Filter{DisplayName: "TCP-In"}.Matches(r))
	assert.False(t, Filter{DisplayName: "UDP-In"}.Matches(r))

	assert.True(t, Filter{Group: "Remote"}.Matches(r))
	assert.True(t, Filter{DisplayGroup: "Remote"}.Matches(r))
	assert.False(t, Filter{Group: "Web"}.Matches(r))
}

func TestFilterNameGlob(t *testing.T) {
	r := rule.Rule{DisplayName: "Core Networking - DNS (UDP-Out)"}

	assert.True(t, Filter{DisplayName: "Core Networking*"}.Matches(r))
	assert.True(t, Filter{DisplayName: "*DNS*"}.Matches(r))
	assert.False(t, Filter{DisplayName: "DNS*"}.Matches(r))
}

func TestFilterEnumsExact(t *testing.T) {
	r := rule.Rule{Enabled: "True", Profile: "Domain", Direction: "Inbound", Action: "Allow"}

	assert.True(t, Filter{Enabled: "True", Direction: "Inbound"}.Matches(r))
	assert.False(t, Filter{Enabled: "true"}.Matches(r), "enum match is exact, not fuzzy")
	assert.False(t, Filter{Direction: "Outbound"}.Matches(r))
	assert.False(t, Filter{Profile: "Dom"}.Matches(r), "enum match is whole-value")
	assert.False(t, Filter{Action: "Block"}.Matches(r))
}

func TestFilterConjunction(t *testing.T) {
	r := rule.Rule{DisplayName: "Web Server", Direction: "Inbound", Action: "Allow"}
	assert.True(t, Filter{DisplayName: "Web", Direction: "Inbound"}.Matches(r))
	assert.False(t, Filter{DisplayName: "Web", Direction: "Outbound"}.Matches(r))
}
