package winfw

import (
	"bytes"
	"encoding/json"
	"fmt"

	"grimm.is/rime/internal/rule"
)

// strList accepts both a bare JSON string and an array of strings.
// ConvertTo-Json collapses single-element arrays depending on the
// PowerShell version, so the decoder takes either shape.
type strList []string

func (l *strList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var vals []string
		if err := json.Unmarshal(data, &vals); err != nil {
			return err
		}
		*l = vals
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*l = nil
		return nil
	}
	*l = []string{s}
	return nil
}

// wireRule is the JSON shape Expand-Rule emits.
type wireRule struct {
	Name          string
	DisplayName   string
	Group         string
	Program       string
	Enabled       string
	Profile       string
	Direction     string
	Action        string
	Protocol      string
	LocalAddress  strList
	LocalPort     strList
	RemoteAddress strList
	RemotePort    strList
	Description   string
}

// toRule maps the wire shape onto the record model. The multi-valued
// fields are joined into their canonical single-string form.
func (w wireRule) toRule() rule.Rule {
	return rule.Rule{
		ID:            w.Name,
		DisplayName:   w.DisplayName,
		Group:         w.Group,
		Program:       w.Program,
		Enabled:       w.Enabled,
		Profile:       w.Profile,
		Direction:     w.Direction,
		Action:        w.Action,
		Protocol:      w.Protocol,
		LocalAddress:  rule.JoinList(w.LocalAddress),
		LocalPort:     rule.JoinList(w.LocalPort),
		RemoteAddress: rule.JoinList(w.RemoteAddress),
		RemotePort:    rule.JoinList(w.RemotePort),
		Description:   w.Description,
	}
}

// wireState is the JSON shape of the cheap states pass.
type wireState struct {
	Name    string
	Enabled string
}

// decodeList decodes script output into a slice, accepting a JSON
// array, a single object or empty output. ConvertTo-Json unwraps
// single-element pipelines on older PowerShell versions, so a lone
// object is a one-element result, not an error.
func decodeList[T any](data []byte) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	if data[0] == '{' {
		var one T
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, fmt.Errorf("decoding rule JSON: %w", err)
		}
		return []T{one}, nil
	}
	var many []T
	if err := json.Unmarshal(data, &many); err != nil {
		return nil, fmt.Errorf("decoding rule JSON: %w", err)
	}
	return many, nil
}
