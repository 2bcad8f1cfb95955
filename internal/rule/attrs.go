package rule

// Attr names one rule attribute. The string value doubles as the snapshot
// column header and the store-facing parameter name.
type Attr string

const (
	AttrID            Attr = "ID"
	AttrDisplayName   Attr = "DisplayName"
	AttrGroup         Attr = "Group"
	AttrProgram       Attr = "Program"
	AttrEnabled       Attr = "Enabled"
	AttrProfile       Attr = "Profile"
	AttrDirection     Attr = "Direction"
	AttrAction        Attr = "Action"
	AttrProtocol      Attr = "Protocol"
	AttrLocalAddress  Attr = "LocalAddress"
	AttrLocalPort     Attr = "LocalPort"
	AttrRemoteAddress Attr = "RemoteAddress"
	AttrRemotePort    Attr = "RemotePort"
	AttrDescription   Attr = "Description"
)

// Info describes one attribute: how to read and write it on a Rule and
// whether its value is a comma-joined list that must be decomposed before
// store writes.
type Info struct {
	Attr   Attr
	Get    func(*Rule) string
	Set    func(*Rule, string)
	IsList bool
}

// fields lists every attribute in model order. This order is the snapshot
// column order, with ID first.
var fields = []Info{
	{AttrID, func(r *Rule) string { return r.ID }, func(r *Rule, v string) { r.ID = v }, false},
	{AttrDisplayName, func(r *Rule) string { return r.DisplayName }, func(r *Rule, v string) { r.DisplayName = v }, false},
	{AttrGroup, func(r *Rule) string { return r.Group }, func(r *Rule, v string) { r.Group = v }, false},
	{AttrProgram, func(r *Rule) string { return r.Program }, func(r *Rule, v string) { r.Program = v }, false},
	{AttrEnabled, func(r *Rule) string { return r.Enabled }, func(r *Rule, v string) { r.Enabled = v }, false},
	{AttrProfile, func(r *Rule) string { return r.Profile }, func(r *Rule, v string) { r.Profile = v }, false},
	{AttrDirection, func(r *Rule) string { return r.Direction }, func(r *Rule, v string) { r.Direction = v }, false},
	{AttrAction, func(r *Rule) string { return r.Action }, func(r *Rule, v string) { r.Action = v }, false},
	{AttrProtocol, func(r *Rule) string { return r.Protocol }, func(r *Rule, v string) { r.Protocol = v }, false},
	{AttrLocalAddress, func(r *Rule) string { return r.LocalAddress }, func(r *Rule, v string) { r.LocalAddress = v }, true},
	{AttrLocalPort, func(r *Rule) string { return r.LocalPort }, func(r *Rule, v string) { r.LocalPort = v }, true},
	{AttrRemoteAddress, func(r *Rule) string { return r.RemoteAddress }, func(r *Rule, v string) { r.RemoteAddress = v }, true},
	{AttrRemotePort, func(r *Rule) string { return r.RemotePort }, func(r *Rule, v string) { r.RemotePort = v }, true},
	{AttrDescription, func(r *Rule) string { return r.Description }, func(r *Rule, v string) { r.Description = v }, false},
}

// updateOrder lists the mutable attributes in the order the reconciler
// must process them. DisplayName comes first (rename is a distinct store
// operation) and Group second (its store write reads the rule back by the
// then-current name). ID is identity, never written by the loop.
var updateOrder = []Attr{
	AttrDisplayName,
	AttrGroup,
	AttrProgram,
	AttrEnabled,
	AttrProfile,
	AttrDirection,
	AttrAction,
	AttrProtocol,
	AttrLocalAddress,
	AttrLocalPort,
	AttrRemoteAddress,
	AttrRemotePort,
	AttrDescription,
}

var infoByAttr = func() map[Attr]Info {
	m := make(map[Attr]Info, len(fields))
	for _, f := range fields {
		m[f.Attr] = f
	}
	return m
}()

// Fields returns every attribute name in model order (ID first).
func Fields() []Attr {
	out := make([]Attr, len(fields))
	for i, f := range fields {
		out[i] = f.Attr
	}
	return out
}

// Mutable returns the attribute table in reconciliation order, ID excluded.
func Mutable() []Info {
	out := make([]Info, len(updateOrder))
	for i, a := range updateOrder {
		out[i] = infoByAttr[a]
	}
	return out
}

// InfoFor looks up the table entry for one attribute.
func InfoFor(a Attr) (Info, bool) {
	info, ok := infoByAttr[a]
	return info, ok
}

// Get reads an attribute by name. Unknown attributes read as empty.
func (r *Rule) Get(a Attr) string {
	info, ok := infoByAttr[a]
	if !ok {
		return ""
	}
	return info.Get(r)
}

// Set writes an attribute by name. Unknown attributes are dropped.
func (r *Rule) Set(a Attr, v string) {
	if info, ok := infoByAttr[a]; ok {
		info.Set(r, v)
	}
}

// IsList reports whether the attribute is a comma-joined list.
func IsList(a Attr) bool {
	return infoByAttr[a].IsList
}
