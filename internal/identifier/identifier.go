// Package identifier derives stable, human-readable identities from the
// heterogeneous metadata PipeWire attaches to nodes. It is pure logic: no
// I/O, no mutable state, nothing that can fail short of a nil receiver.
package identifier

const (
	fallbackIconName  = "audio-card"
	genericIconName   = "audio-x-generic"
)

// Identifier bundles the optional identity strings a PipeWire node may
// carry, plus the one boolean the derivation rules need to know: whether
// the node is attached to a hardware device (as opposed to a client
// stream). A nil field means the property was absent on the node, not
// that it was empty.
type Identifier struct {
	NodeName        *string
	Nick            *string
	Description     *string
	ObjectPath      *string
	ApplicationName *string
	BinaryName      *string
	MediaName       *string
	MediaTitle      *string
	RouteName       *string
	IconName        *string
	DeviceID        *string

	// DeviceAttached is true when this identifier belongs to a node whose
	// EndpointRef is a Device rather than a Client.
	DeviceAttached bool
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func present(s *string) bool {
	return s != nil
}

// ResolvedIconName returns the icon to show for this identifier: an
// explicit application icon wins, then "audio-card" for device-attached
// nodes, then a generic multimedia fallback.
func (id *Identifier) ResolvedIconName() string {
	if present(id.IconName) {
		return str(id.IconName)
	}
	if id.DeviceAttached {
		return fallbackIconName
	}
	return genericIconName
}

// HumanName returns the best display name: description, then nick, then
// application name, then route name, then the raw node name.
func (id *Identifier) HumanName() string {
	for _, f := range []*string{id.Description, id.Nick, id.ApplicationName, id.RouteName, id.NodeName} {
		if present(f) {
			return str(f)
		}
	}
	return ""
}

// MatchKey returns the stable identity used to re-associate a node across
// server restarts: node name, then object path, then description, then
// nick.
func (id *Identifier) MatchKey() string {
	for _, f := range []*string{id.NodeName, id.ObjectPath, id.Description, id.Nick} {
		if present(f) {
			return str(f)
		}
	}
	return ""
}

// Details returns the list of secondary detail strings shown alongside
// the human name: route name, media name, media title, and the
// application name if it differs from the chosen human name.
func (id *Identifier) Details() []string {
	var details []string
	if present(id.RouteName) {
		details = append(details, str(id.RouteName))
	}
	if present(id.MediaName) {
		details = append(details, str(id.MediaName))
	}
	if present(id.MediaTitle) {
		details = append(details, str(id.MediaTitle))
	}
	if present(id.ApplicationName) && str(id.ApplicationName) != id.HumanName() {
		details = append(details, str(id.ApplicationName))
	}
	return details
}

// Admitted reports whether this identifier carries the minimum metadata
// required to be visible at all: a usable name (any of the match-key
// fields) is required. A node lacking all of them is "identifier
// starvation" (spec.md §7) and must be skipped by the caller.
func (id *Identifier) Admitted() bool {
	return id.MatchKey() != ""
}

// Matches implements the identity comparison used to
// re-resolve a PersistentNode across restarts: true iff the first of
// {node_name, object_path, description, nick} present on BOTH sides is
// equal. A field missing on either side is skipped, not treated as a
// mismatch; if no field is present on both sides, the identifiers do not
// match.
func (id *Identifier) Matches(other *Identifier) bool {
	if id == nil || other == nil {
		return false
	}
	pairs := [][2]*string{
		{id.NodeName, other.NodeName},
		{id.ObjectPath, other.ObjectPath},
		{id.Description, other.Description},
		{id.Nick, other.Nick},
	}
	for _, p := range pairs {
		a, b := p[0], p[1]
		if present(a) && present(b) {
			return str(a) == str(b)
		}
	}
	return false
}
