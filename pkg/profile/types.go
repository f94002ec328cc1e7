// Package profile defines the three SSH connection profile kinds and
// their validation rules. Profiles are plain values; the store owns
// their persistence and the app facade owns their identity.
package profile

// Kind identifies one of the three connection topologies.
type Kind int

const (
	KindDirect Kind = iota
	KindProxyJump
	KindPortForward
)

// Kinds returns all profile kinds in display order.
func Kinds() []Kind {
	return []Kind{KindDirect, KindProxyJump, KindPortForward}
}

func (k Kind) String() string {
	switch k {
	case KindDirect:
		return "direct_connection"
	case KindProxyJump:
		return "proxy_jump"
	case KindPortForward:
		return "port_forward"
	}
	return "unknown"
}

// Title returns the human-readable name for the kind.
func (k Kind) Title() string {
	switch k {
	case KindDirect:
		return "Direct Connections"
	case KindProxyJump:
		return "Proxy Jumps"
	case KindPortForward:
		return "Port Forwards"
	}
	return "Unknown"
}

// Meta carries the identification and metadata fields shared by every
// profile kind. ID is assigned by the facade at creation time and is
// stable across edits.
type Meta struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Notes      string `yaml:"notes,omitempty"`
	DeviceType string `yaml:"device_type,omitempty"`
}

func (m Meta) ProfileID() string   { return m.ID }
func (m Meta) DisplayName() string { return m.Name }

// Profile is the closed set of connection profile kinds. The store and
// the command builder dispatch on the concrete type, never on runtime
// field inspection.
type Profile interface {
	Kind() Kind
	ProfileID() string
	DisplayName() string
	KeyReference() string
	Validate() []Violation
}

// DirectConnection is a plain user@host session.
type DirectConnection struct {
	Meta   `yaml:",inline"`
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	User   string `yaml:"user"`
	KeyRef string `yaml:"key_reference,omitempty"`
}

func (DirectConnection) Kind() Kind             { return KindDirect }
func (c DirectConnection) KeyReference() string { return c.KeyRef }

// ProxyJump reaches a target host through an intermediate jump host.
// One key serves both hops.
type ProxyJump struct {
	Meta       `yaml:",inline"`
	JumpHost   string `yaml:"jump_host"`
	JumpPort   int    `yaml:"jump_port"`
	JumpUser   string `yaml:"jump_user"`
	TargetHost string `yaml:"target_host"`
	TargetPort int    `yaml:"target_port"`
	TargetUser string `yaml:"target_user"`
	KeyRef     string `yaml:"key_reference,omitempty"`
}

func (ProxyJump) Kind() Kind             { return KindProxyJump }
func (p ProxyJump) KeyReference() string { return p.KeyRef }

// PortForward holds a local listener whose traffic is tunnelled through
// remote_user@remote_host to target_host:target_port. The final hop is
// plain network reachability, not a login, so there is no target user.
type PortForward struct {
	Meta       `yaml:",inline"`
	RemoteHost string `yaml:"remote_host"`
	RemotePort int    `yaml:"remote_port"`
	RemoteUser string `yaml:"remote_user"`
	TargetHost string `yaml:"target_host"`
	TargetPort int    `yaml:"target_port"`
	LocalPort  int    `yaml:"local_port"`
	KeyRef     string `yaml:"key_reference,omitempty"`
}

func (PortForward) Kind() Kind             { return KindPortForward }
func (f PortForward) KeyReference() string { return f.KeyRef }

// WithID returns a copy of p with its id replaced.
func WithID(p Profile, id string) Profile {
	switch v := p.(type) {
	case DirectConnection:
		v.ID = id
		return v
	case ProxyJump:
		v.ID = id
		return v
	case PortForward:
		v.ID = id
		return v
	}
	return p
}

// Renamed returns a copy of p with a new display name. Used when
// duplicating a profile.
func Renamed(p Profile, name string) Profile {
	switch v := p.(type) {
	case DirectConnection:
		v.Name = name
		return v
	case ProxyJump:
		v.Name = name
		return v
	case PortForward:
		v.Name = name
		return v
	}
	return p
}
