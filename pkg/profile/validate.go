package profile

import (
	"fmt"
	"strings"
)

// Valid port range for every port field.
const (
	PortMin = 1
	PortMax = 65535
)

// Violation describes a single field-level validation failure. Invalid
// user input is a normal, reportable outcome, not an error condition.
type Violation struct {
	Field   string
	Message string
}

func (v Violation) String() string {
	return v.Field + ": " + v.Message
}

func requireString(vs []Violation, field, value string) []Violation {
	if strings.TrimSpace(value) == "" {
		vs = append(vs, Violation{Field: field, Message: "must not be empty"})
	}
	return vs
}

func requirePort(vs []Violation, field string, port int) []Violation {
	if port < PortMin || port > PortMax {
		vs = append(vs, Violation{Field: field, Message: fmt.Sprintf("must be between %d and %d", PortMin, PortMax)})
	}
	return vs
}

// Validate returns all field-level violations; an empty result means
// the profile is valid.
func (c DirectConnection) Validate() []Violation {
	var vs []Violation
	vs = requireString(vs, "name", c.Name)
	vs = requireString(vs, "host", c.Host)
	vs = requireString(vs, "user", c.User)
	vs = requirePort(vs, "port", c.Port)
	return vs
}

// Validate returns all field-level violations. Jump and target must
// both be fully specified and may not name the same endpoint, which
// would make the jump a no-op.
func (p ProxyJump) Validate() []Violation {
	var vs []Violation
	vs = requireString(vs, "name", p.Name)
	vs = requireString(vs, "jump_host", p.JumpHost)
	vs = requireString(vs, "jump_user", p.JumpUser)
	vs = requirePort(vs, "jump_port", p.JumpPort)
	vs = requireString(vs, "target_host", p.TargetHost)
	vs = requireString(vs, "target_user", p.TargetUser)
	vs = requirePort(vs, "target_port", p.TargetPort)
	if p.JumpHost != "" && p.JumpHost == p.TargetHost && p.JumpPort == p.TargetPort && p.JumpUser == p.TargetUser {
		vs = append(vs, Violation{Field: "target_host", Message: "jump and target endpoints are identical"})
	}
	return vs
}

// Validate returns all field-level violations. Collisions between the
// local port and other active forwards are a launch-time concern and
// are checked by the session launcher, not here.
func (f PortForward) Validate() []Violation {
	var vs []Violation
	vs = requireString(vs, "name", f.Name)
	vs = requireString(vs, "remote_host", f.RemoteHost)
	vs = requireString(vs, "remote_user", f.RemoteUser)
	vs = requirePort(vs, "remote_port", f.RemotePort)
	vs = requireString(vs, "target_host", f.TargetHost)
	vs = requirePort(vs, "target_port", f.TargetPort)
	vs = requirePort(vs, "local_port", f.LocalPort)
	return vs
}
