// Package sshcmd turns validated profiles into ssh argument vectors.
// Every user-supplied field is emitted as a discrete argument; nothing
// here ever builds a shell string, so a crafted host or user name
// cannot inject extra arguments or commands.
package sshcmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/xlttj/stassh/pkg/profile"
)

// Sentinel error for a profile that fails its invariant re-check.
var ErrInvalidProfile = errors.New("profile failed validation")

// DefaultBinary is the external ssh client invoked for every session.
const DefaultBinary = "ssh"

// CommandSpec is a fully resolved ssh invocation. Args never includes
// the binary itself. The effective endpoint fields are carried
// alongside the argument vector so callers and tests can assert on
// them without re-parsing flags.
type CommandSpec struct {
	Binary       string
	Args         []string
	Host         string
	Port         int
	User         string
	IdentityFile string

	// LocalPort is nonzero only for port forwards; the launcher
	// reserves it for the lifetime of the session.
	LocalPort int
}

// Build translates a validated profile and a resolved key path into a
// CommandSpec. Callers are expected to have run Validate first; Build
// re-checks the invariants as a last line of defense and fails with
// ErrInvalidProfile instead of emitting a broken command.
func Build(p profile.Profile, keyPath string) (CommandSpec, error) {
	if vs := p.Validate(); len(vs) > 0 {
		return CommandSpec{}, fmt.Errorf("%w: %s", ErrInvalidProfile, vs[0])
	}

	switch v := p.(type) {
	case profile.DirectConnection:
		return buildDirect(v, keyPath), nil
	case profile.ProxyJump:
		return buildProxyJump(v, keyPath), nil
	case profile.PortForward:
		return buildPortForward(v, keyPath), nil
	}
	return CommandSpec{}, fmt.Errorf("%w: unknown profile kind %v", ErrInvalidProfile, p.Kind())
}

// buildDirect produces: ssh -p PORT [-i KEY] user@host
func buildDirect(c profile.DirectConnection, keyPath string) CommandSpec {
	args := []string{"-p", strconv.Itoa(c.Port)}
	args = appendIdentity(args, keyPath)
	args = append(args, c.User+"@"+c.Host)

	return CommandSpec{
		Binary:       DefaultBinary,
		Args:         args,
		Host:         c.Host,
		Port:         c.Port,
		User:         c.User,
		IdentityFile: keyPath,
	}
}

// buildProxyJump produces:
// ssh -J jump_user@jump_host:jump_port -p target_port [-i KEY] target_user@target_host
// The one stored key serves both hops.
func buildProxyJump(p profile.ProxyJump, keyPath string) CommandSpec {
	jump := fmt.Sprintf("%s@%s:%d", p.JumpUser, p.JumpHost, p.JumpPort)
	args := []string{"-J", jump, "-p", strconv.Itoa(p.TargetPort)}
	args = appendIdentity(args, keyPath)
	args = append(args, p.TargetUser+"@"+p.TargetHost)

	return CommandSpec{
		Binary:       DefaultBinary,
		Args:         args,
		Host:         p.TargetHost,
		Port:         p.TargetPort,
		User:         p.TargetUser,
		IdentityFile: keyPath,
	}
}

// buildPortForward produces:
// ssh -N -L local:target_host:target_port -p remote_port [-i KEY] remote_user@remote_host
// -N runs no remote command; the session exists only to hold the
// tunnel open.
func buildPortForward(f profile.PortForward, keyPath string) CommandSpec {
	forward := fmt.Sprintf("%d:%s:%d", f.LocalPort, f.TargetHost, f.TargetPort)
	args := []string{"-N", "-L", forward, "-p", strconv.Itoa(f.RemotePort)}
	args = appendIdentity(args, keyPath)
	args = append(args, f.RemoteUser+"@"+f.RemoteHost)

	return CommandSpec{
		Binary:       DefaultBinary,
		Args:         args,
		Host:         f.RemoteHost,
		Port:         f.RemotePort,
		User:         f.RemoteUser,
		IdentityFile: keyPath,
		LocalPort:    f.LocalPort,
	}
}

// appendIdentity adds the -i flag when a key is configured. Profiles
// without a key fall back to whatever the ssh client negotiates
// (agent, default identities).
func appendIdentity(args []string, keyPath string) []string {
	if keyPath == "" {
		return args
	}
	return append(args, "-i", keyPath)
}
