package sshcmd

import (
	"errors"
	"reflect"
	"testing"

	"github.com/xlttj/stassh/pkg/profile"
)

func TestBuild_Direct(t *testing.T) {
	c := profile.DirectConnection{
		Meta: profile.Meta{ID: "d1", Name: "web-01"},
		Host: "10.0.0.5",
		Port: 22,
		User: "alice",
	}

	spec, err := Build(c, "/home/alice/.ssh/id_ed25519")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if spec.Binary != "ssh" {
		t.Errorf("binary = %q, want ssh", spec.Binary)
	}
	want := []string{"-p", "22", "-i", "/home/alice/.ssh/id_ed25519", "alice@10.0.0.5"}
	if !reflect.DeepEqual(spec.Args, want) {
		t.Errorf("args = %v, want %v", spec.Args, want)
	}
	if spec.LocalPort != 0 {
		t.Errorf("direct connection has LocalPort %d", spec.LocalPort)
	}
}

func TestBuild_DirectWithoutKey(t *testing.T) {
	c := profile.DirectConnection{
		Meta: profile.Meta{ID: "d1", Name: "web-01"},
		Host: "10.0.0.5",
		Port: 2022,
		User: "alice",
	}

	spec, err := Build(c, "")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := []string{"-p", "2022", "alice@10.0.0.5"}
	if !reflect.DeepEqual(spec.Args, want) {
		t.Errorf("args = %v, want %v", spec.Args, want)
	}
}

func TestBuild_ProxyJump(t *testing.T) {
	p := profile.ProxyJump{
		Meta:       profile.Meta{ID: "j1", Name: "db via bastion"},
		JumpHost:   "bastion",
		JumpPort:   22,
		JumpUser:   "ops",
		TargetHost: "db01",
		TargetPort: 2222,
		TargetUser: "dba",
	}

	spec, err := Build(p, "/keys/bastion")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := []string{"-J", "ops@bastion:22", "-p", "2222", "-i", "/keys/bastion", "dba@db01"}
	if !reflect.DeepEqual(spec.Args, want) {
		t.Errorf("args = %v, want %v", spec.Args, want)
	}
}

func TestBuild_PortForward(t *testing.T) {
	f := profile.PortForward{
		Meta:       profile.Meta{ID: "f1", Name: "staging pg"},
		RemoteHost: "edge",
		RemotePort: 22,
		RemoteUser: "tunnel",
		TargetHost: "pg.internal",
		TargetPort: 5432,
		LocalPort:  15432,
	}

	spec, err := Build(f, "")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := []string{"-N", "-L", "15432:pg.internal:5432", "-p", "22", "tunnel@edge"}
	if !reflect.DeepEqual(spec.Args, want) {
		t.Errorf("args = %v, want %v", spec.Args, want)
	}
	if spec.LocalPort != 15432 {
		t.Errorf("LocalPort = %d, want 15432", spec.LocalPort)
	}
}

func TestBuild_RejectsInvalidProfile(t *testing.T) {
	c := profile.DirectConnection{
		Meta: profile.Meta{ID: "d1", Name: "broken"},
		Host: "10.0.0.5",
		Port: 0, // out of range
		User: "alice",
	}

	_, err := Build(c, "")
	if !errors.Is(err, ErrInvalidProfile) {
		t.Errorf("expected ErrInvalidProfile, got %v", err)
	}
}

// Hostile field values must stay inside single argv entries; there is
// no shell anywhere in the pipeline to interpret them.
func TestBuild_MetacharactersStayOneArgument(t *testing.T) {
	c := profile.DirectConnection{
		Meta: profile.Meta{ID: "d1", Name: "hostile"},
		Host: "example.com; rm -rf /",
		Port: 22,
		User: "alice $(whoami)",
	}

	spec, err := Build(c, "")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := []string{"-p", "22", "alice $(whoami)@example.com; rm -rf /"}
	if !reflect.DeepEqual(spec.Args, want) {
		t.Errorf("args = %v, want %v", spec.Args, want)
	}
}
