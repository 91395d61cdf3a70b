package testkit

import (
	"testing"
)

func TestGetFreePort(t *testing.T) {
	port1, err := GetFreePort()
	if err != nil {
		t.Fatalf("GetFreePort failed: %v", err)
	}
	if port1 <= 0 || port1 > 65535 {
		t.Errorf("Port %d out of range", port1)
	}
}

func TestNewTestFlags_Defaults(t *testing.T) {
	flags := NewTestFlags(t, nil)

	// Unset flags must not be marked as changed so settings fall back to
	// their defaults.
	if flags.Changed("root") {
		t.Error("root flag marked changed without an option")
	}
	if flags.Changed("serve") {
		t.Error("serve flag marked changed without an option")
	}
}

func TestNewTestFlags_ServeGetsFreePort(t *testing.T) {
	flags := NewTestFlags(t, &FlagOptions{Root: "/tmp/x", StateDir: "/tmp/y", Serve: true})

	port, err := flags.GetInt("port")
	if err != nil {
		t.Fatalf("GetInt(port) failed: %v", err)
	}
	if port <= 0 {
		t.Errorf("Port = %d, want a free port", port)
	}

	serve, err := flags.GetBool("serve")
	if err != nil {
		t.Fatalf("GetBool(serve) failed: %v", err)
	}
	if !serve {
		t.Error("serve flag not set")
	}
}
