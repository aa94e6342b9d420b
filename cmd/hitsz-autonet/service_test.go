package main

import (
	"testing"
)

// TestNewServiceCmd tests the service command tree.
func TestNewServiceCmd(t *testing.T) {
	t.Parallel()

	cmd := NewServiceCmd()
	if cmd.Use != "service" {
		t.Errorf("expected use 'service', got %q", cmd.Use)
	}

	subs := map[string]bool{}
	for _, sub := range cmd.Commands() {
		subs[sub.Name()] = true
	}
	for _, name := range []string{"install", "uninstall", "status"} {
		if !subs[name] {
			t.Errorf("expected %s subcommand", name)
		}
	}
}

// TestServiceInstallFlags tests the install flags.
func TestServiceInstallFlags(t *testing.T) {
	t.Parallel()

	cmd := newServiceInstallCmd()

	flag := cmd.Flags().Lookup("config")
	if flag == nil {
		t.Fatal("expected config flag")
	}
	if flag.Shorthand != "c" {
		t.Errorf("expected shorthand 'c', got %q", flag.Shorthand)
	}
	if flag.DefValue != defaultInitPath() {
		t.Errorf("expected default %q, got %q", defaultInitPath(), flag.DefValue)
	}

	if cmd.Flags().Lookup("program") == nil {
		t.Error("expected program flag")
	}
}
