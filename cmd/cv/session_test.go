package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewSessionCmd(t *testing.T) {
	cmd := newSessionCmd()
	if cmd.Use != "session" {
		t.Errorf("Use = %q, want %q", cmd.Use, "session")
	}
	if !cmd.HasSubCommands() {
		t.Error("session command should have subcommands")
	}
}

func TestSessionCmd_Help(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"session", "--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("session --help failed: %v", err)
	}

	out := buf.String()
	for _, sub := range []string{"create", "show", "close"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help to list %q subcommand, got: %s", sub, out)
		}
	}
}

func TestSessionCreateCmd_Help(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"session", "create", "--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("session create --help failed: %v", err)
	}

	out := buf.String()
	for _, flag := range []string{"--name", "--agent", "--description"} {
		if !strings.Contains(out, flag) {
			t.Errorf("expected %s flag, got: %s", flag, out)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	if got := truncate("a long string that keeps going", 10); got != "a long ..." {
		t.Errorf("truncate = %q, want %q", got, "a long ...")
	}
	if got := truncate("line\nbreak", 20); got != "line break" {
		t.Errorf("truncate = %q, want newline flattened", got)
	}
}
