package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVersionCmd(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "depot dev") {
		t.Errorf("expected output to contain 'depot dev', got: %s", out)
	}
	if !strings.Contains(out, "commit: none") {
		t.Errorf("expected output to contain 'commit: none', got: %s", out)
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()
	want := []string{
		"version", "login", "logout", "whoami", "inbox", "chat",
		"schedules", "announcements", "watch", "dashboard", "prefs",
	}
	have := map[string]bool{}
	for _, c := range cmd.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestExecute_ReturnsNonZeroOnError(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"no-such-command"})

	if code := execute(cmd); code != 1 {
		t.Errorf("execute = %d, want 1", code)
	}
}

// writeTestConfig writes a minimal config pointing the state DB at a temp
// location, for commands exercised without a live portal.
func writeTestConfig(t *testing.T, portalURL string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "depot.yaml")
	cfg := "portal_url: " + portalURL + "\nstate_db: " + filepath.Join(dir, "state.db") + "\n"
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLogout_NoSessionStillSucceeds(t *testing.T) {
	cfg := writeTestConfig(t, "http://127.0.0.1:1")

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"logout", "--config", cfg})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("logout without a session must succeed locally: %v", err)
	}
	if !strings.Contains(buf.String(), "Logged out.") {
		t.Errorf("output = %q, want logout confirmation", buf.String())
	}
}

func TestWhoami_NotLoggedIn(t *testing.T) {
	cfg := writeTestConfig(t, "http://127.0.0.1:1")

	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"whoami", "--config", cfg})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error when not logged in")
	}
	if !strings.Contains(err.Error(), "depot login") {
		t.Errorf("error = %q, want login hint", err.Error())
	}
}

func TestPrefs_SetAndGet(t *testing.T) {
	cfg := writeTestConfig(t, "http://127.0.0.1:1")

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"prefs", "set", "dark-mode", "true", "--config", cfg})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("prefs set: %v", err)
	}

	cmd = newRootCmd()
	buf = new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"prefs", "get", "--config", cfg})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("prefs get: %v", err)
	}
	if !strings.Contains(buf.String(), "dark-mode: true") {
		t.Errorf("output = %q, want dark-mode: true", buf.String())
	}

	cmd = newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"prefs", "set", "bogus", "true", "--config", cfg})
	if err := cmd.Execute(); err == nil {
		t.Error("expected error for unknown preference")
	}
}
