package main

import (
	"bytes"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestDateCommand(t *testing.T) {
	out, err := execute(t, "date", "2000-01-01 12:00")
	if err != nil {
		t.Fatalf("date: %v", err)
	}
	if !strings.Contains(out, "2451545.000743") {
		t.Fatalf("date output = %q, want JD 2451545.000743", out)
	}

	out, err = execute(t, "date", "--jd", "2451545")
	if err != nil {
		t.Fatalf("date --jd: %v", err)
	}
	if !strings.Contains(out, "2000 Jan 01 11:58:55") {
		t.Fatalf("date --jd output = %q", out)
	}

	if _, err := execute(t, "date", "--jd", "yesterday"); err == nil {
		t.Fatalf("date --jd should reject a non-numeric date")
	}
}

func TestPositionCommand(t *testing.T) {
	out, err := execute(t, "position", "Sol/Earth", "--date", "2000-01-01 12:00")
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if !strings.Contains(out, "Earth relative to Sol") || !strings.Contains(out, "AU") {
		t.Fatalf("position output = %q", out)
	}

	out, err = execute(t, "position", "Sol/Earth/Moon", "--from", "Sol/Earth", "--frame", "equator", "--date", "2451545")
	if err != nil {
		t.Fatalf("position of the Moon: %v", err)
	}
	if !strings.Contains(out, "equator axes") {
		t.Fatalf("position output = %q", out)
	}

	if _, err := execute(t, "position", "Sol/Nowhere"); err == nil {
		t.Fatalf("position of an unknown object should fail")
	}
	if _, err := execute(t, "position", "Sol/Earth", "--frame", "galactic"); err == nil {
		t.Fatalf("position with an unknown frame should fail")
	}
}

func TestRunCommand(t *testing.T) {
	out, err := execute(t, "run",
		"--start", "2000-01-01 12:00",
		"--duration", "50ms",
		"--tick", "10ms",
		"--accelerated",
		"--select", "Sol/Mars",
		"--goto", "1",
		"--metrics-addr", "-",
		"--stream-addr", "-",
	)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "simulation stopped at 2000 Jan 01") {
		t.Fatalf("run output = %q", out)
	}

	if _, err := execute(t, "run", "--select", "Sol/Vulcan", "--duration", "10ms",
		"--metrics-addr", "-", "--stream-addr", "-"); err == nil {
		t.Fatalf("run with an unknown selection should fail")
	}
}
