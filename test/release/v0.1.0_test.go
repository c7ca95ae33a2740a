package test

import (
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"testing"
)

// TestJSONEnvelopeContract pins the v0.1.0 scripting contract: every --json
// command wraps its payload in the api_version 1.0 envelope, and the exit
// codes mean 0 success, 1 findings, 2 failure. Scripts depend on both, so
// changing either is a breaking change.
func TestJSONEnvelopeContract(t *testing.T) {
	// 1. Build the latest CLI binary
	// We build it to a temp location to avoid messing with the user's install
	tmpBin := "./traverse_test_bin"
	buildCmd := exec.Command("go", "build", "-o", tmpBin, "../../cmd/traverse")
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build CLI: %v\nOutput: %s", err, string(output))
	}
	defer os.Remove(tmpBin)

	run := func(args ...string) (string, int) {
		cmd := exec.Command(tmpBin, args...)
		cmd.Env = append(os.Environ(), "HOME="+t.TempDir())
		out, err := cmd.Output()
		code := 0
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		} else if err != nil {
			t.Fatalf("could not run the CLI: %v", err)
		}
		return string(out), code
	}

	// 2. Success path: an empty scan is still a successful command
	stdout, code := run("pages", "list", "--json", "--root", t.TempDir())
	if code != 0 {
		t.Fatalf("pages list exited %d, want 0\nOutput: %s", code, stdout)
	}

	var env struct {
		APIVersion string `json:"api_version"`
		Success    bool   `json:"success"`
	}
	i := strings.Index(stdout, "{")
	if i < 0 {
		t.Fatalf("no JSON in output: %s", stdout)
	}
	if err := json.Unmarshal([]byte(stdout[i:]), &env); err != nil {
		t.Fatalf("could not parse the envelope: %v", err)
	}
	if env.APIVersion != "1.0" {
		t.Errorf("FAIL: api_version = %q, the v0.1.0 contract says 1.0", env.APIVersion)
	}
	if !env.Success {
		t.Error("FAIL: success = false on a clean run")
	}

	// 3. Failure path: navigating with no pages compiled in is exit 2
	stdout, code = run("navigate", "PageA", "PageB", "--json", "--no-history")
	if code != 2 {
		t.Errorf("FAIL: navigate without pages exited %d, want 2\nOutput: %s", code, stdout)
	} else {
		t.Log("SUCCESS: exit code contract holds.")
	}
}
