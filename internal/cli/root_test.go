package cli

import (
	"bytes"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetArgs(args)
	err := RootCmd.Execute()
	return out.String(), err
}

func TestRootHelpListsCommands(t *testing.T) {
	out, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("help returned error: %v", err)
	}
	for _, want := range []string{"run", "cleanup"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("Expected help output to mention %q:\n%s", want, out)
		}
	}
}

func TestRunRequiresBaseURL(t *testing.T) {
	if _, err := execute(t, "run"); err == nil {
		t.Fatal("Expected error when no base URL is configured")
	}
}

func TestRunRejectsMissingConfigFile(t *testing.T) {
	if _, err := execute(t, "run", "--config", "does-not-exist.yaml"); err == nil {
		t.Fatal("Expected error for a missing config file")
	}
}
