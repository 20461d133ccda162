package dispatch

import (
	"strings"
	"testing"
)

func TestPreflight_BashFound(t *testing.T) {
	if err := Preflight("echo hello"); err != nil {
		t.Fatalf("expected bash and echo to be found, got: %v", err)
	}
}

func TestPreflight_MissingBinary(t *testing.T) {
	err := Preflight("definitely-not-a-binary-4821 -p .")
	if err == nil {
		t.Fatal("expected missing binary error")
	}
	if !strings.Contains(err.Error(), "definitely-not-a-binary-4821") {
		t.Fatalf("expected error naming the binary, got: %v", err)
	}
}

func TestLeadingProgram(t *testing.T) {
	cases := map[string]string{
		"tsc -p .":                      "tsc",
		"NODE_ENV=test npm run test":    "npm",
		"$(npm bin)/tsc":                "",
		"":                              "",
		"npm run local:test $TEST_FILE": "npm",
	}
	for in, want := range cases {
		if got := leadingProgram(in); got != want {
			t.Errorf("leadingProgram(%q) = %q, want %q", in, got, want)
		}
	}
}
