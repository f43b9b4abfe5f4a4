package idgen

import (
	"regexp"
	"strings"
	"testing"
)

func TestGenerate_Length(t *testing.T) {
	id, err := Generate(PrefixTask)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	wantLen := len(PrefixTask) + Length
	if len(id) != wantLen {
		t.Errorf("Generate() length = %d, want %d (id=%q)", len(id), wantLen, id)
	}
}

func TestGenerate_Prefixes(t *testing.T) {
	for _, prefix := range []string{
		PrefixTask, PrefixDependency, PrefixLink, PrefixArtifact,
		PrefixAssignment, PrefixCondition, PrefixEvent,
	} {
		id, err := Generate(prefix)
		if err != nil {
			t.Fatalf("Generate(%q) error: %v", prefix, err)
		}
		if !strings.HasPrefix(id, prefix) {
			t.Errorf("Generate(%q) = %q, missing prefix", prefix, id)
		}
	}
}

func TestGenerate_Charset(t *testing.T) {
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(PrefixArtifact) + `[a-zA-Z0-9]+$`)
	for i := 0; i < 100; i++ {
		id, err := Generate(PrefixArtifact)
		if err != nil {
			t.Fatalf("Generate() error on iteration %d: %v", i, err)
		}
		if !pattern.MatchString(id) {
			t.Fatalf("Generate() = %q, does not match expected charset pattern", id)
		}
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	const count = 10_000
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		id := MustGenerate(PrefixTask)
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate ID %q after %d generations", id, i)
		}
		seen[id] = struct{}{}
	}
}
