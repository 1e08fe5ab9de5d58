package parsetree

import "testing"

func TestNewIDStability(t *testing.T) {
	a := NewID("pkg/file.go", "Handler", 10)
	b := NewID("pkg/file.go", "Handler", 10)
	if a != b {
		t.Fatalf("expected stable id, got %q vs %q", a, b)
	}
	if len(a) != 16 {
		t.Fatalf("expected 16 hex chars, got %d (%q)", len(a), a)
	}
}

func TestNewIDVariesWithInputs(t *testing.T) {
	base := NewID("pkg/file.go", "Handler", 10)
	cases := []string{
		NewID("pkg/other.go", "Handler", 10),
		NewID("pkg/file.go", "Other", 10),
		NewID("pkg/file.go", "Handler", 11),
	}
	for _, c := range cases {
		if c == base {
			t.Fatalf("expected id to change when an input changes")
		}
	}
}

func TestByPath(t *testing.T) {
	s := &IndexStatus{Files: []FileInfo{
		{Path: "a.go", ContentHash: "h1"},
		{Path: "b.go", ContentHash: "h2"},
	}}
	m := s.ByPath()
	if len(m) != 2 || m["a.go"].ContentHash != "h1" {
		t.Fatalf("unexpected map: %#v", m)
	}
}
