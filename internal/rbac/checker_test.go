package rbac

import "testing"

func TestCheckerHas(t *testing.T) {
	c := NewChecker(nil)

	tests := []struct {
		role, perm string
		want       bool
	}{
		{"student", "test:view", true},
		{"student", "test:submit", true},
		{"student", "attempt:view-own", true},
		{"student", "attempt:view-all", false},
		{"admin", "attempt:view-all", true},
		{"admin", "anything:at-all", true},
		{"", "test:view", false},
		{"unknown", "test:view", false},
	}
	for _, tc := range tests {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestCheckerAnyAndWildcards(t *testing.T) {
	c := NewChecker(map[string][]string{
		"grader": {"attempt:*"},
	})
	if !c.Has("grader", "attempt:view-all") {
		t.Fatalf("prefix wildcard did not match")
	}
	if c.Has("grader", "test:view") {
		t.Fatalf("wildcard matched outside its prefix")
	}
	if !c.Any("grader", "test:view", "attempt:view-own") {
		t.Fatalf("Any missed a granted permission")
	}
	if c.Any("grader", "test:view", "test:submit") {
		t.Fatalf("Any granted without any match")
	}
}
