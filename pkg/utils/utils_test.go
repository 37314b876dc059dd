package utils

import (
	"path/filepath"
	"testing"
)

func TestCleanJSON(t *testing.T) {
	cases := map[string]string{
		"{\"a\":1}":                          "{\"a\":1}",
		"```json\n{\"a\":1}\n```":            "{\"a\":1}",
		"  ```\n{\"a\":1}\n```  ":            "{\"a\":1}",
		"<think>hmm</think>\n{\"a\":1}":      "{\"a\":1}",
		"Here you go: {\"a\":{\"b\":2}} bye": "{\"a\":{\"b\":2}}",
		"":                                   "",
	}
	for in, want := range cases {
		if got := CleanJSON(in); got != want {
			t.Fatalf("CleanJSON(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLimitStr(t *testing.T) {
	if got := LimitStr("hello", 10); got != "hello" {
		t.Fatalf("unexpected %q", got)
	}
	if got := LimitStr("héllo wörld", 5); got != "héllo..." {
		t.Fatalf("unexpected %q", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.json")
	in := map[string]int{"a": 1, "b": 2}
	if err := Save(path, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := Load[map[string]int](path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out["a"] != 1 || out["b"] != 2 {
		t.Fatalf("unexpected %v", out)
	}
}

func TestSyncMapSnapshot(t *testing.T) {
	m := NewSyncMap[map[string]int]()
	m.Store("a", 2)
	snap := m.Snapshot()
	m.Delete("a")
	if snap["a"] != 2 {
		t.Fatalf("snapshot = %v", snap)
	}
	if _, ok := m.Load("a"); ok {
		t.Fatalf("expected key to be deleted")
	}
}
