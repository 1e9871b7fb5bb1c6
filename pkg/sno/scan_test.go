package sno

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRecord(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Creating record dir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Writing record failed: %v", err)
	}
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	writeRecord(t, dir, "Quest/Target.qst.json", `{
		"__fileName__": "Quest/Target.qst",
		"__snoID__": 1,
		"reward": {"__raw__": 3, "name": "Child"}
	}`)
	writeRecord(t, dir, "Encounter/Parent.enc.json", `{
		"__fileName__": "Encounter/Parent.enc",
		"__snoID__": 2,
		"quest": {"__raw__": 1, "name": "Target"}
	}`)
	writeRecord(t, dir, "Treasure/Child.trs.json", `{
		"__fileName__": "Treasure/Child.trs",
		"__snoID__": 3
	}`)

	b, err := ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir failed: %v", err)
	}

	if len(b.Nodes) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(b.Nodes))
	}
	byID := make(map[int64]Node, len(b.Nodes))
	for _, n := range b.Nodes {
		byID[n.ID] = n
	}
	if n := byID[1]; n.Type != "qst" || n.Name != "Target.qst" {
		t.Errorf("Record 1 wrong: %+v", n)
	}
	if n := byID[2]; n.Type != "enc" || n.Name != "Parent.enc" {
		t.Errorf("Record 2 wrong: %+v", n)
	}

	if len(b.Edges) != 2 {
		t.Fatalf("Expected 2 references, got %d", len(b.Edges))
	}
	found := make(map[[2]int64]string, len(b.Edges))
	for _, e := range b.Edges {
		found[[2]int64{e.Source, e.Target}] = e.Label
	}
	if found[[2]int64{1, 3}] != "reward" {
		t.Errorf("Expected reference 1->3 labeled reward, got %v", found)
	}
	if found[[2]int64{2, 1}] != "quest" {
		t.Errorf("Expected reference 2->1 labeled quest, got %v", found)
	}
}

func TestScanDirNestedRefs(t *testing.T) {
	dir := t.TempDir()
	writeRecord(t, dir, "quest.json", `{
		"__fileName__": "Quest/Deep.qst",
		"__snoID__": 10,
		"phases": [
			{"spawn": {"__raw__": 20, "name": "First"}},
			{"spawn": {"__raw__": 30, "name": "Second"}}
		],
		"meta": {
			"drop": {"table": {"__raw__": 40, "name": "Loot"}}
		}
	}`)

	b, err := ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir failed: %v", err)
	}

	if len(b.Edges) != 3 {
		t.Fatalf("Expected 3 references, got %d: %+v", len(b.Edges), b.Edges)
	}
	labels := make(map[int64]string, len(b.Edges))
	for _, e := range b.Edges {
		if e.Source != 10 {
			t.Errorf("Expected source 10, got %d", e.Source)
		}
		labels[e.Target] = e.Label
	}
	if labels[20] != "spawn" || labels[30] != "spawn" {
		t.Errorf("Array references should carry the nested key: %v", labels)
	}
	if labels[40] != "table" {
		t.Errorf("Nested reference should carry its enclosing key: %v", labels)
	}
}

func TestScanDirSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	writeRecord(t, dir, "good.json", `{"__fileName__": "Quest/Good.qst", "__snoID__": 1}`)
	writeRecord(t, dir, "broken.json", `{not json`)
	writeRecord(t, dir, "anonymous.json", `{"someKey": true}`)
	writeRecord(t, dir, "list.json", `[1, 2, 3]`)
	writeRecord(t, dir, "notes.txt", `ignored entirely`)

	b, err := ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir failed: %v", err)
	}

	if len(b.Nodes) != 1 {
		t.Fatalf("Expected only the valid record, got %d", len(b.Nodes))
	}
	if b.Nodes[0].ID != 1 {
		t.Errorf("Expected record 1, got %d", b.Nodes[0].ID)
	}
}

func TestScanDirDeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	writeRecord(t, dir, "b.json", `{"__fileName__": "B.enc", "__snoID__": 2}`)
	writeRecord(t, dir, "a.json", `{"__fileName__": "A.qst", "__snoID__": 1}`)
	writeRecord(t, dir, "c.json", `{"__fileName__": "C.trs", "__snoID__": 3}`)

	first, err := ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir failed: %v", err)
	}
	second, err := ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir failed: %v", err)
	}

	if len(first.Nodes) != 3 || len(second.Nodes) != 3 {
		t.Fatal("Expected 3 records in both scans")
	}
	for i := range first.Nodes {
		if first.Nodes[i].ID != second.Nodes[i].ID {
			t.Errorf("Record order differs at %d: %d vs %d",
				i, first.Nodes[i].ID, second.Nodes[i].ID)
		}
	}
	// Lexical walk order, not insertion order.
	if first.Nodes[0].ID != 1 || first.Nodes[1].ID != 2 || first.Nodes[2].ID != 3 {
		t.Errorf("Expected lexical order, got %+v", first.Nodes)
	}
}

func TestTypeTag(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Quest/SecretCellar.qst", "qst"},
		{"Encounter/Boss.ENC", "enc"},
		{"plain", ""},
	}
	for _, c := range cases {
		if got := typeTag(c.in); got != c.want {
			t.Errorf("typeTag(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := displayName("Quest/Nested/Deep.qst"); got != "Deep.qst" {
		t.Errorf("displayName = %q, want Deep.qst", got)
	}
	if got := displayName("Flat.enc"); got != "Flat.enc" {
		t.Errorf("displayName = %q, want Flat.enc", got)
	}
}
