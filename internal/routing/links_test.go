package routing

import (
	"strings"
	"testing"
)

func TestLinkTreeLines(t *testing.T) {
	tree := NewLinkTree()
	tree.Add("hub.example.net", "hub.example.net", 0, "Hub")
	tree.Add("leaf1.example.net", "server1.example.net", 2, "Leaf 1")
	tree.Add("server2.example.net", "hub.example.net", 1, "Server 2")
	tree.Add("server1.example.net", "hub.example.net", 1, "Server 1")

	lines := tree.Lines()
	if len(lines) != 4 {
		t.Fatalf("Expected 4 lines, got %d: %v", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "hub.example.net (0)") {
		t.Errorf("First line should be the root, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "server1.example.net") {
		t.Errorf("Expected server1 second, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "leaf1.example.net") || !strings.HasPrefix(lines[2], "|  ") {
		t.Errorf("Expected leaf1 nested under server1, got %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "`- server2.example.net") {
		t.Errorf("Expected server2 as last branch, got %q", lines[3])
	}
}

func TestLinkTreeWithoutRoot(t *testing.T) {
	tree := NewLinkTree()
	tree.Add("server1.example.net", "hub.example.net", 1, "Server 1")

	if lines := tree.Lines(); lines != nil {
		t.Errorf("Expected no lines without a root, got %v", lines)
	}
}

func TestLinkTreeHas(t *testing.T) {
	tree := NewLinkTree()
	tree.Add("Hub.Example.net", "Hub.Example.net", 0, "Hub")

	if !tree.Has("hub.example.net") {
		t.Error("Expected full name match")
	}
	if !tree.Has("HUB") {
		t.Error("Expected short name match")
	}
	if tree.Has("leaf") {
		t.Error("Did not expect leaf to be linked")
	}
}
