package routing

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadTopology(t *testing.T) {
	tmpDir := t.TempDir()
	content := `# expected layout
hub.example.net:
server1.example.net: hub.example.net backup.example.net

server2.example.net: hub.example.net
`
	if err := os.WriteFile(filepath.Join(tmpDir, "topology.txt"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	topo, err := LoadTopology(tmpDir)
	if err != nil {
		t.Fatalf("LoadTopology failed: %v", err)
	}
	if len(topo.Servers) != 3 {
		t.Fatalf("Expected 3 servers, got %d", len(topo.Servers))
	}

	hubs := topo.Uplinks("server1")
	if len(hubs) != 2 || hubs[0] != "hub.example.net" {
		t.Errorf("Unexpected uplinks for server1: %v", hubs)
	}
}

func TestLoadTopologyMissingFile(t *testing.T) {
	topo, err := LoadTopology(t.TempDir())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(topo.Servers) != 0 {
		t.Errorf("Expected empty topology, got %v", topo.Servers)
	}
}

func TestTopologyMissing(t *testing.T) {
	topo := &Topology{
		Servers: []string{"hub.example.net", "server1.example.net", "server2.example.net"},
		Hubs:    map[string][]string{},
	}
	tree := NewLinkTree()
	tree.Add("hub.example.net", "hub.example.net", 0, "Hub")
	tree.Add("server1.example.net", "hub.example.net", 1, "Server 1")

	missing := topo.Missing(tree)
	if len(missing) != 1 || missing[0] != "server2.example.net" {
		t.Errorf("Expected server2 missing, got %v", missing)
	}

	if got := topo.Missing(nil); len(got) != 3 {
		t.Errorf("Expected every server missing without a tree, got %v", got)
	}
}
