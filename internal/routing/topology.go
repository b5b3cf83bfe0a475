package routing

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Topology is the expected network layout: each server with its preferred
// hubs in order
type Topology struct {
	Servers []string
	Hubs    map[string][]string
}

// LoadTopology reads topology.txt from the data directory. Each line is
// "server: hub1 hub2"; blank lines and lines starting with '#' are skipped.
// A missing file yields an empty topology.
func LoadTopology(dataDir string) (*Topology, error) {
	topo := &Topology{Hubs: make(map[string][]string)}

	file, err := os.Open(filepath.Join(dataDir, "topology.txt"))
	if err != nil {
		if os.IsNotExist(err) {
			return topo, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		server, hubs, _ := strings.Cut(line, ":")
		server = strings.TrimSpace(server)
		if server == "" {
			continue
		}
		topo.Servers = append(topo.Servers, server)
		topo.Hubs[strings.ToLower(server)] = strings.Fields(hubs)
	}
	return topo, scanner.Err()
}

// Uplinks returns the preferred hubs for a server, matched by full or
// short name
func (t *Topology) Uplinks(server string) []string {
	server = strings.ToLower(server)
	if hubs, ok := t.Hubs[server]; ok {
		return hubs
	}
	for name, hubs := range t.Hubs {
		if ShortName(name) == server {
			return hubs
		}
	}
	return nil
}

// Missing returns the expected servers absent from the link tree
func (t *Topology) Missing(tree *LinkTree) []string {
	var missing []string
	for _, server := range t.Servers {
		if tree == nil || !tree.Has(server) {
			missing = append(missing, server)
		}
	}
	return missing
}
