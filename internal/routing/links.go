package routing

import (
	"fmt"
	"sort"
	"strings"
)

// Link is one server entry from a LINKS reply
type Link struct {
	Server      string
	Hub         string
	Hops        int
	Description string
}

// LinkTree collects LINKS replies and renders them as a tree rooted at the
// server with zero hops
type LinkTree struct {
	links map[string]*Link
}

// NewLinkTree creates an empty link tree
func NewLinkTree() *LinkTree {
	return &LinkTree{links: make(map[string]*Link)}
}

// Add records a link; a later entry for the same server replaces the earlier one
func (t *LinkTree) Add(server, hub string, hops int, description string) {
	t.links[strings.ToLower(server)] = &Link{
		Server:      server,
		Hub:         hub,
		Hops:        hops,
		Description: description,
	}
}

// Len returns the number of servers
func (t *LinkTree) Len() int {
	return len(t.links)
}

// Servers returns the full server names, sorted
func (t *LinkTree) Servers() []string {
	servers := make([]string, 0, len(t.links))
	for _, l := range t.links {
		servers = append(servers, l.Server)
	}
	sort.Strings(servers)
	return servers
}

// Has reports whether a server is linked, matching either the full name or
// the short name before the first dot
func (t *LinkTree) Has(server string) bool {
	server = strings.ToLower(server)
	if _, ok := t.links[server]; ok {
		return true
	}
	for name := range t.links {
		if ShortName(name) == server {
			return true
		}
	}
	return false
}

// Root returns the server the client is connected to
func (t *LinkTree) Root() (*Link, bool) {
	for _, l := range t.links {
		if l.Hops == 0 {
			return l, true
		}
	}
	return nil, false
}

// Lines renders the tree depth first, children sorted by name
func (t *LinkTree) Lines() []string {
	root, ok := t.Root()
	if !ok {
		return nil
	}

	children := make(map[string][]*Link)
	for _, l := range t.links {
		if l == root {
			continue
		}
		hub := strings.ToLower(l.Hub)
		children[hub] = append(children[hub], l)
	}
	for _, list := range children {
		sort.Slice(list, func(i, j int) bool { return list[i].Server < list[j].Server })
	}

	lines := []string{fmt.Sprintf("%s (%d) %s", root.Server, root.Hops, root.Description)}
	var walk func(parent string, indent string)
	walk = func(parent string, indent string) {
		kids := children[strings.ToLower(parent)]
		for i, l := range kids {
			branch, next := "|- ", "|  "
			if i == len(kids)-1 {
				branch, next = "`- ", "   "
			}
			lines = append(lines, fmt.Sprintf("%s%s%s (%d) %s", indent, branch, l.Server, l.Hops, l.Description))
			walk(l.Server, indent+next)
		}
	}
	walk(root.Server, "")
	return lines
}

// ShortName returns the part of a server name before the first dot
func ShortName(server string) string {
	server = strings.ToLower(server)
	if idx := strings.Index(server, "."); idx > 0 {
		return server[:idx]
	}
	return server
}
