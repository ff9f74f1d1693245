package nav

import "strings"

// MarkActive returns a copy of the tree with Active set on every node whose
// path matches the current location and Expanded set on all ancestors of an
// active node. This is presentation state computed over the already filtered
// (authorized) tree; it carries no authorization meaning of its own.
func MarkActive(nodes []*Node, currentPath string) []*Node {
	marked, _ := markActive(nodes, currentPath)
	return marked
}

func markActive(nodes []*Node, currentPath string) ([]*Node, bool) {
	out := make([]*Node, 0, len(nodes))
	anyActive := false
	for _, n := range nodes {
		if n == nil {
			continue
		}
		clone := n.clone()
		children, childActive := markActive(n.Children, currentPath)
		clone.Children = children
		clone.Active = n.Path != "" && PathMatches(n.Path, currentPath)
		clone.Expanded = childActive
		out = append(out, clone)
		anyActive = anyActive || clone.Active || childActive
	}
	return out, anyActive
}

// PathMatches reports whether a node path claims the current location. The
// root path "/" matches only itself; any other path matches exactly or as a
// prefix ending at a path-segment boundary.
func PathMatches(nodePath, currentPath string) bool {
	if nodePath == "/" {
		return currentPath == "/"
	}
	return currentPath == nodePath || strings.HasPrefix(currentPath, nodePath+"/")
}
