package output

import (
	"path/filepath"
	"sort"
	"strings"
)

const (
	// Tree characters
	treeEdge  = "├── "
	treeLast  = "└── "
	treeVert  = "│   "
	treeSpace = "    "

	// Description alignment column
	descriptionColumn = 30
)

// TreeNode represents a node in a rendered tree.
type TreeNode struct {
	Name        string
	Description string
	IsDir       bool
	Children    []*TreeNode
}

// RenderFileTree renders a file tree with descriptions aligned at column 30.
// Files maps relative paths to their descriptions; rootName is the root
// directory name.
func RenderFileTree(rootName string, files map[string]string) string {
	if len(files) == 0 {
		return ""
	}

	root := &TreeNode{
		Name:     rootName,
		IsDir:    true,
		Children: []*TreeNode{},
	}

	for path, desc := range files {
		parts := strings.Split(filepath.ToSlash(path), "/")
		current := root

		for i, part := range parts {
			isLast := i == len(parts)-1

			var child *TreeNode
			for _, c := range current.Children {
				if c.Name == part {
					child = c
					break
				}
			}

			if child == nil {
				child = &TreeNode{
					Name:     part,
					IsDir:    !isLast,
					Children: []*TreeNode{},
				}
				current.Children = append(current.Children, child)
			}

			if isLast {
				child.Description = desc
			}

			current = child
		}
	}

	sortTree(root)

	var sb strings.Builder
	sb.WriteString(StyleSummary.Render(root.Name+"/") + "\n")
	renderChildren(&sb, root, "")
	return sb.String()
}

// sortTree recursively sorts tree nodes (directories first, then alphabetically).
func sortTree(node *TreeNode) {
	if len(node.Children) == 0 {
		return
	}

	sort.Slice(node.Children, func(i, j int) bool {
		if node.Children[i].IsDir != node.Children[j].IsDir {
			return node.Children[i].IsDir
		}
		return node.Children[i].Name < node.Children[j].Name
	})

	for _, child := range node.Children {
		sortTree(child)
	}
}

func renderChildren(sb *strings.Builder, node *TreeNode, prefix string) {
	for i, child := range node.Children {
		last := i == len(node.Children)-1

		connector := treeEdge
		childPrefix := prefix + treeVert
		if last {
			connector = treeLast
			childPrefix = prefix + treeSpace
		}

		name := child.Name
		if child.IsDir {
			name += "/"
		}
		line := prefix + connector + name

		// Description aligned to column 30
		if child.Description != "" {
			padding := descriptionColumn - len([]rune(line))
			if padding < 2 {
				padding = 2
			}
			line += strings.Repeat(" ", padding) + StyleDim.Render(child.Description)
		}

		sb.WriteString(line + "\n")
		renderChildren(sb, child, childPrefix)
	}
}

// RenderDependencyTree renders the import tree below root. deps lists the
// children of a module, describe annotates one (may be nil). A module
// already expanded elsewhere is shown again marked "(seen)" without its
// children, so cycles terminate.
func RenderDependencyTree(root string, deps func(id string) []string, describe func(id string) string) string {
	expanded := map[string]bool{}

	var build func(id string) *TreeNode
	build = func(id string) *TreeNode {
		node := &TreeNode{Name: id}
		if describe != nil {
			node.Description = describe(id)
		}
		if expanded[id] {
			node.Description = strings.TrimSpace(node.Description + " (seen)")
			return node
		}
		expanded[id] = true
		for _, dep := range deps(id) {
			node.Children = append(node.Children, build(dep))
		}
		return node
	}

	top := build(root)

	var sb strings.Builder
	line := StyleNoun.Render(top.Name)
	if top.Description != "" {
		line += "  " + StyleDim.Render(top.Description)
	}
	sb.WriteString(line + "\n")
	renderChildren(&sb, top, "")
	return sb.String()
}
