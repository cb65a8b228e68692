package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// Node represents an entry in the directory tree built from discovered paths.
type Node struct {
	Name     string
	Path     string
	IsDir    bool
	Children []*Node
}

// buildTree constructs a hierarchy from a flat list of file paths under rootPath.
// Intermediate directories are created as needed; a directory outside rootPath
// hangs off the root under its full path.
func buildTree(files []string, rootPath string) *Node {
	cleanRootPath := filepath.Clean(rootPath)
	root := &Node{Name: filepath.Base(cleanRootPath), Path: cleanRootPath, IsDir: true}
	nodes := map[string]*Node{cleanRootPath: root}

	var ensureDir func(dir string) *Node
	ensureDir = func(dir string) *Node {
		if node, ok := nodes[dir]; ok {
			return node
		}
		node := &Node{Name: filepath.Base(dir), Path: dir, IsDir: true}
		parent := root
		if isWithin(cleanRootPath, dir) {
			parent = ensureDir(filepath.Dir(dir))
		} else {
			node.Name = dir
		}
		parent.Children = append(parent.Children, node)
		nodes[dir] = node
		return node
	}

	for _, file := range files {
		cleanPath := filepath.Clean(file)
		parent := ensureDir(filepath.Dir(cleanPath))
		parent.Children = append(parent.Children, &Node{
			Name: filepath.Base(cleanPath),
			Path: cleanPath,
		})
	}

	sortChildren(root)
	return root
}

// sortChildren recursively sorts the children of a node alphabetically.
func sortChildren(node *Node) {
	if !node.IsDir || len(node.Children) == 0 {
		return
	}

	sort.Slice(node.Children, func(i, j int) bool {
		return node.Children[i].Name < node.Children[j].Name
	})

	for _, child := range node.Children {
		sortChildren(child)
	}
}

// printTree generates the string representation of the tree.
func printTree(root *Node) string {
	var builder strings.Builder
	builder.WriteString(root.Name)
	builder.WriteString("\n")
	printNode(&builder, root.Children, "")
	return builder.String()
}

// printNode is a helper function for recursively printing tree nodes.
func printNode(builder *strings.Builder, children []*Node, prefix string) {
	for i, node := range children {
		connector := "├── "
		newPrefix := prefix + "│   "
		if i == len(children)-1 {
			connector = "└── "
			newPrefix = prefix + "    "
		}

		builder.WriteString(prefix)
		builder.WriteString(connector)
		builder.WriteString(node.Name)
		builder.WriteString("\n")

		if node.IsDir && len(node.Children) > 0 {
			printNode(builder, node.Children, newPrefix)
		}
	}
}

// printListing writes the first limit paths followed by a "+ N more" line when
// the list was truncated. limit <= 0 prints nothing.
func printListing(w io.Writer, files []string, limit int) {
	if limit <= 0 {
		return
	}
	shown := files
	if len(shown) > limit {
		shown = shown[:limit]
	}
	for _, file := range shown {
		fmt.Fprintln(w, file)
	}
	if len(files) > limit {
		fmt.Fprintf(w, "+ %d more\n", len(files)-limit)
	}
}

// printFound writes the "<N> files found in <time>" line.
func printFound(w io.Writer, count int, elapsed string) {
	label := color.New(color.FgCyan)
	fmt.Fprintf(w, "%s files found in %s\n", label.Sprint(count), elapsed)
}

// printCopySummary writes "<copied> out of <total> files copied", green when
// everything copied, yellow for a partial run and red when nothing made it.
func printCopySummary(w io.Writer, outcome *CopyOutcome) {
	c := color.New(color.FgGreen)
	switch {
	case outcome.Total > 0 && outcome.Copied == 0:
		c = color.New(color.FgRed)
	case outcome.Failures > 0:
		c = color.New(color.FgYellow)
	}
	c.Fprintf(w, "%d out of %d files copied\n", outcome.Copied, outcome.Total)
}
