package ux

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss/tree"
)

type dirNode struct {
	name     string
	children []*dirNode
	index    map[string]*dirNode
	file     bool
}

func (n *dirNode) child(name string, file bool) *dirNode {
	if c, ok := n.index[name]; ok {
		return c
	}
	c := &dirNode{name: name, file: file, index: map[string]*dirNode{}}
	n.index[name] = c
	n.children = append(n.children, c)
	return c
}

func (n *dirNode) render() *tree.Tree {
	t := tree.Root(n.name)
	for _, c := range n.children {
		if c.file || len(c.children) == 0 {
			t.Child(c.name)
			continue
		}
		t.Child(c.render())
	}
	return t
}

// BuildTree arranges project-relative paths into a directory tree rooted at
// "<project> (root folder)". Entries keep their first-seen order and repeated
// paths appear once.
func BuildTree(project string, paths []string) *tree.Tree {
	root := &dirNode{name: fmt.Sprintf("%s (root folder)", project), index: map[string]*dirNode{}}
	for _, p := range paths {
		parts := strings.Split(filepath.ToSlash(filepath.Clean(p)), "/")
		n := root
		for i, part := range parts {
			if part == "" || part == "." {
				continue
			}
			n = n.child(part, i == len(parts)-1)
		}
	}
	return root.render()
}

// PrintTree prints the generated files tree.
func PrintTree(project string, paths []string) {
	fmt.Fprintf(Out, "\n%sGenerated files:%s\n", Bold, Reset)
	fmt.Fprintln(Out, BuildTree(project, paths).String())
}
