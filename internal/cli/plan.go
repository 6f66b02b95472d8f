package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/xlab/treeprint"

	"github.com/mark3labs/discovery2go/internal/ir"
)

// surfaceTree renders the generated client surface: resource handles with
// their sub-resources and methods, plus the emitted schema count.
func surfaceTree(api *ir.API) treeprint.Tree {
	root := strings.TrimSpace(api.Name + " " + api.Version)
	if root == "" {
		root = "API"
	}
	tree := treeprint.NewWithRoot(root)
	for _, r := range api.Resources {
		addResource(tree, r)
	}
	tree.AddNode(fmt.Sprintf("%d schemas", len(api.Types)))
	return tree
}

func addResource(parent treeprint.Tree, r *ir.Resource) {
	branch := parent.AddBranch(r.Accessor + "() " + r.TypeName)
	for _, child := range r.Children {
		addResource(branch, child)
	}
	for _, m := range r.Methods {
		branch.AddNode(fmt.Sprintf("%s %s %s", m.Name, m.HTTPMethod, m.Path))
	}
}

func printPlan(w io.Writer, api *ir.API, planned []string) {
	fmt.Fprintf(w, "Planned writes (%d files):\n", len(planned))
	for _, p := range planned {
		fmt.Fprintf(w, "- %s\n", p)
	}
	fmt.Fprint(w, surfaceTree(api).String())
}
