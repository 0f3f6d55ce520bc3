package cli

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/cockroachdb/errors"
	"github.com/pstuifzand/scene-diff/internal/model"
	"github.com/pstuifzand/scene-diff/internal/storage"
	"github.com/spf13/cobra"
)

type generateOpts struct {
	nodes  int
	depth  int
	seed   int64
	output string
}

func newGenerateCmd(a *app) *cobra.Command {
	var opts generateOpts
	cmd := &cobra.Command{
		Use:     "generate",
		Short:   "Generate a random scene for testing",
		Example: `  scene-diff generate --nodes 5000 --depth 4 --seed 7 -o large.json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.OutOrStdout(), opts)
		},
	}
	flags := cmd.Flags()
	flags.IntVarP(&opts.nodes, "nodes", "n", 1000, "number of nodes to generate")
	flags.IntVar(&opts.depth, "depth", 3, "maximum nesting depth")
	flags.Int64Var(&opts.seed, "seed", 1, "random seed")
	flags.StringVarP(&opts.output, "output", "o", "large_scene.json", "output file path")
	return cmd
}

func runGenerate(w io.Writer, opts generateOpts) error {
	if opts.nodes < 1 {
		return errors.New("nodes must be at least 1")
	}
	root := generateScene(rand.New(rand.NewSource(opts.seed)), opts.nodes, opts.depth)
	s, err := model.Flatten(root)
	if err != nil {
		return err
	}
	if err := storage.SaveSnapshot(opts.output, s); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Generated scene with %d nodes\nSaved to: %s\n", s.Len(), opts.output)
	return err
}

// generateScene builds a tree of exactly total nodes, ids 1..total in
// pre-order, no deeper than maxDepth below the root.
func generateScene(r *rand.Rand, total, maxDepth int) *model.View {
	g := &generator{r: r, remaining: total}
	root := g.node(0)
	for g.remaining > 0 {
		root.AddChild(g.subtree(1, maxDepth))
	}
	return root
}

type generator struct {
	r         *rand.Rand
	nextID    model.NodeID
	remaining int
}

func (g *generator) node(depth int) *model.View {
	g.nextID++
	g.remaining--
	attrs := map[string]string{"tag": tags[depth%len(tags)]}
	if g.r.Intn(3) == 0 {
		attrs["color"] = fmt.Sprintf("#%06x", g.r.Intn(1<<24))
	}
	if g.r.Intn(4) == 0 {
		attrs["class"] = descriptions[g.r.Intn(len(descriptions))]
	}
	return model.NewView(g.nextID, generateText(int(g.nextID)), attrs)
}

func (g *generator) subtree(depth, maxDepth int) *model.View {
	v := g.node(depth)
	if depth < maxDepth && g.remaining > 0 {
		n := childCount(g.remaining, maxDepth-depth)
		for i := 0; i < n && g.remaining > 0; i++ {
			v.AddChild(g.subtree(depth+1, maxDepth))
		}
	}
	return v
}

func childCount(remaining int, depthLeft int) int {
	if depthLeft == 1 {
		// Leaf level: create fewer children
		if remaining > 10 {
			return 5
		}
		return remaining/2 + 1
	}
	if remaining > 50 {
		return 3
	}
	return 2
}

var tags = []string{"main", "section", "div", "span", "button", "label"}

var categories = []string{
	"Header", "Toolbar", "Button", "Label", "List", "Item",
	"Card", "Dialog", "Menu", "Tab", "Badge", "Footer",
}

var descriptions = []string{
	"primary", "secondary", "navigation", "status", "title",
	"subtitle", "action", "detail", "summary", "hint",
}

func generateText(index int) string {
	category := categories[index%len(categories)]
	return fmt.Sprintf("%s #%d %s", category, index, descriptions[index%len(descriptions)])
}
