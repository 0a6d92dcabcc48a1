package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cpupd-dev/cpupd/internal/app/power"
	"github.com/cpupd-dev/cpupd/internal/daemon"
)

func init() {
	rootCmd.AddCommand(treeCmd)
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show the power-domain hierarchy",
	RunE:  runTree,
}

func runTree(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	infos := d.Service.Domains()
	if len(infos) == 0 {
		fmt.Println("No power domains registered.")
		return nil
	}

	children := make(map[string][]power.DomainInfo)
	var roots []power.DomainInfo
	for _, info := range infos {
		if info.Parent == "" {
			roots = append(roots, info)
		} else {
			children[info.Parent] = append(children[info.Parent], info)
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DOMAIN\tCPUS\tIDLE STATES\tSELECTED")
	for _, root := range roots {
		printSubtree(w, root, children, 0)
	}
	return w.Flush()
}

func printSubtree(w *tabwriter.Writer, info power.DomainInfo, children map[string][]power.DomainInfo, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	fmt.Fprintf(w, "%s%s\t%v\t%d\t%d\n",
		indent, info.Name, info.Members, len(info.IdleStates), info.SelectedState)
	for _, child := range children[info.Name] {
		printSubtree(w, child, children, depth+1)
	}
}
