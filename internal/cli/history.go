package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cpupd-dev/cpupd/internal/daemon"
)

func init() {
	historyCmd.Flags().StringVar(&historyDomain, "domain", "", "Only show transitions for this domain")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum entries to show")
	rootCmd.AddCommand(historyCmd)
}

var (
	historyDomain string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent power transitions from the journal",
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	entries, err := d.Service.History(historyDomain, historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No transitions recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tDOMAIN\tKIND\tSTATE\tCPUS\tSTATUS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\n",
			e.At.Local().Format("2006-01-02 15:04:05"),
			e.Domain, e.Kind, e.StateIndex, e.Cpus, e.Status)
	}
	return w.Flush()
}
