package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cpupd-dev/cpupd/internal/daemon"
)

func init() {
	admitCmd.Flags().Int64Var(&admitToleranceUs, "tolerance-us", 0, "Latency tolerance in microseconds (0 vetoes)")
	admitCmd.Flags().StringArrayVar(&admitWakeups, "wakeup", nil, "Scheduled wakeup as cpu=offset_us (repeatable)")
	admitCmd.Flags().IntSliceVar(&admitOffline, "offline", nil, "CPUs to treat as offline")
	rootCmd.AddCommand(admitCmd)
}

var (
	admitToleranceUs int64
	admitWakeups     []string
	admitOffline     []int
)

var admitCmd = &cobra.Command{
	Use:   "admit <domain>",
	Short: "Evaluate power-down admission for a domain",
	Long: `Run a one-shot power-down admission evaluation against a supplied
latency tolerance and per-CPU wakeup offsets. Prints the decision and,
when admitted, the selected idle-state index.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdmit,
}

func runAdmit(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	wakeups := make(map[int]time.Duration, len(admitWakeups))
	for _, spec := range admitWakeups {
		cpu, offset, err := parseWakeup(spec)
		if err != nil {
			return err
		}
		wakeups[cpu] = offset
	}

	tolerance := time.Duration(admitToleranceUs) * time.Microsecond
	dec, err := d.Service.EvaluateWith(args[0], tolerance, wakeups, admitOffline)
	if err != nil {
		return err
	}

	if dec.Admit {
		fmt.Printf("%s: admit (idle state %d, tolerance %v)\n",
			dec.Domain, dec.SelectedState, dec.Tolerance)
	} else {
		fmt.Printf("%s: veto (tolerance %v)\n", dec.Domain, dec.Tolerance)
	}
	return nil
}

// parseWakeup splits a "cpu=offset_us" flag value.
func parseWakeup(spec string) (int, time.Duration, error) {
	parts := strings.SplitN(spec, "=", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("wakeup %q: want cpu=offset_us", spec)
	}
	cpu, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("wakeup %q: bad cpu: %w", spec, err)
	}
	us, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("wakeup %q: bad offset: %w", spec, err)
	}
	return cpu, time.Duration(us) * time.Microsecond, nil
}
