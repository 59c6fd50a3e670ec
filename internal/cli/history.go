package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/forgectl/forge/internal/infra/sqlite"
)

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of entries to show")
	journalCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of entries to show")
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(journalCmd)
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent sensor readings",
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	var resp struct {
		Samples []sqlite.Sample `json:"samples"`
	}
	path := fmt.Sprintf("/api/history?limit=%d", historyLimit)
	if err := newClient().get(path, &resp); err != nil {
		return err
	}
	if len(resp.Samples) == 0 {
		fmt.Println("No history recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tCPU\tGPU\tCPU FAN\tGPU FAN\tBATTERY\tPOWER")
	for _, s := range resp.Samples {
		fmt.Fprintf(w, "%s\t%d°C\t%d°C\t%d\t%d\t%d%%\t%.1f W\n",
			s.Time.Format("15:04:05"),
			s.CPUTempC, s.GPUTempC,
			s.CPUFanRPM, s.GPUFanRPM,
			s.BatteryPercent, s.PowerDrawW,
		)
	}
	return w.Flush()
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recent settings changes",
	RunE:  runJournal,
}

func runJournal(cmd *cobra.Command, args []string) error {
	var resp struct {
		Entries []sqlite.JournalEntry `json:"entries"`
	}
	path := fmt.Sprintf("/api/journal?limit=%d", historyLimit)
	if err := newClient().get(path, &resp); err != nil {
		return err
	}
	if len(resp.Entries) == 0 {
		fmt.Println("No settings changes recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tFEATURE\tVALUE\tOUTCOME")
	for _, e := range resp.Entries {
		outcome := e.Outcome
		if e.Error != "" {
			outcome += " (" + e.Error + ")"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.Time.Format("2006-01-02 15:04:05"), e.Feature, e.Value, outcome)
	}
	return w.Flush()
}
