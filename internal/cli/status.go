package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/forgectl/forge/internal/domain"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current hardware state",
	RunE:  runStatus,
}

type stateResponse struct {
	Phase         string                  `json:"phase"`
	ActiveProfile string                  `json:"active_profile"`
	Snapshot      domain.HardwareSnapshot `json:"snapshot"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	var state stateResponse
	if err := newClient().get("/api/state", &state); err != nil {
		return err
	}
	snap := state.Snapshot

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Performance mode:\t%s\n", snap.PerformanceMode)
	fmt.Fprintf(w, "GPU mode:\t%s\n", snap.GpuMode)
	fmt.Fprintf(w, "Fan:\t%s\n", fanString(snap.Fan))
	fmt.Fprintf(w, "Battery limit:\t%d%%\n", snap.BatteryLimit)
	if state.ActiveProfile != "" {
		fmt.Fprintf(w, "Active profile:\t%s\n", state.ActiveProfile)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "CPU temp:\t%s\n", tempString(snap.CPUTempC))
	fmt.Fprintf(w, "GPU temp:\t%s\n", tempString(snap.GPUTempC))
	fmt.Fprintf(w, "CPU fan:\t%s\n", rpmString(snap.CPUFanRPM))
	fmt.Fprintf(w, "GPU fan:\t%s\n", rpmString(snap.GPUFanRPM))
	fmt.Fprintf(w, "Battery:\t%d%% (%s)\n", snap.BatteryPercent, acString(snap.ACOnline))
	if snap.PowerDrawW > 0 {
		fmt.Fprintf(w, "Power draw:\t%.1f W\n", snap.PowerDrawW)
	}
	return w.Flush()
}

func tempString(t float64) string {
	if t == domain.UnknownTemp {
		return "n/a"
	}
	return fmt.Sprintf("%.0f°C", t)
}

func rpmString(rpm int) string {
	if rpm == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%d RPM", rpm)
}

func acString(online bool) string {
	if online {
		return "AC"
	}
	return "battery"
}

func fanString(f domain.FanSettings) string {
	if f.Mode == domain.FanManual && f.Curve != nil {
		return fmt.Sprintf("manual (%s)", f.Curve)
	}
	if f.Mode == "" {
		return "auto"
	}
	return string(f.Mode)
}
