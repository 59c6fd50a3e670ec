package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgectl/forge/internal/domain"
)

func init() {
	rootCmd.AddCommand(modeCmd)
	rootCmd.AddCommand(gpuCmd)
}

var modeCmd = &cobra.Command{
	Use:   "mode [silent|balanced|turbo]",
	Short: "Show or set the performance mode",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMode,
}

func runMode(cmd *cobra.Command, args []string) error {
	c := newClient()

	var resp struct {
		Mode string `json:"mode"`
	}
	if len(args) == 0 {
		if err := c.get("/api/performance-mode", &resp); err != nil {
			return err
		}
		fmt.Println(resp.Mode)
		return nil
	}

	mode, err := domain.ParsePerformanceMode(args[0])
	if err != nil {
		return err
	}
	if err := c.post("/api/performance-mode", map[string]string{"mode": string(mode)}, &resp); err != nil {
		return err
	}
	fmt.Printf("Performance mode set to %s\n", resp.Mode)
	return nil
}

var gpuCmd = &cobra.Command{
	Use:   "gpu [integrated|hybrid|dedicated|compute]",
	Short: "Show or set the GPU mode",
	Long: `Show or set the GPU MUX mode. Changing the GPU mode requires a
reboot to take effect on most machines.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGpu,
}

func runGpu(cmd *cobra.Command, args []string) error {
	c := newClient()

	var resp struct {
		Mode string `json:"mode"`
		Note string `json:"note"`
	}
	if len(args) == 0 {
		if err := c.get("/api/gpu-mode", &resp); err != nil {
			return err
		}
		fmt.Println(resp.Mode)
		return nil
	}

	mode, err := domain.ParseGpuMode(args[0])
	if err != nil {
		return err
	}
	if err := c.post("/api/gpu-mode", map[string]string{"mode": string(mode)}, &resp); err != nil {
		return err
	}
	fmt.Printf("GPU mode set to %s\n", resp.Mode)
	if resp.Note != "" {
		fmt.Println(resp.Note)
	}
	return nil
}
