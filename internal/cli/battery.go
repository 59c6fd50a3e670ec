package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/forgectl/forge/internal/domain"
)

func init() {
	rootCmd.AddCommand(batteryCmd)
}

var batteryCmd = &cobra.Command{
	Use:   "battery [60|80|100]",
	Short: "Show or set the battery charge limit",
	Long: `Show or set the battery charge limit. Capping the charge at 60%
or 80% extends battery lifespan on machines that spend most of
their time plugged in.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBattery,
}

func runBattery(cmd *cobra.Command, args []string) error {
	c := newClient()

	var resp struct {
		Limit int `json:"limit"`
	}
	if len(args) == 0 {
		if err := c.get("/api/battery-limit", &resp); err != nil {
			return err
		}
		fmt.Printf("%d%%\n", resp.Limit)
		return nil
	}

	limit, err := strconv.Atoi(args[0])
	if err != nil {
		return domain.Invalid("battery limit", "%q is not a number", args[0])
	}
	if err := domain.ValidateBatteryLimit(limit); err != nil {
		return err
	}
	if err := c.post("/api/battery-limit", map[string]int{"limit": limit}, &resp); err != nil {
		return err
	}
	fmt.Printf("Battery charge limit set to %d%%\n", resp.Limit)
	return nil
}
