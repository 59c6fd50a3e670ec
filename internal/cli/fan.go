package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgectl/forge/internal/domain"
)

func init() {
	rootCmd.AddCommand(fanCmd)
}

var fanCmd = &cobra.Command{
	Use:   "fan [auto|CURVE]",
	Short: "Show or set fan control",
	Long: `Show fan settings, reset to automatic control, or set a manual
curve. A curve is comma-separated temp:duty pairs with strictly
increasing temperatures, for example:

  forge fan "30:0,50:35,70:60,90:100"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFan,
}

func runFan(cmd *cobra.Command, args []string) error {
	c := newClient()

	if len(args) == 0 {
		var settings domain.FanSettings
		if err := c.get("/api/fan", &settings); err != nil {
			return err
		}
		fmt.Println(fanString(settings))
		return nil
	}

	var settings domain.FanSettings
	if args[0] == "auto" {
		settings.Mode = domain.FanAuto
	} else {
		curve, err := domain.ParseFanCurve(args[0])
		if err != nil {
			return err
		}
		settings.Mode = domain.FanManual
		settings.Curve = &curve
	}

	if err := c.post("/api/fan", settings, nil); err != nil {
		return err
	}
	fmt.Printf("Fan set to %s\n", fanString(settings))
	return nil
}
