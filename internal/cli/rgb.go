package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgectl/forge/internal/domain"
)

func init() {
	rgbCmd.Flags().StringVar(&rgbColor, "color", "#FFFFFF", "Color as #RRGGBB")
	rgbCmd.Flags().IntVar(&rgbBrightness, "brightness", 100, "Brightness 0-100")
	rgbCmd.Flags().IntVar(&rgbSpeed, "speed", 50, "Effect speed 0-100")
	rootCmd.AddCommand(rgbCmd)
}

var (
	rgbColor      string
	rgbBrightness int
	rgbSpeed      int
)

var rgbCmd = &cobra.Command{
	Use:   "rgb EFFECT",
	Short: "Set keyboard lighting",
	Long: `Set the keyboard lighting effect. Effects: static, breathing,
rainbow, wave, off.

  forge rgb static --color '#FF0000' --brightness 80`,
	Args: cobra.ExactArgs(1),
	RunE: runRgb,
}

func runRgb(cmd *cobra.Command, args []string) error {
	effect, err := domain.ParseRgbEffect(args[0])
	if err != nil {
		return err
	}
	if _, err := domain.ParseRgbColor(rgbColor); err != nil {
		return err
	}

	body := map[string]interface{}{
		"effect":     string(effect),
		"color":      rgbColor,
		"brightness": rgbBrightness,
		"speed":      rgbSpeed,
	}
	if err := newClient().post("/api/rgb", body, nil); err != nil {
		return err
	}
	fmt.Printf("Keyboard lighting set to %s\n", effect)
	return nil
}
