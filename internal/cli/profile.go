package cli

import (
	"fmt"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/forgectl/forge/internal/domain"
)

func init() {
	profileCreateCmd.Flags().StringVar(&profilePerf, "performance", "", "Performance mode")
	profileCreateCmd.Flags().StringVar(&profileGpu, "gpu", "", "GPU mode")
	profileCreateCmd.Flags().StringVar(&profileFan, "fan", "", "Fan setting: auto or a temp:duty curve")
	profileCreateCmd.Flags().StringVar(&profileRgbEffect, "rgb", "", "Keyboard lighting effect")
	profileCreateCmd.Flags().StringVar(&profileRgbColor, "rgb-color", "#FFFFFF", "Lighting color as #RRGGBB")
	profileCreateCmd.Flags().IntVar(&profileRgbBrightness, "rgb-brightness", 100, "Lighting brightness 0-100")
	profileCreateCmd.Flags().IntVar(&profileBattery, "battery", 0, "Battery charge limit (60, 80 or 100)")

	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileDeleteCmd)
	profileCmd.AddCommand(profileApplyCmd)
	rootCmd.AddCommand(profileCmd)
}

var (
	profilePerf          string
	profileGpu           string
	profileFan           string
	profileRgbEffect     string
	profileRgbColor      string
	profileRgbBrightness int
	profileBattery       int
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage hardware profiles",
}

var profileListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List profiles",
	RunE:    runProfileList,
}

func runProfileList(cmd *cobra.Command, args []string) error {
	var resp struct {
		Profiles []domain.Profile `json:"profiles"`
	}
	if err := newClient().get("/api/profiles/", &resp); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tSETS")
	for _, p := range resp.Profiles {
		kind := "user"
		if p.Builtin {
			kind = "builtin"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, kind, profileSummary(p))
	}
	return w.Flush()
}

func profileSummary(p domain.Profile) string {
	var parts []string
	if p.PerformanceMode != nil {
		parts = append(parts, string(*p.PerformanceMode))
	}
	if p.GpuMode != nil {
		parts = append(parts, "gpu:"+string(*p.GpuMode))
	}
	if p.Fan != nil {
		parts = append(parts, "fan:"+string(p.Fan.Mode))
	}
	if p.Rgb != nil {
		parts = append(parts, "rgb:"+string(p.Rgb.Effect))
	}
	if p.BatteryLimit != nil {
		parts = append(parts, fmt.Sprintf("battery:%d%%", *p.BatteryLimit))
	}
	if len(parts) == 0 {
		return "(empty)"
	}
	out := parts[0]
	for _, s := range parts[1:] {
		out += ", " + s
	}
	return out
}

var profileShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show one profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var p domain.Profile
		if err := newClient().get("/api/profiles/"+url.PathEscape(args[0]), &p); err != nil {
			return err
		}
		fmt.Printf("%s: %s\n", p.Name, profileSummary(p))
		return nil
	},
}

var profileCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a profile from flags",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileCreate,
}

func runProfileCreate(cmd *cobra.Command, args []string) error {
	p := domain.Profile{Name: args[0]}

	if profilePerf != "" {
		mode, err := domain.ParsePerformanceMode(profilePerf)
		if err != nil {
			return err
		}
		p.PerformanceMode = &mode
	}
	if profileGpu != "" {
		mode, err := domain.ParseGpuMode(profileGpu)
		if err != nil {
			return err
		}
		p.GpuMode = &mode
	}
	if profileFan != "" {
		settings := domain.FanSettings{Mode: domain.FanAuto}
		if profileFan != "auto" {
			curve, err := domain.ParseFanCurve(profileFan)
			if err != nil {
				return err
			}
			settings = domain.FanSettings{Mode: domain.FanManual, Curve: &curve}
		}
		p.Fan = &settings
	}
	if profileRgbEffect != "" {
		effect, err := domain.ParseRgbEffect(profileRgbEffect)
		if err != nil {
			return err
		}
		color, err := domain.ParseRgbColor(profileRgbColor)
		if err != nil {
			return err
		}
		p.Rgb = &domain.RgbSettings{
			Effect:     effect,
			Color:      color,
			Brightness: profileRgbBrightness,
			Speed:      50,
		}
	}
	if profileBattery != 0 {
		if err := domain.ValidateBatteryLimit(profileBattery); err != nil {
			return err
		}
		p.BatteryLimit = &profileBattery
	}

	if err := newClient().post("/api/profiles/", p, nil); err != nil {
		return err
	}
	fmt.Printf("Created profile %s\n", p.Name)
	return nil
}

var profileDeleteCmd = &cobra.Command{
	Use:     "delete NAME",
	Aliases: []string{"rm"},
	Short:   "Delete a user profile",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().delete("/api/profiles/" + url.PathEscape(args[0])); err != nil {
			return err
		}
		fmt.Printf("Deleted profile %s\n", args[0])
		return nil
	},
}

var profileApplyCmd = &cobra.Command{
	Use:   "apply NAME",
	Short: "Apply a profile to the hardware",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileApply,
}

func runProfileApply(cmd *cobra.Command, args []string) error {
	var resp struct {
		Profile string `json:"profile"`
		Steps   []struct {
			Feature string `json:"feature"`
			OK      bool   `json:"ok"`
			Error   string `json:"error"`
		} `json:"steps"`
	}
	err := newClient().post("/api/profiles/"+url.PathEscape(args[0])+"/apply", nil, &resp)
	if err != nil {
		return err
	}

	for _, step := range resp.Steps {
		if step.OK {
			fmt.Printf("  ok    %s\n", step.Feature)
		} else {
			fmt.Printf("  FAIL  %s: %s\n", step.Feature, step.Error)
		}
	}
	fmt.Printf("Applied profile %s\n", args[0])
	return nil
}
