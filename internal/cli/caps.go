package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/forgectl/forge/internal/domain"
)

func init() {
	capsCmd.Flags().BoolVar(&capsRedetect, "redetect", false, "Re-run hardware detection first")
	rootCmd.AddCommand(capsCmd)
}

var capsRedetect bool

var capsCmd = &cobra.Command{
	Use:     "capabilities",
	Aliases: []string{"caps"},
	Short:   "Show detected hardware capabilities",
	RunE:    runCaps,
}

func runCaps(cmd *cobra.Command, args []string) error {
	c := newClient()

	var caps domain.CapabilitySet
	var err error
	if capsRedetect {
		err = c.post("/api/capabilities/detect", nil, &caps)
	} else {
		err = c.get("/api/capabilities", &caps)
	}
	if err != nil {
		return err
	}

	if caps.ModelName != "" {
		fmt.Printf("Model: %s\n\n", caps.ModelName)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FEATURE\tBACKEND\tVIA")
	for _, f := range domain.Features {
		b := caps.Backend(f)
		via := ""
		switch b.Kind {
		case domain.BackendSysfs:
			if len(b.Paths) > 0 {
				via = b.Paths[0]
			}
		case domain.BackendTool:
			via = b.Tool
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", f, b.Kind, via)
	}
	return w.Flush()
}
