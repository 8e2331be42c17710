// Package cli implements the aps command-line tool.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-aps/internal/advisor"
	"github.com/p-n-ai/pai-aps/internal/catalog"
	"github.com/p-n-ai/pai-aps/internal/nsc"
	"github.com/p-n-ai/pai-aps/internal/transcript"
)

// App holds what the commands run against.
type App struct {
	Engine *advisor.Engine

	// Import writes institutions to the catalog database. Nil when no
	// database is configured.
	Import func(ctx context.Context, insts []catalog.Institution) error
}

// NewRootCmd creates the top-level "aps" command.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "aps",
		Short:         "Admission Point Score calculator and NSC eligibility checker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("json", false, "Print results as JSON")

	root.AddCommand(
		newScoreCmd(app),
		newValidateCmd(),
		newQualifyCmd(),
		newCoursesCmd(app),
		newStrategiesCmd(app),
		newCatalogCmd(app),
	)
	return root
}

func loadSubjects(path string) ([]nsc.Subject, error) {
	subjects, err := transcript.Load(path)
	if err != nil {
		return nil, err
	}
	return nsc.Entered(subjects), nil
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
