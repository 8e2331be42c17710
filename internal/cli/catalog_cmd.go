package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-aps/internal/catalog"
	"github.com/p-n-ai/pai-aps/internal/cli/formatter"
)

func newCatalogCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and import institution catalogs",
	}
	cmd.AddCommand(newCatalogCheckCmd(), newCatalogImportCmd(app))
	return cmd
}

func newCatalogCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <dir>",
		Short: "Validate a directory of institution YAML files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			insts, err := loadCatalogDir(cmd, args[0])
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(insts))
			for _, inst := range insts {
				s := inst.Summarize()
				rows = append(rows, []string{s.ID, s.Name, s.Strategy, fmt.Sprint(s.Courses)})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.Table([]string{"ID", "Name", "Strategy", "Courses"}, rows))
			return nil
		},
	}
}

func newCatalogImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Load institution YAML files into the catalog database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Import == nil {
				return errors.New("no catalog database configured (set APS_DATABASE_URL)")
			}
			insts, err := loadCatalogDir(cmd, args[0])
			if err != nil {
				return err
			}
			if err := app.Import(cmd.Context(), insts); err != nil {
				return fmt.Errorf("importing catalog: %w", err)
			}

			courses := 0
			for _, inst := range insts {
				courses += len(inst.Courses)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d institutions, %d courses\n", len(insts), courses)
			return nil
		},
	}
}

func loadCatalogDir(cmd *cobra.Command, dir string) ([]catalog.Institution, error) {
	l, err := catalog.NewLoader(dir)
	if err != nil {
		return nil, err
	}
	insts, err := l.AllInstitutions(cmd.Context())
	if err != nil {
		return nil, err
	}
	if len(insts) == 0 {
		return nil, fmt.Errorf("no valid institution files in %s", dir)
	}
	return insts, nil
}
