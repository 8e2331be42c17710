package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-aps/internal/advisor"
	"github.com/p-n-ai/pai-aps/internal/catalog"
	"github.com/p-n-ai/pai-aps/internal/cli/formatter"
	"github.com/p-n-ai/pai-aps/internal/report"
)

func newCoursesCmd(app *App) *cobra.Command {
	var (
		institution string
		export      string
		showAll     bool
	)

	cmd := &cobra.Command{
		Use:   "courses <transcript>",
		Short: "Find the courses a student qualifies for",
		Long: "Without --institution every institution in the catalog is scored with its own " +
			"strategy and the qualifying courses are listed. With --institution the full course " +
			"report for that institution is shown, including missing requirements.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if export != "" && !strings.EqualFold(filepath.Ext(export), ".xlsx") {
				return fmt.Errorf("export file must end in .xlsx, got %q", export)
			}
			subjects, err := loadSubjects(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if institution != "" {
				r, err := app.Engine.Evaluate(cmd.Context(), advisor.Request{Subjects: subjects, InstitutionID: institution})
				if err != nil {
					return err
				}
				if export != "" {
					return exportFile(out, export, func(w io.Writer) error { return report.WriteReport(w, r) })
				}
				if jsonOutput(cmd) {
					return printJSON(out, r)
				}
				printReport(out, r, showAll)
				return nil
			}

			placements, err := app.Engine.FindCourses(cmd.Context(), subjects)
			if err != nil {
				return err
			}
			if export != "" {
				return exportFile(out, export, func(w io.Writer) error { return report.WritePlacements(w, placements) })
			}
			if jsonOutput(cmd) {
				return printJSON(out, placements)
			}
			printPlacements(out, placements)
			return nil
		},
	}

	cmd.Flags().StringVarP(&institution, "institution", "i", "", "Show the full course report for one institution")
	cmd.Flags().StringVar(&export, "export", "", "Write the result to an .xlsx workbook instead of the terminal")
	cmd.Flags().BoolVar(&showAll, "all", false, "With --institution, list courses that do not qualify too")
	return cmd
}

func printReport(w io.Writer, r advisor.Report, showAll bool) {
	name := r.InstitutionID
	if r.Institution != nil {
		name = r.Institution.Name
	}
	fmt.Fprintln(w, formatter.Header(name))
	fmt.Fprint(w, formatter.KeyValues([][2]string{
		{"APS", formatter.Bold(formatter.Score(r.APS.APS))},
		{"Method", r.APS.Method},
		{"Qualification", formatter.Qualification(r.Qualification)},
	}))
	fmt.Fprintln(w)

	if r.Institution == nil {
		fmt.Fprintln(w, formatter.Dim("  Institution not in catalog; no courses to match."))
		return
	}

	rows := make([][]string, 0, len(r.Courses))
	for _, m := range r.Courses {
		if !showAll && !m.Qualifies() {
			continue
		}
		rows = append(rows, courseRow(m))
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, formatter.Dim("  No qualifying courses."))
		return
	}
	fmt.Fprint(w, formatter.Table([]string{"", "Course", "APS Min", "Missing"}, rows))
}

func courseRow(m catalog.CourseMatch) []string {
	name := m.Course.Name
	if m.Course.ExtendedCurriculum {
		name += formatter.Dim(" (extended)")
	}
	missing := strings.Join(m.Missing, "; ")
	if !m.APSMet {
		if missing != "" {
			missing = "APS; " + missing
		} else {
			missing = "APS"
		}
	}
	return []string{formatter.Check(m.Qualifies()), name, fmt.Sprint(m.Course.APSMin), missing}
}

func printPlacements(w io.Writer, placements []advisor.Placement) {
	for i, p := range placements {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s  %s\n", formatter.Header(p.Institution.Name), formatter.Dim("APS "+formatter.Score(p.APS)))
		if len(p.Qualifying) == 0 {
			fmt.Fprintln(w, formatter.Dim("  No qualifying courses."))
			continue
		}
		for _, c := range p.Qualifying {
			fmt.Fprintf(w, "  %s %s %s\n", formatter.Check(true), c.Name, formatter.Dim(fmt.Sprintf("(min %d)", c.APSMin)))
		}
	}
}

func exportFile(out io.Writer, path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}
