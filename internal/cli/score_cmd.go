package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-aps/internal/cli/formatter"
	"github.com/p-n-ai/pai-aps/internal/nsc"
)

func newScoreCmd(app *App) *cobra.Command {
	var (
		institution string
		all         bool
	)

	cmd := &cobra.Command{
		Use:   "score <transcript>",
		Short: "Calculate the APS for an institution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subjects, err := loadSubjects(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if all {
				scores, err := app.Engine.ScoreAll(cmd.Context(), subjects)
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return printJSON(out, scores)
				}
				rows := make([][]string, 0, len(scores))
				for _, s := range scores {
					rows = append(rows, []string{s.InstitutionID, formatter.Score(s.Result.APS), formatter.Dim(s.Result.Method)})
				}
				fmt.Fprint(out, formatter.Table([]string{"Strategy", "APS", "Method"}, rows))
				return nil
			}

			result, err := app.Engine.Score(cmd.Context(), subjects, institution)
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(out, result)
			}

			fmt.Fprintln(out, formatter.Header("APS"))
			fmt.Fprint(out, formatter.KeyValues([][2]string{
				{"Score", formatter.Bold(formatter.Score(result.APS))},
				{"Method", result.Method},
			}))
			fmt.Fprintln(out)
			for _, line := range result.Breakdown {
				fmt.Fprintf(out, "  %s\n", line)
			}
			if len(result.Breakdown) == 0 {
				fmt.Fprintln(out, formatter.Dim("  No subjects entered."))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&institution, "institution", "i", "", "Institution or strategy id (default strategy when empty)")
	cmd.Flags().BoolVar(&all, "all", false, "Score with every registered strategy")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <transcript>",
		Short: "Check a subject selection against the NSC compulsory-subject rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subjects, err := loadSubjects(args[0])
			if err != nil {
				return err
			}
			result := nsc.ValidateSelection(subjects)
			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return printJSON(out, result)
			}

			fmt.Fprintln(out, formatter.Header("Subject Selection"))
			for _, item := range result.Progress {
				line := fmt.Sprintf("  %s %s", formatter.Status(item.Status), item.Label)
				if item.Detail != "" {
					line += " " + formatter.Dim("("+item.Detail+")")
				}
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out)
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  %s\n", formatter.StyleRed.Render(e))
			}
			fmt.Fprintf(out, "  Ready to calculate: %s\n", formatter.Check(result.CanCalculate))
			return nil
		},
	}
}

func newQualifyCmd() *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "qualify <transcript>",
		Short: "Determine the NSC pass level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subjects, err := loadSubjects(args[0])
			if err != nil {
				return err
			}
			if language == "" {
				language = nsc.LanguageOfLearning(subjects)
			}

			level := nsc.DetermineQualificationLevel(subjects, language)
			basic := nsc.Evaluate(subjects)
			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return printJSON(out, map[string]any{
					"language_of_learning": language,
					"qualification":        level,
					"nsc":                  basic,
				})
			}

			fmt.Fprintln(out, formatter.Header("NSC Pass"))
			fmt.Fprint(out, formatter.KeyValues([][2]string{
				{"Qualification", formatter.Qualification(level)},
				{"Language of learning", language},
				{"Bachelor", formatter.Check(nsc.ValidateBachelorPass(subjects, language))},
				{"Diploma", formatter.Check(nsc.ValidateDiplomaPass(subjects, language, nsc.DiplomaRequirements{}))},
				{"Higher Certificate", formatter.Check(nsc.ValidateHigherCertificatePass(subjects, language, nsc.HigherCertificateRequirements{}))},
				{"Basic NSC", formatter.Check(basic.MeetsBasicNSC)},
			}))
			for _, reason := range basic.Reasons {
				fmt.Fprintf(out, "  %s\n", formatter.Dim(reason))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "Language of learning subject (derived from the subjects when empty)")
	return cmd
}

func newStrategiesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the registered APS strategies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := app.Engine.Registry().Strategies()
			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return printJSON(out, infos)
			}
			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				aliases := ""
				for i, a := range info.Aliases {
					if i > 0 {
						aliases += ", "
					}
					aliases += a
				}
				rows = append(rows, []string{info.ID, aliases, formatter.Score(info.MaxPoints), info.Method})
			}
			fmt.Fprint(out, formatter.Table([]string{"ID", "Aliases", "Max", "Method"}, rows))
			return nil
		},
	}
}
