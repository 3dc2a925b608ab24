package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-tailor/internal/observability"
	"github.com/jonathan/resume-tailor/internal/selection"
	"github.com/jonathan/resume-tailor/internal/types"
)

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Summarize the requirement coverage of a selection plan",
	Long:  "Prints the coverage percentage, uncovered requirements and top job keywords of a stored selection plan. With --rubric, uncovered requirements are shown by their text.",
	RunE:  runCoverage,
}

var (
	coveragePlan    string
	coverageRubric  string
	coverageSummary bool
)

func init() {
	coverageCmd.Flags().StringVarP(&coveragePlan, "plan", "p", "", "Path to selection_plan.json (required)")
	coverageCmd.Flags().StringVarP(&coverageRubric, "rubric", "r", "", "Path to jd_rubric.json")
	coverageCmd.Flags().BoolVar(&coverageSummary, "summary", false, "Print the plan summary instead of JSON insights")

	if err := coverageCmd.MarkFlagRequired("plan"); err != nil {
		panic(fmt.Sprintf("failed to mark plan flag as required: %v", err))
	}

	rootCmd.AddCommand(coverageCmd)
}

func runCoverage(_ *cobra.Command, _ []string) error {
	var plan types.SelectionPlan
	if err := readJSON(coveragePlan, &plan); err != nil {
		return err
	}

	var rubric *types.Rubric
	if coverageRubric != "" {
		rubric = &types.Rubric{}
		if err := readJSON(coverageRubric, rubric); err != nil {
			return err
		}
	}

	if coverageSummary {
		printer := observability.NewPrinter(os.Stdout)
		printer.PrintSelectionPlan(&plan)
		return nil
	}
	return writeJSON("", selection.BuildInsights(&plan, rubric))
}
