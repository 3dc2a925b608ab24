package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-tailor/internal/config"
	"github.com/jonathan/resume-tailor/internal/schemas"
	schemafiles "github.com/jonathan/resume-tailor/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a selection plan or selection config",
	Long: `Checks a JSON document against the embedded selection plan or selection config schema.
Selection configs are also checked for cross-field rules such as min <= max.
Use --schema to validate against a schema file on disk instead.`,
	RunE: runValidate,
}

var (
	validateKind   string
	validateSchema string
	validateFile   string
)

func init() {
	validateCmd.Flags().StringVarP(&validateKind, "kind", "k", "plan", "Document kind: plan or config")
	validateCmd.Flags().StringVar(&validateSchema, "schema", "", "Path to a JSON Schema file (overrides --kind)")
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "Path to the JSON document (required)")

	if err := validateCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}

	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, _ []string) error {
	err := validateDocument()
	var ve *schemas.ValidationError
	if errors.As(err, &ve) {
		_, _ = fmt.Fprint(os.Stderr, "Validation failed\n"+ve.Error())
		os.Exit(1)
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(os.Stdout, "Validation passed")
	return nil
}

func validateDocument() error {
	if validateSchema != "" {
		return schemas.ValidateJSON(validateSchema, validateFile)
	}

	data, err := os.ReadFile(validateFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", validateFile, err)
	}

	switch validateKind {
	case "plan":
		return schemas.ValidateDocument(schemafiles.SelectionPlan, data)
	case "config":
		if err := schemas.ValidateSelectionConfig(data); err != nil {
			return err
		}
		_, _, err := config.ParseSelection(data)
		return err
	default:
		return fmt.Errorf("unknown --kind %q (want plan or config)", validateKind)
	}
}
