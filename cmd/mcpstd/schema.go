package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/mcpstd/pkg/document"
)

var schemaType string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Document schema tools",
}

var schemaExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the JSON Schema of a document kind to stdout",
	Args:  cobra.NoArgs,
	RunE:  runSchemaExport,
}

func runSchemaExport(cmd *cobra.Command, args []string) error {
	kind, err := document.ParseKind(schemaType)
	if err != nil {
		return err
	}
	data, err := document.GenerateJSONSchema(kind)
	if err != nil {
		return exitWrap(exitInfra, "generate schema", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func init() {
	schemaExportCmd.Flags().StringVar(&schemaType, "type", "context", "Document kind: schema or context")
	schemaCmd.AddCommand(schemaExportCmd)
}
