package main

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/forma-dev/forma/internal/config"
	"github.com/forma-dev/forma/internal/server"
)

func schemaCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of forma documents",
		Long: `Print the JSON Schema for forma's on-disk documents.

Targets:
  project  saved project files (default)
  config   forma.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reflector := jsonschema.Reflector{DoNotReference: false}

			var schema *jsonschema.Schema
			switch target {
			case "project":
				schema = reflector.Reflect(&server.ProjectDocument{})
			case "config":
				schema = reflector.Reflect(&config.Config{})
			default:
				return fmt.Errorf("unknown schema target %q (want project or config)", target)
			}

			out, err := json.MarshalIndent(schema, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "project", "Which schema to print (project, config)")

	return cmd
}
