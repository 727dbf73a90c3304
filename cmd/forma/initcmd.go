package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/forma-dev/forma/internal/config"
)

func initCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a new forma project",
		Long:  `Create forma.json and the projects directory in the given directory (default: current).`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
			if config.Exists(dir) {
				return fmt.Errorf("forma.json already exists in %s", dir)
			}

			cfg := config.New()
			cfg.Name = name
			if cfg.Name == "" {
				abs, err := filepath.Abs(dir)
				if err != nil {
					return err
				}
				cfg.Name = filepath.Base(abs)
			}

			path := filepath.Join(dir, config.ConfigFileName)
			if err := cfg.SaveTo(path); err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.ProjectsPath(), 0755); err != nil {
				return err
			}

			fmt.Printf("Created %s\n", path)
			fmt.Println("Run 'forma serve' to start the editor")
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Project name (default: directory name)")

	return cmd
}
