package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/forma-dev/forma/internal/errors"
	"github.com/forma-dev/forma/internal/queryhub"
	"github.com/forma-dev/forma/internal/server"
	"github.com/forma-dev/forma/pkg/datasource"
	"github.com/forma-dev/forma/pkg/export"
	"github.com/forma-dev/forma/pkg/publish"
)

func exportCmd() *cobra.Command {
	var (
		dir       string
		out       string
		live      bool
		doPublish bool
	)

	cmd := &cobra.Command{
		Use:   "export <project>",
		Short: "Export a project as a standalone HTML document",
		Long: `Export a saved project as one self-contained HTML document.

Snapshot exports (the default) resolve every data source at export
time and embed the rows; the document works from the filesystem with
no server. Live exports keep query configurations and fetch at load
time against the configured endpoint.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			cfg, err := loadConfig(dir)
			if err != nil {
				return err
			}

			hub, err := queryhub.NewHub(cfg.Data.Connectors, cfg.Data.Queries, slog.Default())
			if err != nil {
				return err
			}
			defer hub.Close()

			projects := server.NewProjectStore(cfg.ProjectsPath())
			doc, err := projects.Load(name)
			if err != nil {
				return err
			}

			mode := export.ModeSnapshot
			if live {
				mode = export.ModeLive
			}
			endpoint := cfg.Export.Endpoint
			if endpoint == "" {
				endpoint = cfg.URL()
			}

			artifact, err := export.Standalone(cmd.Context(), doc.Instances, export.Options{
				ProjectName: doc.Name,
				Mode:        mode,
				Endpoint:    endpoint,
				Resolver:    datasource.NewClient(hub),
			})
			if err != nil {
				return errors.New("E060").Wrap(err)
			}

			if out == "" {
				out = filepath.Join(cfg.ExportsPath(), name+".html")
			}
			if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
				return err
			}
			if err := os.WriteFile(out, artifact, 0644); err != nil {
				return err
			}
			fmt.Printf("Exported %s (%s, %d bytes) to %s\n", name, mode, len(artifact), out)

			if doPublish {
				pub, err := publish.New(cmd.Context(), publish.Options{
					Bucket: cfg.Export.Bucket,
					Region: cfg.Export.Region,
					Prefix: cfg.Export.Prefix,
				})
				if err != nil {
					return err
				}
				key, err := pub.Upload(cmd.Context(), name, artifact)
				if err != nil {
					return err
				}
				fmt.Printf("Published to s3://%s/%s\n", cfg.Export.Bucket, key)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Project directory (default: walk up from cwd)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (default: <exports>/<project>.html)")
	cmd.Flags().BoolVar(&live, "live", false, "Keep live data sources instead of embedding a snapshot")
	cmd.Flags().BoolVar(&doPublish, "publish", false, "Upload the document to the configured S3 bucket")

	return cmd
}
