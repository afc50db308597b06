// Command benchd runs the Comtrade benchmark judge: an HTTP grading service,
// a Temporal grading worker, a standalone artifact validator, and a baseline
// retrieval runner.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	sdkworker "go.temporal.io/sdk/worker"

	"github.com/greenbench/comtrade-bench/internal/config"
	"github.com/greenbench/comtrade-bench/internal/grader"
	"github.com/greenbench/comtrade-bench/internal/judge"
	"github.com/greenbench/comtrade-bench/internal/retrieval"
	"github.com/greenbench/comtrade-bench/internal/server"
	"github.com/greenbench/comtrade-bench/internal/tasks"
	"github.com/greenbench/comtrade-bench/internal/worker"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "benchd",
		Short:         "Benchmark judge for paginated Comtrade retrieval tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), workerCmd(), validateCmd(), runCmd())
	return root
}

func setup() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return cfg, logger, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the grading HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			g, err := worker.InitializeGrader(cfg, logger)
			if err != nil {
				return err
			}
			catalog, err := tasks.LoadCatalog(cfg.TaskFile)
			if err != nil {
				return err
			}
			srv := server.New(g, catalog, tasks.NewMemoryStore(), logger)
			return srv.Run(cfg.Addr)
		},
	}
}

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the Temporal grading worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			g, err := worker.InitializeGrader(cfg, logger)
			if err != nil {
				return err
			}

			c, err := client.Dial(client.Options{
				HostPort:  cfg.TemporalHostPort,
				Namespace: cfg.TemporalNamespace,
			})
			if err != nil {
				return fmt.Errorf("connect to temporal: %w", err)
			}
			defer c.Close()

			w := sdkworker.New(c, cfg.TaskQueue, sdkworker.Options{})
			worker.RegisterAll(w, g)

			logger.WithField("task_queue", cfg.TaskQueue).Info("grading worker starting")
			return w.Run(sdkworker.InterruptCh())
		},
	}
}

func validateCmd() *cobra.Command {
	var taskID string
	cmd := &cobra.Command{
		Use:   "validate <artifact-dir>",
		Short: "Validate an artifact directory against the output contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			catalog, err := tasks.LoadCatalog(cfg.TaskFile)
			if err != nil {
				return err
			}
			spec, err := catalog.Get(taskID)
			if err != nil {
				return err
			}

			if _, verr := judge.New(cfg.StageTimeout).Validate(args[0], spec); verr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s\n", verr)
				os.Exit(1)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&taskID, "task-id", "T1_single_page", "task the artifact claims to answer")
	return cmd
}

func runCmd() *cobra.Command {
	var taskID, outDir string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the baseline retrieval pipeline for a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			catalog, err := tasks.LoadCatalog(cfg.TaskFile)
			if err != nil {
				return err
			}
			spec, err := catalog.Get(taskID)
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = fmt.Sprintf("%s/%s", cfg.OutputRoot, taskID)
			}

			source := retrieval.NewHTTPSource(cfg.MockURL, logger)
			baseline := grader.NewBaseline(source, logger)
			if err := baseline.Run(context.Background(), spec, outDir); err != nil {
				return err
			}

			out, _ := json.Marshal(map[string]string{"task_id": taskID, "output_dir": outDir})
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&taskID, "task-id", "T1_single_page", "task to run")
	cmd.Flags().StringVar(&outDir, "out", "", "artifact output directory (default: output root + task id)")
	return cmd
}
