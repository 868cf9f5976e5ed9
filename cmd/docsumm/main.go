package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docsumm/internal/api"
	"github.com/dgallion1/docsumm/internal/chunker"
	"github.com/dgallion1/docsumm/internal/config"
	"github.com/dgallion1/docsumm/internal/llm"
	"github.com/dgallion1/docsumm/internal/parser"
	"github.com/dgallion1/docsumm/internal/pipeline"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "docsumm",
		Short:         "Hierarchical document summarization",
		Long:          "docsumm chunks large documents, summarizes them iteratively with a rolling context, merges the partial summaries hierarchically and produces a final analysis report.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")

	root.AddCommand(newRunCmd())
	root.AddCommand(newServeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var se *pipeline.StageError
		if errors.As(err, &se) {
			fmt.Fprintf(os.Stderr, "Partial artifacts preserved in %s\n", se.ArtifactDir)
		}
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var output string
	var title string

	cmd := &cobra.Command{
		Use:   "run <document>",
		Short: "Summarize a single document and write the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			input := args[0]
			p, err := parser.ForFile(input)
			if err != nil {
				return err
			}
			f, err := os.Open(input)
			if err != nil {
				return err
			}
			doc, err := p.Parse(f, input)
			f.Close()
			if err != nil {
				return fmt.Errorf("parse %s: %w", input, err)
			}
			if title != "" {
				doc.Title = title
			}

			client := llm.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.CallTimeout)
			defer client.Close()

			orch := pipeline.NewOrchestrator(client, nil, orchestratorOptions(cfg), log)

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			result, err := orch.ProcessDocument(ctx, doc, nil)
			if err != nil {
				return err
			}

			if output == "" {
				output = "report.md"
			}
			if err := pipeline.WriteReport(output, result.Markdown); err != nil {
				return err
			}

			fmt.Printf("Report written to %s\n", output)
			fmt.Printf("Session artifacts: %s\n", result.Session.Dir)
			fmt.Printf("Chunks: %d, duration: %s\n", result.ChunkCount, result.Duration.Round(time.Second))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "report output path (default report.md)")
	cmd.Flags().StringVarP(&title, "title", "t", "", "document title override")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.ValidateServe(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			client := llm.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.CallTimeout)

			orch := pipeline.NewOrchestrator(client, nil, orchestratorOptions(cfg), log)
			queue := pipeline.NewQueue(orch, pipeline.QueueConfig{
				Workers:  cfg.WorkerCount,
				Capacity: cfg.MaxQueueSize,
				JobTTL:   cfg.JobTTL,
			}, log)

			srv := api.NewServer(queue, client, log, cfg)

			httpServer := &http.Server{
				Addr:         ":" + cfg.Port,
				Handler:      srv,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 120 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			// Graceful shutdown.
			go func() {
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
				<-sigCh
				log.Info("shutting down...")

				queue.Stop()

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer shutdownCancel()
				httpServer.Shutdown(shutdownCtx)

				client.Close()
			}()

			log.Info("starting docsumm", "port", cfg.Port, "model", cfg.AnthropicModel)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}
}

func orchestratorOptions(cfg config.Config) pipeline.Options {
	return pipeline.Options{
		DataDir: cfg.DataDir,
		Chunking: chunker.Config{
			ChunkSize:    cfg.ChunkSize,
			ChunkOverlap: cfg.ChunkOverlap,
		},
		MergeBatchSize:   cfg.MergeBatchSize,
		MergeParallelism: cfg.MergeParallelism,
		Retry: pipeline.RetryPolicy{
			MaxAttempts:     cfg.RetryMaxAttempts,
			BaseDelay:       cfg.RetryBaseDelay,
			RetryValidation: cfg.RetryValidation,
		},
	}
}
