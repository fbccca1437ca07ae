// Command kontent-migrate exports content from one environment into a
// codename-addressed snapshot, imports a snapshot into another
// environment reproducing workflow state, or does both in one run (§6).
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/artemis/kontent-migrate/internal/assetimport"
	"github.com/artemis/kontent-migrate/internal/config"
	"github.com/artemis/kontent-migrate/internal/exportctx"
	"github.com/artemis/kontent-migrate/internal/exportmgr"
	"github.com/artemis/kontent-migrate/internal/importctx"
	"github.com/artemis/kontent-migrate/internal/itemimport"
	"github.com/artemis/kontent-migrate/internal/managementapi"
	"github.com/artemis/kontent-migrate/internal/model"
	"github.com/artemis/kontent-migrate/internal/observability"
	"github.com/artemis/kontent-migrate/internal/preflight"
	"github.com/artemis/kontent-migrate/internal/snapshot"
	"github.com/artemis/kontent-migrate/internal/variantimport"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kontent-migrate",
		Short: "Migrate content between headless-CMS environments",
	}
	root.AddCommand(newExportCmd(), newImportCmd(), newMigrateCmd())
	return root
}

func newExportCmd() *cobra.Command {
	var (
		environmentID, apiKey, baseURL string
		items, language                string
		itemsFilename, assetsFilename  string
		replaceInvalidLinks            bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export content items into a codename-addressed snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if baseURL != "" {
				cfg.BaseURL = baseURL
			}
			if itemsFilename != "" {
				cfg.ItemsFilename = itemsFilename
			}
			if assetsFilename != "" {
				cfg.AssetsFilename = assetsFilename
			}
			cfg.ReplaceInvalidLinks = replaceInvalidLinks
			cfg.Source = &config.EnvironmentConfig{EnvironmentID: environmentID, APIKey: apiKey}

			logger, err := observability.NewLogger(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			codenames := splitCSV(items)
			if len(codenames) == 0 {
				return fmt.Errorf("--items is required")
			}
			if language == "" {
				return fmt.Errorf("--language is required")
			}

			data, err := runExport(cmd.Context(), cfg, logger, codenames, language)
			if err != nil {
				return err
			}

			fs := afero.NewOsFs()
			if err := snapshot.WriteItems(fs, cfg.ItemsFilename, data.Items); err != nil {
				return fmt.Errorf("write %s: %w", cfg.ItemsFilename, err)
			}
			if err := snapshot.WriteAssets(fs, cfg.AssetsFilename, data.Assets); err != nil {
				return fmt.Errorf("write %s: %w", cfg.AssetsFilename, err)
			}
			logger.Info("export complete",
				zap.Int("items", len(data.Items)), zap.Int("assets", len(data.Assets)))
			return nil
		},
	}

	cmd.Flags().StringVar(&environmentID, "sourceEnvironmentId", "", "source environment id (required)")
	cmd.Flags().StringVar(&apiKey, "sourceApiKey", "", "source management API key (required)")
	cmd.Flags().StringVar(&baseURL, "baseUrl", "", "management API base URL")
	cmd.Flags().StringVar(&items, "items", "", "CSV list of item codenames to export (required)")
	cmd.Flags().StringVar(&language, "language", "", "language codename to export (required)")
	cmd.Flags().StringVar(&itemsFilename, "itemsFilename", "", "output path for items.json")
	cmd.Flags().StringVar(&assetsFilename, "assetsFilename", "", "output path for assets.zip")
	cmd.Flags().BoolVar(&replaceInvalidLinks, "replaceInvalidLinks", false, "strip rich-text links that can't be resolved instead of leaving them untouched")
	_ = cmd.MarkFlagRequired("sourceEnvironmentId")
	_ = cmd.MarkFlagRequired("sourceApiKey")
	_ = cmd.MarkFlagRequired("items")
	_ = cmd.MarkFlagRequired("language")

	return cmd
}

func newImportCmd() *cobra.Command {
	var (
		environmentID, apiKey, baseURL string
		filename                       string
		force, failOnError, dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a snapshot into a target environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if baseURL != "" {
				cfg.BaseURL = baseURL
			}
			cfg.Target = &config.EnvironmentConfig{EnvironmentID: environmentID, APIKey: apiKey}
			cfg.Force = force
			cfg.FailOnError = failOnError
			cfg.DryRun = dryRun

			itemsFilename, assetsFilename := snapshotPaths(filename, cfg)

			logger, err := observability.NewLogger(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			fs := afero.NewOsFs()
			items, err := snapshot.ReadItems(fs, itemsFilename)
			if err != nil {
				return fmt.Errorf("read %s: %w", itemsFilename, err)
			}
			assets, err := snapshot.ReadAssets(fs, assetsFilename)
			if err != nil {
				return fmt.Errorf("read %s: %w", assetsFilename, err)
			}
			data := model.MigrationData{Items: items, Assets: assets}

			return runImport(cmd.Context(), cfg, logger, data)
		},
	}

	cmd.Flags().StringVar(&environmentID, "targetEnvironmentId", "", "target environment id (required)")
	cmd.Flags().StringVar(&apiKey, "targetApiKey", "", "target management API key (required)")
	cmd.Flags().StringVar(&baseURL, "baseUrl", "", "management API base URL")
	cmd.Flags().StringVar(&filename, "filename", "", "snapshot base path (items.json/assets.zip alongside it)")
	cmd.Flags().BoolVar(&force, "force", false, "proceed even if blocking preflight checks fail")
	cmd.Flags().BoolVar(&failOnError, "failOnError", false, "abort the whole run on the first per-item failure")
	cmd.Flags().BoolVar(&dryRun, "dryRun", false, "print the planned operations without issuing any mutating call")
	_ = cmd.MarkFlagRequired("targetEnvironmentId")
	_ = cmd.MarkFlagRequired("targetApiKey")

	return cmd
}

func newMigrateCmd() *cobra.Command {
	var (
		sourceEnvironmentID, sourceAPIKey string
		targetEnvironmentID, targetAPIKey string
		baseURL, items, language          string
		force                             bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Export from a source environment and import directly into a target environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if baseURL != "" {
				cfg.BaseURL = baseURL
			}
			cfg.Source = &config.EnvironmentConfig{EnvironmentID: sourceEnvironmentID, APIKey: sourceAPIKey}
			cfg.Target = &config.EnvironmentConfig{EnvironmentID: targetEnvironmentID, APIKey: targetAPIKey}
			cfg.Force = force

			logger, err := observability.NewLogger(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			codenames := splitCSV(items)
			if len(codenames) == 0 {
				return fmt.Errorf("--items is required")
			}
			if language == "" {
				return fmt.Errorf("--language is required")
			}

			data, err := runExport(cmd.Context(), cfg, logger, codenames, language)
			if err != nil {
				return err
			}
			return runImport(cmd.Context(), cfg, logger, data)
		},
	}

	cmd.Flags().StringVar(&sourceEnvironmentID, "sourceEnvironmentId", "", "source environment id (required)")
	cmd.Flags().StringVar(&sourceAPIKey, "sourceApiKey", "", "source management API key (required)")
	cmd.Flags().StringVar(&targetEnvironmentID, "targetEnvironmentId", "", "target environment id (required)")
	cmd.Flags().StringVar(&targetAPIKey, "targetApiKey", "", "target management API key (required)")
	cmd.Flags().StringVar(&baseURL, "baseUrl", "", "management API base URL")
	cmd.Flags().StringVar(&items, "items", "", "CSV list of item codenames to migrate (required)")
	cmd.Flags().StringVar(&language, "language", "", "language codename to migrate (required)")
	cmd.Flags().BoolVar(&force, "force", false, "proceed even if blocking preflight checks fail")
	_ = cmd.MarkFlagRequired("sourceEnvironmentId")
	_ = cmd.MarkFlagRequired("sourceApiKey")
	_ = cmd.MarkFlagRequired("targetEnvironmentId")
	_ = cmd.MarkFlagRequired("targetApiKey")
	_ = cmd.MarkFlagRequired("items")
	_ = cmd.MarkFlagRequired("language")

	return cmd
}

func runExport(ctx context.Context, cfg *config.Config, logger *observability.Logger, itemCodenames []string, language string) (model.MigrationData, error) {
	logger.Info("starting export", zap.Any("config", cfg.Redact()))

	api := managementapi.NewClient(cfg.BaseURL, cfg.Source.EnvironmentID, cfg.Source.APIKey, logger)

	env, err := exportctx.LoadEnvironmentData(ctx, api)
	if err != nil {
		return model.MigrationData{}, err
	}

	requests := make([]exportctx.ItemRequest, 0, len(itemCodenames))
	for _, codename := range itemCodenames {
		requests = append(requests, exportctx.ItemRequest{ItemCodename: codename, LanguageCodename: language})
	}

	exportItems, err := exportctx.PrepareExportItems(ctx, api, env, requests, logger)
	if err != nil {
		return model.MigrationData{}, err
	}

	ec, err := exportctx.FetchReferenceClosure(ctx, api, env, exportItems, logger)
	if err != nil {
		return model.MigrationData{}, err
	}

	return exportmgr.Build(ctx, api, ec, exportmgr.Options{
		AssetDownloadParallelism: cfg.AssetDownloadParallelism,
		ReplaceInvalidLinks:      cfg.ReplaceInvalidLinks,
		Logger:                   logger,
	})
}

func runImport(ctx context.Context, cfg *config.Config, logger *observability.Logger, data model.MigrationData) error {
	logger.Info("starting import", zap.Any("config", cfg.Redact()))

	api := managementapi.NewClient(cfg.BaseURL, cfg.Target.EnvironmentID, cfg.Target.APIKey, logger)

	ic, err := importctx.Build(ctx, api, data, nil, importctx.Options{Logger: logger})
	if err != nil {
		return err
	}

	if cfg.DryRun {
		plan := preflight.PlanImport(data, ic, 100)
		logger.Info("dry run plan",
			zap.Int("operations", len(plan.Operations)),
			zap.Int64("total_upload_bytes", plan.TotalUploadBytes),
			zap.Duration("estimated_duration", plan.EstimatedDuration))
		for _, op := range plan.Operations {
			fmt.Printf("%-18s %-40s %s\n", op.Type, op.Codename, op.Notes)
		}
		return nil
	}

	auditor := preflight.NewAuditor(logger.Logger)
	result, err := auditor.AuditImport(ctx, data, ic, nil)
	if err != nil {
		return err
	}
	if !result.CanProceed && !cfg.Force {
		return fmt.Errorf("preflight checks failed: %s", strings.Join(result.Blockers, "; "))
	}

	if _, err := itemimport.Import(ctx, api, ic, data.Items, itemimport.Options{
		Logger:      logger,
		FailOnError: cfg.FailOnError,
	}); err != nil {
		return err
	}

	if _, err := assetimport.Import(ctx, api, ic, data.Assets, assetimport.Options{
		UploadParallelism: cfg.AssetUploadParallelism,
		EditParallelism:   cfg.AssetEditParallelism,
		Logger:            logger,
		FailOnError:       cfg.FailOnError,
	}); err != nil {
		return err
	}

	if err := variantimport.Import(ctx, api, ic, data.Items, variantimport.Options{
		ReplaceInvalidLinks: cfg.ReplaceInvalidLinks,
		Logger:              logger,
		FailOnError:         cfg.FailOnError,
	}); err != nil {
		return err
	}

	logger.Info("import complete", zap.Int("items", len(data.Items)), zap.Int("assets", len(data.Assets)))
	return nil
}

func snapshotPaths(filenameFlag string, cfg *config.Config) (itemsPath, assetsPath string) {
	if filenameFlag == "" {
		return cfg.ItemsFilename, cfg.AssetsFilename
	}
	return filenameFlag + ".items.json", filenameFlag + ".assets.zip"
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
