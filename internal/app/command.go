package app

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ondrasimku/vision-service/internal/config"
	"github.com/ondrasimku/vision-service/internal/log"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

type flags struct {
	envFile   string
	addr      string
	uploadDir string
	detector  string
	storage   string
	logLevel  string
}

// NewCommand builds the root command of a service binary. Flags override
// environment variables, which override values from the env file.
func NewCommand(svc Service) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   svc.Name,
		Short: svc.Short,
		Long: fmt.Sprintf(`%s serves an upload form on / and classifies images posted to /upload.

Configuration comes from VISION_* environment variables, optionally seeded
from a .env file. Flags take precedence over both.`, svc.Name),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}

			logger := log.NewLogger(cfg.LogLevel, cfg.LogFormat).With("service", svc.Name)
			return Run(cmd.Context(), svc, cfg, logger)
		},
	}

	cmd.Flags().StringVar(&f.envFile, "env-file", "", "dotenv file to load (default .env if present)")
	cmd.Flags().StringVar(&f.addr, "addr", "", "HTTP listen address (VISION_HTTP_ADDR)")
	cmd.Flags().StringVar(&f.uploadDir, "upload-dir", "", "directory for uploaded images (VISION_UPLOAD_DIR)")
	cmd.Flags().StringVar(&f.detector, "detector", "", "inference backend: opencv, dlib or remote (VISION_DETECTOR)")
	cmd.Flags().StringVar(&f.storage, "storage", "", "upload storage: local or s3 (VISION_STORAGE)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (VISION_LOG_LEVEL)")

	cmd.AddCommand(versionCmd(svc))
	return cmd
}

func loadConfig(cmd *cobra.Command, f flags) (*config.Config, error) {
	if err := config.LoadEnvFile(f.envFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	fs := cmd.Flags()
	if fs.Changed("addr") {
		cfg.HTTPAddr = f.addr
	}
	if fs.Changed("upload-dir") {
		cfg.Storage.Dir = f.uploadDir
	}
	if fs.Changed("detector") {
		cfg.Detector.Backend = f.detector
	}
	if fs.Changed("storage") {
		cfg.Storage.Backend = f.storage
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func versionCmd(svc Service) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s) %s %s/%s\n",
				svc.Name, version, commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
