package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/job-bot/internal/document"
	"github.com/spigell/job-bot/internal/store"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Work with the application log",
}

var logListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the application log",
	Run: func(_ *cobra.Command, _ []string) {
		listLog()
	},
}

var logExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the application log as CSV or DOCX",
	Run: func(cmd *cobra.Command, _ []string) {
		exportLog(cmd)
	},
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.AddCommand(logListCmd, logExportCmd)

	logExportCmd.Flags().StringP("format", "f", "csv", "export format: csv or docx")
	logExportCmd.Flags().StringP("out", "o", "", "output file (default application_log.<format>)")
}

// openStore builds only the state store; log commands need no providers.
func openStore(logger *zap.Logger) *store.Store {
	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	path := config.StateFile
	if path == "" {
		if path, err = store.DefaultPath(); err != nil {
			logger.Fatal("resolving state file", zap.Error(err))
		}
	}

	return store.New(path, logger)
}

func listLog() {
	logger := newLogger()
	entries := openStore(logger).Log()

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()

	if err := enc.Encode(map[string]any{"applications": entries}); err != nil {
		logger.Fatal("printing log", zap.Error(err))
	}
}

func exportLog(cmd *cobra.Command) {
	logger := newLogger()
	entries := openStore(logger).Log()

	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = "application_log." + format
	}

	data, err := buildLog(format, entries)
	if err != nil {
		logger.Fatal("exporting log", zap.Error(err))
	}

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal("exporting log", zap.Error(err))
		}
	}

	if err := os.WriteFile(out, data, 0o644); err != nil {
		logger.Fatal("exporting log", zap.Error(err))
	}

	logger.Info("application log exported", zap.String("filename", out), zap.Int("count", len(entries)))
}

func buildLog(format string, entries []store.LogEntry) ([]byte, error) {
	switch format {
	case "csv":
		return document.BuildLogCSV(entries)
	case "docx":
		return document.BuildLogDOCX(entries)
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}
