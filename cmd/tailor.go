package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-bot/internal/ai"
	"github.com/spigell/job-bot/internal/dispatch"
	"github.com/spigell/job-bot/internal/document"
	"github.com/spigell/job-bot/internal/jobpost"
	"github.com/spigell/job-bot/internal/store"
	"github.com/spigell/job-bot/internal/tailor"
)

var tailorCmd = &cobra.Command{
	Use:   "tailor",
	Short: "Rewrite a resume for a job posting and save it as DOCX and PDF",
	Run: func(cmd *cobra.Command, _ []string) {
		tailorResume(cmd)
	},
}

func init() {
	rootCmd.AddCommand(tailorCmd)
	addInputFlags(tailorCmd)

	tailorCmd.Flags().Float64P("temperature", "t", tailor.DefaultTemperature, "how freely bullets are reworded, 0 to 1")
	tailorCmd.Flags().Bool("condense", false, "trim the result to fit on one page")
	tailorCmd.Flags().StringP("format", "f", "both", "output format: docx, pdf or both")
	tailorCmd.Flags().StringP("out", "o", ".", "directory for the generated files")
	tailorCmd.Flags().String("title", "", "job title recorded in the history and the application log")
	tailorCmd.Flags().Bool("with-score", false, "score the fit before tailoring")
	tailorCmd.Flags().Bool("log", false, "add the application to the application log")
}

func tailorResume(cmd *cobra.Command) {
	ctx := context.Background()
	logger := newLogger()

	bot, err := newApplication(ctx, logger)
	if err != nil {
		logger.Fatal("initializing", zap.Error(err))
	}

	resume, err := loadResume(cmd, bot)
	if err != nil {
		logger.Fatal("loading resume", zap.Error(err))
	}

	job, err := loadJob(ctx, cmd, bot)
	if err != nil {
		logger.Fatal("loading job description", zap.Error(err))
	}

	session := dispatch.NewSession(cliSession, bot.credentials())

	preferred, err := chooseProvider(cmd, bot, session)
	if err != nil {
		logger.Fatal("choosing a provider", zap.Error(err))
	}

	var fit *int
	if withScore, _ := cmd.Flags().GetBool("with-score"); withScore {
		scored, err := bot.tailor.Score(ctx, session, tailor.ScoreRequest{Resume: resume, Job: job, Provider: preferred})
		if err != nil {
			logDispatchFailure(logger, session, "scoring", err)
		}
		fit = &scored.Score.Score
		logger.Info("fit scored", zap.Int("score", scored.Score.Score), zap.String("label", scored.Label))
	}

	temperature, _ := cmd.Flags().GetFloat64("temperature")

	res, err := bot.tailor.Tailor(ctx, session, tailor.TailorRequest{
		Resume:      resume,
		Job:         job,
		Temperature: temperature,
		Provider:    preferred,
	})
	if err != nil {
		logDispatchFailure(logger, session, "tailoring", err)
	}

	if res.Switched {
		logger.Warn("preferred provider was rate limited", zap.String("served_by", res.Provider.Label))
	}

	tailored := res.Resume
	if condense, _ := cmd.Flags().GetBool("condense"); condense {
		tailored = tailor.Condense(tailored)
	}

	lines := jobpost.Lines(job)
	company := jobpost.CompanyName(lines)
	slug := jobpost.SlugFromLines(lines)
	title, _ := cmd.Flags().GetString("title")

	files, err := writeDocuments(cmd, tailored, slug)
	if err != nil {
		logger.Fatal("writing documents", zap.Error(err))
	}

	if err := bot.store.UpsertHistory(store.HistoryEntry{
		Company:  company,
		Slug:     slug,
		JobTitle: title,
		Score:    fit,
		Data:     tailored,
	}); err != nil {
		logger.Warn("could not save tailoring history", zap.Error(err))
	}

	if addLog, _ := cmd.Flags().GetBool("log"); addLog {
		entry := store.LogEntry{JobTitle: title, Company: company}
		if entry.Company == "" {
			entry.Company = slug
		}
		if fit != nil {
			entry.FitPct = *fit
		}
		if _, err := bot.store.AddLogEntry(entry); err != nil {
			logger.Warn("could not add application log entry", zap.Error(err))
		}
	}

	logger.Info("resume tailored",
		zap.String("company", company),
		zap.Strings("files", files),
		zap.Strings("keywords_added", tailored.KeywordsAdded),
		zap.String("provider", res.Provider.Label),
		zap.Bool("cached", res.Cached),
	)
}

func writeDocuments(cmd *cobra.Command, resume *ai.TailoredResume, slug string) ([]string, error) {
	format, _ := cmd.Flags().GetString("format")
	dir, _ := cmd.Flags().GetString("out")

	builders := map[string]func(*ai.TailoredResume) ([]byte, error){
		"docx": document.BuildDOCX,
		"pdf":  document.BuildPDF,
	}

	var formats []string
	switch format {
	case "both":
		formats = []string{"docx", "pdf"}
	case "docx", "pdf":
		formats = []string{format}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	files := make([]string, 0, len(formats))
	for _, f := range formats {
		data, err := builders[f](resume)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", f, err)
		}

		name := filepath.Join(dir, fmt.Sprintf("resume_%s.%s", slug, f))
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
		files = append(files, name)
	}

	return files, nil
}
