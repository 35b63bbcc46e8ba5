package cmd

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-bot/internal/dispatch"
	"github.com/spigell/job-bot/internal/tailor"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Estimate how well a resume fits a job posting",
	Run: func(cmd *cobra.Command, _ []string) {
		score(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	addInputFlags(scoreCmd)
}

func score(cmd *cobra.Command) {
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

	res, err := bot.tailor.Score(ctx, session, tailor.ScoreRequest{Resume: resume, Job: job, Provider: preferred})
	if err != nil {
		logDispatchFailure(logger, session, "scoring", err)
	}

	pretty, _ := json.MarshalIndent(res.Score, "", "  ")
	logger.Info(string(pretty),
		zap.Int("score", res.Score.Score),
		zap.String("label", res.Label),
		zap.String("provider", res.Provider.Label),
		zap.Bool("switched", res.Switched),
		zap.Bool("cached", res.Cached),
	)
}

// logDispatchFailure exits with a hint when every provider is rate limited.
func logDispatchFailure(logger *zap.Logger, session *dispatch.Session, step string, err error) {
	if errors.Is(err, dispatch.ErrNoProvidersAvailable) {
		logger.Fatal(step,
			zap.Error(err),
			zap.Strings("recently_limited", session.RecentlyLimited()),
			zap.String("hint", "add an API key for another provider or wait for the cooldown"),
		)
	}
	logger.Fatal(step, zap.Error(err))
}
