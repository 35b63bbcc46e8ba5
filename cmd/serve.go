package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-bot/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :8080)")

	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()

	bot, err := newApplication(ctx, logger)
	if err != nil {
		logger.Fatal("initializing", zap.Error(err))
	}

	logger.Info("starting the job-bot server", zap.String("version", version))

	jobs := bot.jobClient()
	srv := server.New(server.Deps{
		Dispatcher: bot.dispatcher,
		Tailor:     bot.tailor,
		Store:      bot.store,
		Jobs:       jobs,
		Research:   jobs,
		Keys:       bot.keys,
		Gatherer:   bot.registry,
		Logger:     logger,

		SessionTTL:  bot.config.SessionTTL,
		MaxSessions: bot.config.MaxSessions,
	})

	if err := srv.Run(ctx, bot.config.Listen); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}

	logger.Info("exiting", zap.String("reason", "shutdown requested"))
}
