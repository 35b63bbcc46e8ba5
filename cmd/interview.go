package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-bot/internal/dispatch"
	"github.com/spigell/job-bot/internal/tailor"
)

const practiceDone = "done"

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Practice interview questions for a role",
}

var interviewQuestionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Generate practice questions, optionally answering them interactively",
	Run: func(cmd *cobra.Command, _ []string) {
		interviewQuestions(cmd)
	},
}

var interviewRateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Rate an answer to an interview question",
	Run: func(cmd *cobra.Command, _ []string) {
		interviewRate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)
	interviewCmd.AddCommand(interviewQuestionsCmd, interviewRateCmd)

	for _, c := range []*cobra.Command{interviewQuestionsCmd, interviewRateCmd} {
		c.Flags().String("company", "", "company name")
		c.Flags().String("role", "", "role or job title")
		addProviderFlags(c)
	}

	interviewQuestionsCmd.Flags().String("from-log", "", "take company and role from this application log entry id")
	interviewQuestionsCmd.Flags().IntP("count", "n", tailor.DefaultQuestionCount, "number of questions")
	interviewQuestionsCmd.Flags().Bool("research", true, "search the web for interview experiences first")
	interviewQuestionsCmd.Flags().Bool("practice", false, "answer the questions and get each answer rated")

	interviewRateCmd.Flags().StringP("question", "q", "", "the interview question")
	interviewRateCmd.Flags().StringP("answer", "a", "", "your answer")
	interviewRateCmd.Flags().String("answer-file", "", "file with your answer")
}

func interviewQuestions(cmd *cobra.Command) {
	ctx := context.Background()
	logger := newLogger()

	bot, err := newApplication(ctx, logger)
	if err != nil {
		logger.Fatal("initializing", zap.Error(err))
	}

	company, role, err := interviewTarget(cmd, bot)
	if err != nil {
		logger.Fatal("choosing the interview", zap.Error(err))
	}

	session := dispatch.NewSession(cliSession, bot.credentials())

	preferred, err := chooseProvider(cmd, bot, session)
	if err != nil {
		logger.Fatal("choosing a provider", zap.Error(err))
	}

	var webContext string
	if research, _ := cmd.Flags().GetBool("research"); research {
		webContext = bot.jobClient().ResearchInterview(ctx, company, role)
		logger.Info("interview research", zap.Bool("found", webContext != ""))
	}

	count, _ := cmd.Flags().GetInt("count")
	res, err := bot.tailor.Questions(ctx, session, tailor.QuestionsRequest{
		Company:    company,
		Role:       role,
		Count:      count,
		WebContext: webContext,
		Provider:   preferred,
	})
	if err != nil {
		logDispatchFailure(logger, session, "generating questions", err)
	}

	for i, q := range res.Questions {
		logger.Info(fmt.Sprintf("Q%d. %s", i+1, q))
	}
	logger.Info("questions generated",
		zap.String("company", res.Company),
		zap.String("role", res.Role),
		zap.String("provider", res.Provider.Label),
		zap.Bool("switched", res.Switched),
	)

	if practice, _ := cmd.Flags().GetBool("practice"); practice {
		practiceLoop(ctx, bot, session, preferred, res)
	}
}

// practiceLoop lets the user pick a question, type an answer and see it rated until done.
func practiceLoop(ctx context.Context, bot *application, session *dispatch.Session, preferred string, res *tailor.QuestionsResult) {
	items := append([]string{practiceDone}, res.Questions...)

	for {
		questionPrompt := promptui.Select{
			Label: "Pick a question to practice",
			Items: items,
			Size:  len(items),
		}
		idx, _, err := questionPrompt.Run()
		if err != nil || idx == 0 {
			return
		}
		question := items[idx]

		answerPrompt := promptui.Prompt{
			Label: "Your answer",
			Validate: func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("answer is empty")
				}
				return nil
			},
		}
		answer, err := answerPrompt.Run()
		if err != nil {
			return
		}

		rated, err := bot.tailor.Rate(ctx, session, tailor.RateRequest{
			Company:  res.Company,
			Role:     res.Role,
			Question: question,
			Answer:   answer,
			Provider: preferred,
		})
		if err != nil {
			bot.logger.Error("rating the answer", zap.Error(err), zap.Strings("recently_limited", session.RecentlyLimited()))
			continue
		}
		logRating(bot.logger, rated)
	}
}

func interviewRate(cmd *cobra.Command) {
	ctx := context.Background()
	logger := newLogger()

	bot, err := newApplication(ctx, logger)
	if err != nil {
		logger.Fatal("initializing", zap.Error(err))
	}

	answer, err := loadAnswer(cmd)
	if err != nil {
		logger.Fatal("loading answer", zap.Error(err))
	}

	session := dispatch.NewSession(cliSession, bot.credentials())

	preferred, err := chooseProvider(cmd, bot, session)
	if err != nil {
		logger.Fatal("choosing a provider", zap.Error(err))
	}

	company, _ := cmd.Flags().GetString("company")
	role, _ := cmd.Flags().GetString("role")
	question, _ := cmd.Flags().GetString("question")

	rated, err := bot.tailor.Rate(ctx, session, tailor.RateRequest{
		Company:  company,
		Role:     role,
		Question: question,
		Answer:   answer,
		Provider: preferred,
	})
	if err != nil {
		logDispatchFailure(logger, session, "rating the answer", err)
	}

	logRating(logger, rated)
}

// interviewTarget resolves company and role from --from-log or the --company/--role flags.
func interviewTarget(cmd *cobra.Command, bot *application) (string, string, error) {
	if id, _ := cmd.Flags().GetString("from-log"); strings.TrimSpace(id) != "" {
		entry, err := bot.store.LogEntry(strings.TrimSpace(id))
		if err != nil {
			return "", "", err
		}
		return entry.Company, entry.JobTitle, nil
	}

	company, _ := cmd.Flags().GetString("company")
	role, _ := cmd.Flags().GetString("role")
	if strings.TrimSpace(company) == "" && strings.TrimSpace(role) == "" {
		return "", "", errors.New("pass --company and/or --role, or --from-log")
	}

	return company, role, nil
}

func loadAnswer(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("answer-file"); strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading answer: %w", err)
		}
		return string(data), nil
	}

	answer, _ := cmd.Flags().GetString("answer")
	return answer, nil
}

func logRating(logger *zap.Logger, rated *tailor.RateResult) {
	logger.Info(fmt.Sprintf("Score: %d/100 (%s). %s", rated.Rating.Score, rated.Label, rated.Rating.Feedback),
		zap.Strings("strengths", rated.Rating.Strengths),
		zap.Strings("improvements", rated.Rating.Improvements),
		zap.String("provider", rated.Provider.Label),
		zap.Bool("switched", rated.Switched),
	)
}
