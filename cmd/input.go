package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-bot/internal/dispatch"
	"github.com/spigell/job-bot/internal/resumeparse"
	"github.com/spigell/job-bot/internal/store"
)

const (
	PromptAuto = "auto (best available, switch on rate limits)"
	cliSession = "cli"
)

// addInputFlags registers the flags shared by score and tailor.
func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("resume", "r", "", "resume file (.docx, .pdf or .txt); defaults to the saved master resume")
	cmd.Flags().String("job", "", "file with the job description")
	cmd.Flags().StringP("url", "u", "", "URL of the job posting")
	cmd.Flags().Bool("save", false, "save the --resume file as the master resume")
	addProviderFlags(cmd)
}

// addProviderFlags registers the flags read by chooseProvider.
func addProviderFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("provider", "p", "", "provider id to try first, or auto")
	cmd.Flags().BoolP("yes", "y", false, "do not ask for a provider, use auto mode")
}

// loadResume reads the resume from --resume or falls back to the saved master resume.
func loadResume(cmd *cobra.Command, bot *application) (string, error) {
	path, _ := cmd.Flags().GetString("resume")
	if strings.TrimSpace(path) == "" {
		master, ok := bot.store.MasterResume()
		if !ok {
			return "", errors.New("no resume given: pass --resume or save a master resume with --save")
		}
		bot.logger.Info("using the saved master resume", zap.String("name", master.Name))
		return master.Text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading resume: %w", err)
	}

	text, err := resumeparse.Extract(data, filepath.Base(path))
	if err != nil {
		return "", err
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		if err := bot.store.SetMasterResume(store.MasterResume{Name: filepath.Base(path), Text: text, Data: data}); err != nil {
			return "", fmt.Errorf("saving master resume: %w", err)
		}
		bot.logger.Info("master resume saved", zap.String("name", filepath.Base(path)))
	}

	return text, nil
}

// loadJob reads the job description from --job or downloads it from --url.
func loadJob(ctx context.Context, cmd *cobra.Command, bot *application) (string, error) {
	path, _ := cmd.Flags().GetString("job")
	url, _ := cmd.Flags().GetString("url")

	switch {
	case strings.TrimSpace(path) != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading job description: %w", err)
		}
		return string(data), nil
	case strings.TrimSpace(url) != "":
		return bot.jobClient().Fetch(ctx, url)
	default:
		return "", errors.New("no job description given: pass --job or --url")
	}
}

// chooseProvider returns the provider preference: the flag, auto with --yes, or an
// interactive pick among the configured providers.
func chooseProvider(cmd *cobra.Command, bot *application, session *dispatch.Session) (string, error) {
	if preferred, _ := cmd.Flags().GetString("provider"); strings.TrimSpace(preferred) != "" {
		return preferred, nil
	}
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return dispatch.Auto, nil
	}

	available := bot.dispatcher.Available(session)
	if len(available) == 0 {
		return "", errors.New("no provider has an API key: set one of " + strings.Join(bot.dispatcher.Registry().KeyNames(), ", "))
	}

	items := []string{PromptAuto}
	for _, p := range available {
		items = append(items, fmt.Sprintf("%s / %s", p.ID, p.Label))
	}

	providerPrompt := promptui.Select{
		Label: "Choose a provider and press ENTER",
		Items: items,
	}

	idx, _, err := providerPrompt.Run()
	if err != nil {
		return "", err
	}
	if idx == 0 {
		return dispatch.Auto, nil
	}

	return available[idx-1].ID, nil
}
