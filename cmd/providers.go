package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type providerStatus struct {
	ID         string `yaml:"id"`
	Label      string `yaml:"label"`
	Kind       string `yaml:"kind"`
	Model      string `yaml:"model,omitempty"`
	BaseURL    string `yaml:"base_url,omitempty"`
	KeyName    string `yaml:"key_name"`
	Configured bool   `yaml:"configured"`
	Free       bool   `yaml:"free"`
	Cooldown   string `yaml:"cooldown"`
	SignupURL  string `yaml:"signup_url,omitempty"`
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the AI providers in priority order",
	Run: func(_ *cobra.Command, _ []string) {
		listProviders()
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func listProviders() {
	logger := newLogger()

	bot, err := newApplication(context.Background(), logger)
	if err != nil {
		logger.Fatal("initializing", zap.Error(err))
	}

	creds := bot.credentials()

	var statuses []providerStatus
	for _, p := range bot.dispatcher.Registry().All() {
		statuses = append(statuses, providerStatus{
			ID:         p.ID,
			Label:      p.Label,
			Kind:       string(p.Kind),
			Model:      p.Model,
			BaseURL:    p.BaseURL,
			KeyName:    p.KeyName,
			Configured: creds.Get(p.ID) != "",
			Free:       p.Free,
			Cooldown:   p.CooldownDuration().String(),
			SignupURL:  p.SignupURL,
		})
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()

	if err := enc.Encode(map[string]any{"providers": statuses}); err != nil {
		logger.Fatal("printing providers", zap.Error(fmt.Errorf("encode yaml: %w", err)))
	}
}
