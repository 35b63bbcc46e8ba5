package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/job-bot/internal/dispatch"
)

const (
	app = "job-bot"
)

type Config struct {
	StateFile  string                       `mapstructure:"state-file"`
	Listen     string                       `mapstructure:"listen"`
	UserAgent  string                       `mapstructure:"user-agent"`
	RetryPause time.Duration                `mapstructure:"retry-pause"`
	Providers  map[string]dispatch.Override `mapstructure:"providers"`
	// SessionTTL and MaxSessions bound the server's per-browser state.
	SessionTTL  time.Duration `mapstructure:"session-ttl"`
	MaxSessions int           `mapstructure:"max-sessions"`
	// Keys are indexed by credential name, e.g. GROQ_API_KEY. The environment variable of
	// the same name is consulted when neither value nor file is set.
	Keys  map[string]KeyConfig `mapstructure:"keys"`
	Cache *CacheConfig         `mapstructure:"cache"`
}

type KeyConfig struct {
	Value string `mapstructure:"value"`
	File  string `mapstructure:"file"`
}

type CacheConfig struct {
	// Backend is one of memory (default), redis or none.
	Backend string        `mapstructure:"backend"`
	Size    int           `mapstructure:"size"`
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   *RedisConfig  `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	PasswordFile string `mapstructure:"password-file"`
	DB           int    `mapstructure:"db"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-bot scores and tailors resumes against job postings using a pool of AI providers",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("state-file", "JOB_BOT_STATE_FILE"); err != nil {
		log.Fatalf("binding JOB_BOT_STATE_FILE environment variable: %v", err)
	}

	viper.SetEnvPrefix("JOB_BOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("listen", ":8080")
	viper.SetDefault("retry-pause", dispatch.DefaultRetryPause)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-bot.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional; every setting has a default or an environment variable.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}

	return config, nil
}
