package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-bot/internal/dispatch"
	"github.com/spigell/job-bot/internal/jobpost"
	"github.com/spigell/job-bot/internal/logger"
	"github.com/spigell/job-bot/internal/secrets"
	"github.com/spigell/job-bot/internal/store"
	"github.com/spigell/job-bot/internal/tailor"
)

const redisPingTimeout = 5 * time.Second

// application holds the components shared by every command.
type application struct {
	config     *Config
	logger     *zap.Logger
	store      *store.Store
	registry   *prometheus.Registry
	dispatcher *dispatch.Dispatcher
	tailor     *tailor.Service
	// keys are the operator credentials by key name, before user overrides.
	keys map[string]string
}

// newLogger builds the logger from the persistent flags. Commands exit when it fails.
func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

func newApplication(ctx context.Context, log *zap.Logger) (*application, error) {
	config, err := getConfig()
	if err != nil {
		return nil, fmt.Errorf("getting a config: %w", err)
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	log.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	statePath := strings.TrimSpace(config.StateFile)
	if statePath == "" {
		if statePath, err = store.DefaultPath(); err != nil {
			return nil, err
		}
	}

	providers, err := dispatch.ApplyOverrides(dispatch.DefaultProviders(), config.Providers)
	if err != nil {
		return nil, fmt.Errorf("applying provider overrides: %w", err)
	}

	registry, err := dispatch.NewRegistry(providers)
	if err != nil {
		return nil, fmt.Errorf("building provider registry: %w", err)
	}

	keys, err := loadKeys(registry.KeyNames(), config.Keys)
	if err != nil {
		return nil, err
	}

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	dispatcher := dispatch.New(registry, dispatch.NewFactory(log), dispatch.Options{
		RetryPause: config.RetryPause,
		Metrics:    dispatch.NewMetrics(metrics),
	}, log)

	cache, err := newCache(ctx, config.Cache, log)
	if err != nil {
		return nil, err
	}

	log.Info("providers loaded",
		zap.Int("count", len(providers)),
		zap.Int("keys", len(keys)),
		zap.String("state_file", statePath),
	)

	return &application{
		config:     config,
		logger:     log,
		store:      store.New(statePath, log),
		registry:   metrics,
		dispatcher: dispatcher,
		tailor:     tailor.New(dispatcher, cache, log),
		keys:       keys,
	}, nil
}

// credentials resolves operator keys overridden by the keys the user saved.
func (a *application) credentials() dispatch.Credentials {
	providers := a.dispatcher.Registry().All()
	base := dispatch.CredentialsFromKeys(providers, a.keys)
	return base.Merge(dispatch.CredentialsFromKeys(providers, a.store.UserKeys()))
}

func (a *application) jobClient() *jobpost.Client {
	client := jobpost.New(a.logger)
	if ua := strings.TrimSpace(a.config.UserAgent); ua != "" {
		client.UserAgent = ua
	}
	return client
}

// loadKeys resolves every credential name. Names without a configured secret are skipped.
func loadKeys(names []string, configured map[string]KeyConfig) (map[string]string, error) {
	keys := make(map[string]string, len(names))

	for _, name := range names {
		cfg := configured[name]
		if cfg == (KeyConfig{}) {
			// viper lowercases map keys read from the config file.
			cfg = configured[strings.ToLower(name)]
		}

		key, err := secrets.Load(secrets.Source{
			Name:  name,
			Value: cfg.Value,
			File:  cfg.File,
			Env:   name,
		})
		if errors.Is(err, secrets.ErrNotConfigured) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", name, err)
		}

		keys[name] = key
	}

	return keys, nil
}

func newCache(ctx context.Context, cfg *CacheConfig, log *zap.Logger) (tailor.Cache, error) {
	if cfg == nil {
		cfg = &CacheConfig{}
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = tailor.DefaultCacheTTL
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		size := cfg.Size
		if size <= 0 {
			size = tailor.DefaultCacheSize
		}
		return tailor.NewMemoryCache(size, ttl), nil
	case "none":
		return nil, nil
	case "redis":
		if cfg.Redis == nil || strings.TrimSpace(cfg.Redis.Addr) == "" {
			return nil, errors.New("cache.redis.addr is required for the redis cache backend")
		}

		password, err := secrets.Load(secrets.Source{
			Name:  "redis password",
			Value: cfg.Redis.Password,
			File:  cfg.Redis.PasswordFile,
		})
		if err != nil && !errors.Is(err, secrets.ErrNotConfigured) {
			return nil, err
		}

		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr, err)
		}

		log.Info("using redis result cache", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", ttl))

		return tailor.NewRedisCache(client, ttl), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// redacted returns a copy of config that is safe to log.
func redacted(config *Config) *Config {
	out := *config

	out.Keys = make(map[string]KeyConfig, len(config.Keys))
	for name, key := range config.Keys {
		if key.Value != "" {
			key.Value = "***"
		}
		out.Keys[name] = key
	}

	if config.Cache != nil && config.Cache.Redis != nil {
		cache := *config.Cache
		redisCfg := *config.Cache.Redis
		if redisCfg.Password != "" {
			redisCfg.Password = "***"
		}
		cache.Redis = &redisCfg
		out.Cache = &cache
	}

	return &out
}
