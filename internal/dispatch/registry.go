package dispatch

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind selects the calling convention used for a provider.
type Kind string

const (
	KindAnthropic Kind = "anthropic"
	KindGemini    Kind = "gemini"
	KindOpenAI    Kind = "openai"
)

// DefaultCooldown applies to providers without an explicit cooldown.
const DefaultCooldown = 90 * time.Second

// Provider is an immutable registry entry.
type Provider struct {
	ID        string        `json:"id"`
	Label     string        `json:"label"`
	KeyName   string        `json:"key_name"`
	Kind      Kind          `json:"kind"`
	BaseURL   string        `json:"base_url,omitempty"`
	Model     string        `json:"model,omitempty"`
	Free      bool          `json:"free"`
	SignupURL string        `json:"signup_url"`
	Cooldown  time.Duration `json:"-"`
}

// CooldownDuration is how long the provider rests after repeated rate limits.
func (p Provider) CooldownDuration() time.Duration {
	if p.Cooldown > 0 {
		return p.Cooldown
	}
	return DefaultCooldown
}

// DefaultProviders returns the built-in registry in priority order (best quality first).
func DefaultProviders() []Provider {
	return []Provider{
		{
			ID:        "anthropic",
			Label:     "Claude 3.5 Sonnet",
			KeyName:   "ANTHROPIC_API_KEY",
			Kind:      KindAnthropic,
			Model:     "claude-3-5-sonnet-latest",
			SignupURL: "https://console.anthropic.com/",
			Cooldown:  300 * time.Second,
		},
		{
			ID:        "gemini",
			Label:     "Gemini 2.0 Flash",
			KeyName:   "GEMINI_API_KEY",
			Kind:      KindGemini,
			Model:     "gemini-2.0-flash",
			Free:      true,
			SignupURL: "https://aistudio.google.com/app/apikey",
			Cooldown:  60 * time.Second,
		},
		{
			// Same key as gemini but a separate rate-limit pool.
			ID:        "gemini15",
			Label:     "Gemini 1.5 Flash",
			KeyName:   "GEMINI_API_KEY",
			Kind:      KindOpenAI,
			BaseURL:   "https://generativelanguage.googleapis.com/v1beta/openai/",
			Model:     "gemini-1.5-flash",
			Free:      true,
			SignupURL: "https://aistudio.google.com/app/apikey",
			Cooldown:  60 * time.Second,
		},
		{
			ID:        "groq",
			Label:     "Llama 3.3 70B · Groq",
			KeyName:   "GROQ_API_KEY",
			Kind:      KindOpenAI,
			BaseURL:   "https://api.groq.com/openai/v1",
			Model:     "llama-3.3-70b-versatile",
			Free:      true,
			SignupURL: "https://console.groq.com/keys",
			Cooldown:  60 * time.Second,
		},
		{
			ID:        "cerebras",
			Label:     "Llama 3.1 70B · Cerebras",
			KeyName:   "CEREBRAS_API_KEY",
			Kind:      KindOpenAI,
			BaseURL:   "https://api.cerebras.ai/v1",
			Model:     "llama3.1-70b",
			Free:      true,
			SignupURL: "https://inference.cerebras.ai/",
			Cooldown:  60 * time.Second,
		},
		{
			ID:        "sambanova",
			Label:     "Llama 3.3 70B · SambaNova",
			KeyName:   "SAMBANOVA_API_KEY",
			Kind:      KindOpenAI,
			BaseURL:   "https://api.sambanova.ai/v1",
			Model:     "Meta-Llama-3.3-70B-Instruct",
			Free:      true,
			SignupURL: "https://cloud.sambanova.ai/",
			Cooldown:  60 * time.Second,
		},
		{
			ID:        "openrouter",
			Label:     "Llama 3.3 70B · OpenRouter",
			KeyName:   "OPENROUTER_API_KEY",
			Kind:      KindOpenAI,
			BaseURL:   "https://openrouter.ai/api/v1",
			Model:     "meta-llama/llama-3.3-70b-instruct:free",
			Free:      true,
			SignupURL: "https://openrouter.ai/keys",
			Cooldown:  60 * time.Second,
		},
		{
			ID:        "zhipu",
			Label:     "GLM-4-Flash · Zhipu AI (z.ai)",
			KeyName:   "ZHIPU_API_KEY",
			Kind:      KindOpenAI,
			BaseURL:   "https://open.bigmodel.cn/api/paas/v4/",
			Model:     "glm-4-flash",
			Free:      true,
			SignupURL: "https://z.ai/",
			Cooldown:  60 * time.Second,
		},
	}
}

// Override adjusts a registry entry from configuration. Zero values keep the default.
type Override struct {
	Model    string        `mapstructure:"model"`
	BaseURL  string        `mapstructure:"base-url"`
	Cooldown time.Duration `mapstructure:"cooldown"`
	Disabled bool          `mapstructure:"disabled"`
}

// ApplyOverrides returns a copy of providers with overrides applied and disabled entries
// removed. Priority order is preserved.
func ApplyOverrides(providers []Provider, overrides map[string]Override) ([]Provider, error) {
	known := make(map[string]bool, len(providers))
	for _, p := range providers {
		known[p.ID] = true
	}
	for id := range overrides {
		if !known[id] {
			return nil, fmt.Errorf("override for unknown provider %q", id)
		}
	}

	result := make([]Provider, 0, len(providers))
	for _, p := range providers {
		o, ok := overrides[p.ID]
		if !ok {
			result = append(result, p)
			continue
		}
		if o.Disabled {
			continue
		}
		if m := strings.TrimSpace(o.Model); m != "" {
			p.Model = m
		}
		if u := strings.TrimSpace(o.BaseURL); u != "" {
			p.BaseURL = u
		}
		if o.Cooldown > 0 {
			p.Cooldown = o.Cooldown
		}
		result = append(result, p)
	}

	return result, nil
}

// Registry is the ordered, immutable provider list.
type Registry struct {
	providers []Provider
	index     map[string]int
}

func NewRegistry(providers []Provider) (*Registry, error) {
	if len(providers) == 0 {
		return nil, errors.New("at least one provider is required")
	}

	r := &Registry{
		providers: make([]Provider, 0, len(providers)),
		index:     make(map[string]int, len(providers)),
	}

	for _, p := range providers {
		if strings.TrimSpace(p.ID) == "" {
			return nil, errors.New("provider id must not be empty")
		}
		if _, dup := r.index[p.ID]; dup {
			return nil, fmt.Errorf("duplicate provider id %q", p.ID)
		}
		switch p.Kind {
		case KindAnthropic, KindGemini, KindOpenAI:
		default:
			return nil, fmt.Errorf("provider %q: unknown kind %q", p.ID, p.Kind)
		}
		r.index[p.ID] = len(r.providers)
		r.providers = append(r.providers, p)
	}

	return r, nil
}

// All returns the providers in priority order.
func (r *Registry) All() []Provider {
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

func (r *Registry) Lookup(id string) (Provider, bool) {
	idx, ok := r.index[id]
	if !ok {
		return Provider{}, false
	}
	return r.providers[idx], true
}

// KeyNames lists the distinct credential names in priority order.
func (r *Registry) KeyNames() []string {
	seen := make(map[string]bool)
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		if seen[p.KeyName] {
			continue
		}
		seen[p.KeyName] = true
		names = append(names, p.KeyName)
	}
	return names
}
