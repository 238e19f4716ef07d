package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/knowbot-ai/knowbot/internal/bot"
	"github.com/knowbot-ai/knowbot/internal/config"
	"github.com/knowbot-ai/knowbot/internal/logging"
	"github.com/knowbot-ai/knowbot/internal/provider"
	"github.com/knowbot-ai/knowbot/internal/search"
	"github.com/knowbot-ai/knowbot/internal/session"

	"github.com/rs/zerolog"
)

var (
	cfgFile      string
	modelFlag    string
	providerFlag string
	searchFlag   string
	decisionFlag string
	verbose      bool

	// Package-level version info, set by Execute().
	appVersion string
	appCommit  string
	appDate    string
)

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date

	rootCmd := &cobra.Command{
		Use:   "knowbot",
		Short: "Conversational assistant with web-search augmentation",
		Long:  "knowbot is a conversational assistant that answers questions through a hosted language model and augments time-sensitive questions with live web search.",
		// Running knowbot with no subcommand starts chat mode.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ~/.config/knowbot/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "override model")
	rootCmd.PersistentFlags().StringVarP(&providerFlag, "provider", "p", "", "override provider")
	rootCmd.PersistentFlags().StringVar(&searchFlag, "search", "", "override search backend (duckduckgo|tavily|brave)")
	rootCmd.PersistentFlags().StringVar(&decisionFlag, "decision", "", "search decision mode (auto|heuristic)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	// Subcommands
	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newVersionCmd(version, commit, date))
	rootCmd.AddCommand(newInitCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// displayVersion returns a formatted version string for the chat banner,
// e.g. "v0.1.0 (abc1234)".
func displayVersion() string {
	v := "v" + appVersion
	if appCommit != "" && appCommit != "none" {
		v += " (" + appCommit + ")"
	}
	return v
}

// initConfig loads configuration, applying CLI flag overrides.
func initConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// CLI flags override config values
	if providerFlag != "" {
		cfg.Provider = providerFlag
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	if searchFlag != "" {
		cfg.Web.SearchProvider = searchFlag
	}
	if decisionFlag != "" {
		cfg.Decision = decisionFlag
	}

	return cfg
}

func newLogger(cfg *config.Config) zerolog.Logger {
	return logging.New(cfg.LogLevel, verbose)
}

// providerBaseURLs references the canonical map in the config package.
var providerBaseURLs = config.KnownProviderBaseURLs

// buildProvider creates a Provider instance based on configuration.
func buildProvider(cfg *config.Config, log zerolog.Logger) (provider.Provider, error) {
	name := cfg.Provider
	pc := cfg.GetProviderConfig(name)

	apiKey := pc.APIKey
	if apiKey == "" {
		return nil, fmt.Errorf(
			"API key not configured for provider %q.\n"+
				"Set it via:\n"+
				"  - config file: providers.%s.api_key\n"+
				"  - environment: LLM_API_KEY\n"+
				"  - run: knowbot init",
			name, name,
		)
	}

	// Determine model: CLI flag > config file > provider defaults YAML
	model := cfg.Model
	if pc.Model != "" && model == "" {
		model = pc.Model
	}
	if model == "" {
		if m, ok := config.KnownProviderModels[name]; ok {
			model = m
		}
	}

	switch name {
	case "anthropic":
		return provider.NewAnthropicProvider(apiKey, model, log), nil
	default:
		// All other providers use OpenAI-compatible API
		baseURL := pc.BaseURL
		if baseURL == "" {
			if u, ok := providerBaseURLs[name]; ok {
				baseURL = u
			} else if name != "openai" {
				return nil, fmt.Errorf("unknown provider %q; set providers.%s.base_url in config", name, name)
			}
		}
		return provider.NewOpenAIProvider(apiKey, baseURL, model, log), nil
	}
}

// buildGateway creates the search gateway based on configuration.
func buildGateway(cfg *config.Config, log zerolog.Logger) (*search.Gateway, error) {
	var s search.Searcher
	switch cfg.Web.SearchProvider {
	case "", "duckduckgo":
		s = search.NewDuckDuckGo()
	case "tavily":
		if cfg.Web.SearchAPIKey == "" {
			return nil, fmt.Errorf("tavily requires web.search_api_key (or TAVILY_API_KEY)")
		}
		s = search.NewTavily(cfg.Web.SearchAPIKey)
	case "brave":
		if cfg.Web.SearchAPIKey == "" {
			return nil, fmt.Errorf("brave requires web.search_api_key (or BRAVE_API_KEY)")
		}
		s = search.NewBrave(cfg.Web.SearchAPIKey)
	default:
		return nil, fmt.Errorf("unknown search provider %q", cfg.Web.SearchProvider)
	}

	timeout := time.Duration(cfg.Web.TimeoutSec) * time.Second
	return search.NewGateway(s, timeout, cfg.Web.MaxResults, log), nil
}

// buildBot wires a full session from configuration.
func buildBot(cfg *config.Config, log zerolog.Logger) (*bot.Bot, error) {
	p, err := buildProvider(cfg, log)
	if err != nil {
		return nil, err
	}
	gw, err := buildGateway(cfg, log)
	if err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		cfg.Model = p.DefaultModel()
	}
	return bot.New(p, gw, session.NewStore(), bot.Options{
		Model:         cfg.Model,
		MaxTokens:     cfg.MaxTokens,
		ContextBudget: cfg.ContextBudget,
		Decision:      bot.DecisionMode(cfg.Decision),
		SystemPrompt:  cfg.SystemPrompt,
		Log:           log,
	}), nil
}
