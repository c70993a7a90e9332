package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/evaluator"
	"github.com/spigell/interviewer/internal/jobconfig"
	"github.com/spigell/interviewer/internal/judge"
	"github.com/spigell/interviewer/internal/judge/gemini"
	"github.com/spigell/interviewer/internal/logger"
	"github.com/spigell/interviewer/internal/metrics"
	"github.com/spigell/interviewer/internal/report"
	"github.com/spigell/interviewer/internal/secrets"
	"github.com/spigell/interviewer/internal/session"
)

const (
	app = "interviewer"

	evaluatorKeyword = "keyword"
	evaluatorJudge   = "judge"
)

type Config struct {
	JobConfig string          `mapstructure:"job-config"`
	Evaluator string          `mapstructure:"evaluator"`
	Judge     *JudgeConfig    `mapstructure:"judge"`
	Sessions  *SessionsConfig `mapstructure:"sessions"`
	HTTP      *HTTPConfig     `mapstructure:"http"`
}

type JudgeConfig struct {
	Provider string        `mapstructure:"provider"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type SessionsConfig struct {
	Max         int           `mapstructure:"max"`
	IdleTimeout time.Duration `mapstructure:"idle-timeout"`
}

type HTTPConfig struct {
	Listen string `mapstructure:"listen"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "interviewer drives structured multi-turn job interviews with bounded follow-up probes",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	if err := viper.BindEnv("judge.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interviewer.yaml in current directory)")
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
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

// buildEngine assembles the evaluator, reporter and session manager from the
// application config.
func buildEngine(ctx context.Context, config *Config, logger *zap.Logger) (*session.Manager, *jobconfig.JobConfig, error) {
	if config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}
	if strings.TrimSpace(config.JobConfig) == "" {
		return nil, nil, fmt.Errorf("job-config path is required")
	}

	job, err := jobconfig.Load(config.JobConfig)
	if err != nil {
		return nil, nil, err
	}

	var (
		eval evaluator.Evaluator
		jdg  judge.Judge
	)

	switch strings.TrimSpace(strings.ToLower(config.Evaluator)) {
	case "", evaluatorKeyword:
		eval = evaluator.NewKeyword()
	case evaluatorJudge:
		jdg, err = newJudge(ctx, config.Judge, logger)
		if err != nil {
			return nil, nil, err
		}
		eval = evaluator.NewSemantic(jdg, judgeTimeout(config.Judge))
	default:
		return nil, nil, fmt.Errorf("unsupported evaluator: %s", config.Evaluator)
	}

	reporter := report.New(jdg, &report.TextFormatter{}, judgeTimeout(config.Judge), logger)

	sessionCfg := session.Config{}
	if config.Sessions != nil {
		sessionCfg.MaxSessions = config.Sessions.Max
		sessionCfg.IdleTimeout = config.Sessions.IdleTimeout
	}

	manager := session.NewManager(sessionCfg, eval, reporter, metrics.New(nil), logger)

	return manager, job, nil
}

func newJudge(ctx context.Context, cfg *JudgeConfig, log *zap.Logger) (judge.Judge, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required when the judge evaluator is enabled")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported judge provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set judge.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	genLogger := logger.WithCommonFields(log, "gemini", cfg.Gemini.Model)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewJudge(generator, genLogger, cfg.Gemini.MaxLogLength), nil
}

func judgeTimeout(cfg *JudgeConfig) time.Duration {
	if cfg == nil || cfg.Timeout <= 0 {
		return 30 * time.Second
	}
	return cfg.Timeout
}
