package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/fmuoria/ats-resume-checker/internal/agent"
	"github.com/fmuoria/ats-resume-checker/internal/api"
	"github.com/fmuoria/ats-resume-checker/internal/config"
	"github.com/fmuoria/ats-resume-checker/internal/export"
	"github.com/fmuoria/ats-resume-checker/internal/extractor"
	"github.com/fmuoria/ats-resume-checker/internal/ingestion"
	"github.com/fmuoria/ats-resume-checker/internal/llm"
	"github.com/fmuoria/ats-resume-checker/internal/logging"
	"github.com/fmuoria/ats-resume-checker/internal/models"
	"github.com/fmuoria/ats-resume-checker/internal/scoring"
)

const shutdownTimeout = 10 * time.Second

type options struct {
	configPath   string
	port         int
	reviewDir    string
	level        string
	jdFile       string
	exportPath   string
	gmailSubject string
	initConfig   bool
	logLevel     string
	prettyLogs   bool
}

func parseFlags() options {
	var o options
	pflag.StringVarP(&o.configPath, "config", "c", "", "Path to config file (default: user config dir)")
	pflag.IntVarP(&o.port, "port", "p", 0, "HTTP port to listen on (overrides config)")
	pflag.StringVar(&o.reviewDir, "review-dir", "", "Directory of resumes for batch review (overrides uploads_dir)")
	pflag.StringVarP(&o.level, "level", "l", "", "Run a batch review at this level (entry, mid, senior) instead of serving HTTP")
	pflag.StringVar(&o.jdFile, "jd-file", "", "File containing the job description for batch review")
	pflag.StringVarP(&o.exportPath, "export", "o", "", "Write the batch review to this Excel file")
	pflag.StringVar(&o.gmailSubject, "gmail-subject", "", "Fetch resumes from Gmail messages with this subject before a batch review")
	pflag.BoolVar(&o.initConfig, "init-config", false, "Write a default config file and exit")
	pflag.StringVar(&o.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pflag.BoolVar(&o.prettyLogs, "pretty-logs", false, "Human-readable console logs instead of JSON")
	pflag.Parse()
	return o
}

func main() {
	opts := parseFlags()
	logging.Setup(opts.logLevel, opts.prettyLogs)

	if opts.initConfig {
		if err := writeDefaultConfig(opts.configPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to write config")
		}
		return
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if opts.logLevel == "" {
		logging.Setup(cfg.LogLevel, opts.prettyLogs)
	}
	if opts.port != 0 {
		cfg.Port = opts.port
	}
	if opts.reviewDir != "" {
		cfg.UploadsDir = opts.reviewDir
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}
	cfg.ApplyToEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	atsAgent, closeClient, err := buildAgent(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize analyzer")
	}
	defer closeClient()

	if opts.level != "" {
		err = runBatch(ctx, cfg, atsAgent, opts)
	} else {
		err = serve(ctx, cfg, atsAgent)
	}
	if err != nil {
		log.Error().Err(err).Msg("Exiting")
		closeClient()
		os.Exit(1)
	}
}

func writeDefaultConfig(path string) error {
	cfg := config.DefaultConfig()
	if path == "" {
		if err := cfg.Save(); err != nil {
			return err
		}
		path, _ = config.GetConfigPath()
	} else if err := cfg.SaveTo(path); err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("Wrote default config")
	return nil
}

// buildAgent wires the vocabulary, the model client and the analyzer. A
// missing model configuration disables AI scoring rather than failing.
func buildAgent(ctx context.Context, cfg *config.Config) (*agent.ATSAgent, func(), error) {
	vocab := extractor.DefaultVocabulary()
	if cfg.VocabularyPath != "" {
		var err error
		if vocab, err = extractor.LoadVocabulary(cfg.VocabularyPath); err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", cfg.VocabularyPath).Int("skills", len(vocab.Skills)).Msg("Loaded vocabulary")
	}

	closeClient := func() {}
	client, err := llm.New(ctx, cfg.LLMOptions())
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		log.Warn().Msg("No Gemini API key or Cloud project configured, AI scoring disabled")
		client = nil
	case err != nil:
		log.Warn().Err(err).Msg("Failed to create model client, AI scoring disabled")
		client = nil
	default:
		log.Info().Str("model", cfg.Model).Msg("AI scoring enabled")
		closeClient = func() {
			if err := client.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close model client")
			}
		}
	}

	aiScorer := scoring.NewAIScorer(client,
		scoring.WithMaxChars(cfg.AIMaxChars),
		scoring.WithTimeout(cfg.AITimeout()),
		scoring.WithTotalTimeout(cfg.AITotalTimeout()),
		scoring.WithRetries(cfg.AIMaxRetries, scoring.RetryBackoff),
	)

	a := agent.NewATSAgent(vocab, aiScorer,
		agent.WithReviewDir(cfg.UploadsDir),
		agent.WithRequestDelay(cfg.RequestDelay()),
	)
	return a, closeClient, nil
}

// gmailFetcher connects to Gmail when credentials are configured
func gmailFetcher(ctx context.Context, cfg *config.Config) (*ingestion.GmailHandler, error) {
	if cfg.GmailCredentialsPath == "" {
		return nil, nil
	}
	return ingestion.NewGmailHandler(ctx, cfg.GmailCredentialsPath, cfg.GmailTokenPath, cfg.UploadsDir)
}

func serve(ctx context.Context, cfg *config.Config, a *agent.ATSAgent) error {
	var fetcher agent.ResumeFetcher
	gh, err := gmailFetcher(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Gmail unavailable, review by upload only")
	} else if gh != nil {
		fetcher = gh
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           api.NewServer(a, fetcher).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Msg("Starting ATS Resume Checker")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runBatch(ctx context.Context, cfg *config.Config, a *agent.ATSAgent, opts options) error {
	level, err := models.ParseLevel(opts.level)
	if err != nil {
		return err
	}

	var jd string
	if opts.jdFile != "" {
		data, err := os.ReadFile(opts.jdFile)
		if err != nil {
			return fmt.Errorf("failed to read job description: %w", err)
		}
		jd = string(data)
	}

	a.SetProgressCallback(func(current, total int, message string) {
		log.Info().Int("progress", current).Int("total", total).Msg(message)
	})

	var report models.ReportResponse
	if opts.gmailSubject != "" {
		gh, err := gmailFetcher(ctx, cfg)
		if err != nil {
			return err
		}
		if gh == nil {
			return fmt.Errorf("gmail_credentials_path is required to fetch from Gmail")
		}
		gh.SetProgressCallback(func(current, total int, message string) {
			log.Debug().Int("progress", current).Int("total", total).Msg(message)
		})
		report, err = a.ReviewFromSource(ctx, gh, opts.gmailSubject, level, jd)
		if err != nil {
			return err
		}
	} else {
		if report, err = a.ReviewDirectory(ctx, level, jd); err != nil {
			return err
		}
	}

	for _, r := range report.Resumes {
		resp := r.Response
		log.Info().
			Int("rank", r.Rank).
			Str("name", r.Name).
			Int("ats_score", resp.ATSScore.Score).
			Int("ai_score", resp.AIScore).
			Bool("consistent", resp.Comparison.IsConsistent).
			Msg("Ranked resume")
	}

	if opts.exportPath != "" {
		if err := export.ExportToExcel(report, opts.exportPath); err != nil {
			return err
		}
		log.Info().Str("path", export.OutputPath(opts.exportPath)).Msg("Exported report")
	}
	return nil
}
