package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/thywilljoshua/pdf-to-gamebook/internal/ai"
	"github.com/thywilljoshua/pdf-to-gamebook/internal/config"
	"github.com/thywilljoshua/pdf-to-gamebook/internal/convert"
	"github.com/thywilljoshua/pdf-to-gamebook/internal/logging"
	"github.com/thywilljoshua/pdf-to-gamebook/internal/pdfsource"
)

// flagPaths maps CLI flags to configuration keys. Only flags the user set override the
// environment.
var flagPaths = map[string]string{
	"out":         "out_dir",
	"text-engine": "text_engine",
	"parallel":    "parallel",
	"log-level":   "log.level",
	"log-format":  "log.format",
	"classifier":  "classifier.provider",
	"model":       "classifier.model",
}

// summary is the JSON line printed for each input.
type summary struct {
	Pdf      string           `json:"pdf"`
	PdfName  string           `json:"pdf_name"`
	Output   string           `json:"output"`
	Status   convert.Status   `json:"status"`
	Sections int              `json:"sections"`
	Chapters int              `json:"chapters"`
	Images   int              `json:"images"`
	Progress convert.Progress `json:"progress"`
	Error    string           `json:"error,omitempty"`
}

func convertCmd() *cobra.Command {
	defaults := config.Default()
	var (
		out        string
		textEngine string
		parallel   int
		logLevel   string
		logFormat  string
		classifier string
		model      string
	)

	cmd := &cobra.Command{
		Use:   "convert <pdf>...",
		Short: "Split gamebook PDFs into chapters, numbered sections, images and metadata",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := make(map[string]any)
			for flag, path := range flagPaths {
				f := cmd.Flags().Lookup(flag)
				if f != nil && f.Changed {
					overrides[path] = f.Value.String()
				}
			}
			cfg, err := config.Load(overrides)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			cls, err := newClassifier(cmd.Context(), cfg.Classifier, log)
			if err != nil {
				return err
			}
			return convertAll(cmd.Context(), cmd.OutOrStdout(), args, cfg, cls, log)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", defaults.OutDir, "base output directory; each PDF writes to <out>/<pdf_name>/")
	cmd.Flags().StringVar(&textEngine, "text-engine", defaults.TextEngine, "text extraction engine: rows|glyphs")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", defaults.Parallel, "number of PDFs converted at once")
	cmd.Flags().StringVar(&logLevel, "log-level", defaults.Log.Level, "log level: debug|info|warn|error")
	cmd.Flags().StringVar(&logFormat, "log-format", defaults.Log.Format, "log format: console|json")
	cmd.Flags().StringVar(&classifier, "classifier", defaults.Classifier.Provider, "chapter classifier: off|gemini|ollama")
	cmd.Flags().StringVar(&model, "model", "", "classifier model (default depends on the classifier)")
	return cmd
}

// newClassifier returns nil when classification is off, so the converter falls back to its
// heading rule.
func newClassifier(ctx context.Context, cfg config.Classifier, log *zap.Logger) (ai.ChapterClassifier, error) {
	var (
		c   ai.ChapterClassifier
		err error
	)
	switch cfg.Provider {
	case config.ClassifierGemini:
		c, err = ai.NewGemini(ctx, cfg.APIKey, cfg.Model)
	case config.ClassifierOllama:
		c, err = ai.NewOllama(cfg.Model)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s classifier: %w", cfg.Provider, err)
	}
	policy := ai.RetryPolicy{Attempts: cfg.Attempts, MinBackoff: cfg.BackoffMin, MaxBackoff: cfg.BackoffMax}
	return ai.WithRetry(c, policy, log.With(zap.String("classifier", cfg.Provider))), nil
}

// convertAll runs one conversion per input, at most cfg.Parallel at a time, and prints the
// summaries in argument order. Inputs that would share an output directory are refused.
func convertAll(ctx context.Context, w io.Writer, paths []string, cfg *config.Config, cls ai.ChapterClassifier, log *zap.Logger) error {
	open := pdfsource.Opener(pdfsource.Options{TextEngine: pdfsource.Engine(cfg.TextEngine), Logger: log})
	results := make([]summary, len(paths))

	claimed := make(map[string]string)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Parallel)

	for i, path := range paths {
		name := convert.PdfName(path)
		if first, dup := claimed[name]; dup {
			results[i] = summary{
				Pdf:     path,
				PdfName: name,
				Status:  convert.StatusFailed,
				Error:   fmt.Sprintf("output directory %q already used by %s", name, first),
			}
			continue
		}
		claimed[name] = path

		g.Go(func() error {
			results[i] = convertOne(gctx, path, cfg, open, cls, log)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	for _, s := range results {
		if s.Status != convert.StatusCompleted {
			failed++
		}
		if err := enc.Encode(s); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", failed, len(paths))
	}
	return nil
}

func convertOne(ctx context.Context, path string, cfg *config.Config, open convert.Opener, cls ai.ChapterClassifier, log *zap.Logger) summary {
	var last convert.Status
	res, err := convert.Run(ctx, path, convert.Config{
		OutDir:     cfg.OutDir,
		Open:       open,
		Classifier: cls,
		Logger:     log,
		OnProgress: func(p convert.Progress) {
			if p.Status != last {
				last = p.Status
				log.Debug("progress", zap.String("pdf", path), zap.String("status", string(p.Status)))
			}
		},
	})

	s := summary{
		Pdf:      path,
		PdfName:  res.PdfName,
		Output:   filepath.Join(res.BasePath, res.PdfName),
		Status:   res.Progress.Status,
		Sections: len(res.NumberedSections()),
		Chapters: len(res.Chapters()),
		Images:   len(res.Images),
		Progress: res.Progress,
	}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}
