// cmd/readiness/score.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"readiness-scorer/internal/benchmarks"
	"readiness-scorer/internal/bootstrap"
	"readiness-scorer/internal/common/config"
	"readiness-scorer/internal/common/logger"
	"readiness-scorer/internal/readiness"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one request or a JSON array of requests",
	Long: `Reads a scoring request ({"subjectId", "subjectReference", "input"}) or an array of
them and prints the resulting readiness scores as JSON.`,
	RunE: runScoreCmd,
}

type scoreOptions struct {
	InputFile        string
	OutputFile       string
	RulesPath        string
	BenchmarkPath    string
	InferenceMode    string
	InferenceURL     string
	InferenceTimeout time.Duration
	Strict           bool
	Format           string
	LogLevel         string
}

var scoreOpts scoreOptions

func init() {
	f := scoreCmd.Flags()
	f.StringVarP(&scoreOpts.InputFile, "in", "i", "-", "Request JSON file, - for stdin")
	f.StringVarP(&scoreOpts.OutputFile, "out", "o", "", "Output file (default stdout)")
	f.StringVar(&scoreOpts.RulesPath, "rules", "", "Rules YAML (default built-in rules)")
	f.StringVar(&scoreOpts.BenchmarkPath, "benchmarks", "", "Benchmark table YAML (default embedded table)")
	f.StringVar(&scoreOpts.InferenceMode, "inference", config.InferenceModeNone, "Website signals: none, probe or http")
	f.StringVar(&scoreOpts.InferenceURL, "inference-url", "", "Analysis service base URL for --inference=http")
	f.DurationVar(&scoreOpts.InferenceTimeout, "inference-timeout", 5*time.Second, "Upper bound on website analysis")
	f.BoolVar(&scoreOpts.Strict, "strict", false, "Reject partial submissions instead of defaulting")
	f.StringVar(&scoreOpts.Format, "format", "json", "Output format: json or text")
	f.StringVar(&scoreOpts.LogLevel, "log-level", "warn", "Log level written to stderr")

	rootCmd.AddCommand(scoreCmd)
}

func runScoreCmd(cmd *cobra.Command, _ []string) error {
	in := cmd.InOrStdin()
	if scoreOpts.InputFile != "-" {
		f, err := os.Open(scoreOpts.InputFile)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	out := cmd.OutOrStdout()
	if scoreOpts.OutputFile != "" {
		f, err := os.Create(scoreOpts.OutputFile)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	log := logger.NewStructured(scoreOpts.LogLevel, "console", "stderr")
	return runScore(cmd.Context(), scoreOpts, in, out, log)
}

// runScore builds a scorer from opts and scores every request read from in.
func runScore(ctx context.Context, opts scoreOptions, in io.Reader, out io.Writer, log logger.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	reqs, single, err := readRequests(in)
	if err != nil {
		return err
	}

	scorer, err := newCLIScorer(opts, log)
	if err != nil {
		return err
	}

	results := scorer.ScoreBatch(ctx, reqs)
	if opts.Format == "text" {
		return writeText(out, results)
	}
	return writeJSON(out, results, single)
}

func newCLIScorer(opts scoreOptions, log logger.Logger) (*readiness.Scorer, error) {
	switch opts.InferenceMode {
	case config.InferenceModeNone, config.InferenceModeProbe:
	case config.InferenceModeHTTP:
		if opts.InferenceURL == "" {
			return nil, fmt.Errorf("--inference-url is required with --inference=http")
		}
	default:
		return nil, fmt.Errorf("unknown inference mode %q", opts.InferenceMode)
	}

	scoring := config.ScoringConfig{
		RulesPath:        opts.RulesPath,
		InferenceTimeout: int(opts.InferenceTimeout.Milliseconds()),
	}
	if opts.Strict {
		allowPartial := false
		scoring.AllowPartial = &allowPartial
	}
	rules, err := bootstrap.Rules(scoring)
	if err != nil {
		return nil, err
	}

	table := benchmarks.Default()
	if opts.BenchmarkPath != "" {
		table, err = benchmarks.LoadFile(opts.BenchmarkPath)
		if err != nil {
			return nil, err
		}
	}

	analyzer := bootstrap.Analyzer(config.InferenceConfig{
		Mode:      opts.InferenceMode,
		BaseURL:   opts.InferenceURL,
		Timeout:   int(opts.InferenceTimeout.Milliseconds()),
		UserAgent: "readiness-cli/1.0",
	}, nil, log)

	return readiness.NewScorer(rules, readiness.StaticTable(table), analyzer, log)
}

// readRequests accepts a single request object or an array of them.
func readRequests(in io.Reader) ([]readiness.Request, bool, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, false, fmt.Errorf("read input: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, false, fmt.Errorf("no scoring request on input")
	}

	if data[0] == '[' {
		var reqs []readiness.Request
		if err := json.Unmarshal(data, &reqs); err != nil {
			return nil, false, fmt.Errorf("parse requests: %w", err)
		}
		return reqs, false, nil
	}

	var req readiness.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, false, fmt.Errorf("parse request: %w", err)
	}
	return []readiness.Request{req}, true, nil
}

type resultJSON struct {
	SubjectID string                    `json:"subjectId,omitempty"`
	Score     *readiness.ReadinessScore `json:"score,omitempty"`
	Error     string                    `json:"error,omitempty"`
}

func writeJSON(out io.Writer, results []readiness.BatchResult, single bool) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if single {
		if results[0].Err != nil {
			return results[0].Err
		}
		return enc.Encode(results[0].Score)
	}

	rows := make([]resultJSON, len(results))
	for i, r := range results {
		rows[i] = resultJSON{SubjectID: r.SubjectID, Score: r.Score}
		if r.Err != nil {
			rows[i].Error = r.Err.Error()
		}
	}
	return enc.Encode(rows)
}

func writeText(out io.Writer, results []readiness.BatchResult) error {
	failed := 0
	for _, r := range results {
		name := r.SubjectID
		if name == "" {
			name = "-"
		}
		if r.Err != nil {
			failed++
			fmt.Fprintf(out, "%s\terror: %v\n", name, r.Err)
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", name, r.Score.Summary())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(results))
	}
	return nil
}
