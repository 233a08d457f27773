package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/veridex/veridex/internal/model"
	"github.com/veridex/veridex/internal/pipeline"
	"github.com/veridex/veridex/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <list.txt>",
	Short: "Verify multiple claims files in parallel",
	Long: `Batch verifies many claims files concurrently:
- Read claims-file paths from the list file (one per line)
- Verify files in parallel with a configurable worker count
- Each file's claims are verified concurrently inside the file run
- Generate one JSON and one Markdown report per input file

Example:
  veridex batch files.txt
  veridex batch files.txt --concurrency 8 --output-dir ./reports
  veridex batch files.txt --nli openai --validate-links`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent file workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./veridex-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 15*time.Minute, "total timeout for batch processing")

	batchCmd.Flags().IntVar(&minSources, "min-sources", 0, "override minimum sources for a verdict (0 = configured default)")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caches (force fresh classification)")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	batchCmd.Flags().BoolVar(&validateLinks, "validate-links", false, "probe evidence URLs for dead or stale links")
	batchCmd.Flags().StringVar(&tierFile, "tiers", "", "custom tier table YAML (default: built-in table)")
	batchCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	batchCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	batchCmd.Flags().StringVar(&nliProvider, "nli", "", "stance/similarity provider (openai, ollama); empty runs degraded")
	batchCmd.Flags().StringVar(&nliModel, "model", "", "stance model name")
	batchCmd.Flags().StringVar(&embedModel, "embedding-model", "", "embedding model for relevance gating")
}

// fileRunner adapts the pipeline engine to the worker.Runner interface
type fileRunner struct {
	engine     *pipeline.Engine
	minSources int
}

func (r *fileRunner) VerifyFile(ctx context.Context, path string) (*model.Report, error) {
	inputs, err := pipeline.LoadClaimsFile(path)
	if err != nil {
		return nil, err
	}
	report := r.engine.VerifyAll(ctx, inputs, pipeline.VerifyOptions{MinSources: r.minSources})
	report.Source = path
	return report, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	listFile := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Veridex Batch Verification\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input list:   %s\n", listFile)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	if cfg.NLI.Provider != "" {
		fmt.Fprintf(os.Stderr, "  NLI:          %s/%s\n\n", cfg.NLI.Provider, cfg.NLI.Model)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	engine, err := pipeline.NewEngine(cfg)
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(&fileRunner{engine: engine, minSources: minSources}, concurrency)

	fmt.Fprintf(os.Stderr, "⚙️  Reading claims files from list...\n")
	results, err := processor.ProcessList(ctx, listFile)
	if err != nil {
		return fmt.Errorf("process list: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Loaded %d claims files\n", len(results))
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "⚙️  Verifying with %d workers...\n", concurrency)
	fmt.Fprintf(os.Stderr, "\n")

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		successCount++

		slug := reportSlug(result.Path)
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Path, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Report, mdPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Path, err)
			continue
		}

		fmt.Fprintf(os.Stderr, "✓ %s (%d claims)\n", result.Path, len(result.Report.Results))
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d files\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// reportSlug derives an output filename stem from a claims-file path
func reportSlug(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "-",
	)
	base = replacer.Replace(base)

	if len(base) > 100 {
		base = base[:100]
	}
	if base == "" {
		base = "report"
	}
	return base
}
