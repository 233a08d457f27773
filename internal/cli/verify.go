package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/veridex/veridex/internal/model"
	"github.com/veridex/veridex/internal/pipeline"
)

var (
	outJSON       string
	outMD         string
	timeout       time.Duration
	minSources    int
	noCache       bool
	noFooter      bool
	noSummary     bool
	validateLinks bool
	tierFile      string
	nliProvider   string
	nliModel      string
	embedModel    string
	httpProxy     string
	httpsProxy    string
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <claims.json>",
	Short: "Verify claims in a file against their evidence",
	Long: `Verify runs the full pipeline over each claim in the input file:
- Resolve source credibility from the domain tier table
- Gate evidence on semantic relevance to the claim
- Classify each relevant item's stance (supports/contradicts/neutral)
- Aggregate a credibility-weighted consensus
- Decide a verdict, or abstain with an explicit reason

Example:
  veridex verify claims.json
  veridex verify claims.json --json report.json --md report.md
  veridex verify claims.json --nli openai --model gpt-4o-mini
  veridex verify claims.json --min-sources 2 --validate-links`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	// Output flags
	verifyCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	verifyCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	verifyCmd.Flags().BoolVar(&noSummary, "no-summary", false, "suppress the stdout verdict summary")
	verifyCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Pipeline flags
	verifyCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall verification timeout")
	verifyCmd.Flags().IntVar(&minSources, "min-sources", 0, "override minimum sources for a verdict (0 = configured default)")
	verifyCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caches (force fresh classification)")
	verifyCmd.Flags().BoolVar(&validateLinks, "validate-links", false, "probe evidence URLs for dead or stale links")
	verifyCmd.Flags().StringVar(&tierFile, "tiers", "", "custom tier table YAML (default: built-in table)")
	verifyCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	verifyCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	// NLI provider flags
	verifyCmd.Flags().StringVar(&nliProvider, "nli", "", "stance/similarity provider (openai, ollama); empty runs degraded")
	verifyCmd.Flags().StringVar(&nliModel, "model", "", "stance model name")
	verifyCmd.Flags().StringVar(&embedModel, "embedding-model", "", "embedding model for relevance gating")
}

func runVerify(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	inputs, err := pipeline.LoadClaimsFile(path)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Verifying: %s (%d claims)\n", path, len(inputs))
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", timeout)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", !noCache)
		if cfg.NLI.Provider == "" {
			fmt.Fprintln(os.Stderr, "No NLI provider configured: relevance gating fails open, stances degrade")
		}
		fmt.Fprintln(os.Stderr)
	}

	engine, err := pipeline.NewEngine(cfg)
	if err != nil {
		return err
	}

	report := engine.VerifyAll(ctx, inputs, pipeline.VerifyOptions{MinSources: minSources})
	report.Source = path

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	if outJSON != "" {
		if err := renderer.RenderJSON(report, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(report, outMD); err != nil {
			return fmt.Errorf("render Markdown: %w", err)
		}
	}
	if !noSummary {
		renderer.RenderSummary(report)
	}

	return nil
}

// buildConfig assembles the engine configuration from defaults, the tier
// file, and CLI flags.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = !noCache
	cfg.Validation.Enabled = validateLinks
	cfg.Proxy.HTTPProxy = httpProxy
	cfg.Proxy.HTTPSProxy = httpsProxy
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter

	if tierFile != "" {
		table, err := loadTierTable(tierFile)
		if err != nil {
			return nil, err
		}
		cfg.TierTable = table
	}

	if nliProvider != "" {
		cfg.NLI.Provider = nliProvider
		if nliModel != "" {
			cfg.NLI.Model = nliModel
		}
		if embedModel != "" {
			cfg.NLI.EmbeddingModel = embedModel
		}

		switch nliProvider {
		case "openai":
			cfg.NLI.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.NLI.APIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "ollama":
			// Ollama doesn't need an API key
			if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
				cfg.NLI.BaseURL = baseURL
			}
		}
	}

	return cfg, nil
}

// loadTierTable reads a tier table from a YAML file and validates it
func loadTierTable(path string) (model.TierTable, error) {
	var table model.TierTable

	data, err := os.ReadFile(path)
	if err != nil {
		return table, fmt.Errorf("read tier table: %w", err)
	}
	if err := yaml.Unmarshal(data, &table); err != nil {
		return table, fmt.Errorf("parse tier table %s: %w", path, err)
	}
	if err := table.Validate(); err != nil {
		return table, fmt.Errorf("tier table %s: %w", path, err)
	}
	return table, nil
}
