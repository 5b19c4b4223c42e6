// Package cmd provides the command-line interface for Sitelens.
// It handles flag parsing, configuration loading, and crawl execution.
package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sitelens/sitelens/internal/config"
	"github.com/sitelens/sitelens/internal/crawler"
	"github.com/sitelens/sitelens/internal/logging"
	"github.com/sitelens/sitelens/internal/report"
)

var (
	cfgFile   string
	version   string
	buildTime string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sitelens URL",
	Short: "An SEO site-audit crawler",
	Long: `Sitelens crawls a website within a page budget and extracts the
structured page data an SEO audit needs: titles, meta tags, headings,
body text, links, images, schema.org blocks, and security signals.

The crawl result is written as JSON for downstream scoring.`,
	Args: cobra.ExactArgs(1),
	RunE: runCrawl,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets version information for the CLI.
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./sitelens.yml)")

	rootCmd.Flags().Bool("show-config", false, "Display current configuration in YAML format and exit")

	rootCmd.Flags().IntP("budget", "b", 50, "Maximum pages per site crawl, homepage included")
	rootCmd.Flags().IntP("concurrency", "c", 5, "Maximum fetches in flight")
	rootCmd.Flags().DurationP("delay", "r", 500*time.Millisecond, "Politeness delay between requests to the same host")
	rootCmd.Flags().DurationP("timeout", "t", 45*time.Second, "HTTP request timeout")
	rootCmd.Flags().StringP("user-agent", "u", "", "HTTP User-Agent header")
	rootCmd.Flags().Int("max-links", 5, "Maximum new links harvested per page")
	rootCmd.Flags().Int("sample", 5, "Internal links probed for breakage per page")
	rootCmd.Flags().Bool("strict-tls", false, "Reject invalid TLS certificates instead of auditing through them")
	rootCmd.Flags().BoolP("page", "p", false, "Audit the single URL only, without a site traversal")
	rootCmd.Flags().StringP("output", "o", "", "Write the JSON report to this file instead of stdout")
	rootCmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.Flags().String("log-file", "", "Also write logs to this file (with rotation)")

	bindFlags := []struct {
		viperKey string
		flagName string
	}{
		{"page_budget", "budget"},
		{"concurrency", "concurrency"},
		{"request_delay", "delay"},
		{"request_timeout", "timeout"},
		{"user_agent", "user-agent"},
		{"max_links_per_page", "max-links"},
		{"link_sample_size", "sample"},
	}
	for _, bind := range bindFlags {
		if err := viper.BindPFlag(bind.viperKey, rootCmd.Flags().Lookup(bind.flagName)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("sitelens")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func generateUserAgent() string {
	if version != "" && version != "dev" {
		return fmt.Sprintf("Sitelens/%s (+https://github.com/sitelens/sitelens)", version)
	}
	return "Sitelens/dev (+https://github.com/sitelens/sitelens)"
}

func showCurrentConfig(cfg *config.CrawlConfig) error {
	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	fmt.Printf("# Current Sitelens configuration\n")
	fmt.Printf("# Config file search path: ./sitelens.yml\n")
	fmt.Printf("# Environment variable prefix: SL_\n\n")
	fmt.Print(string(yamlData))
	return nil
}

func runCrawl(cmd *cobra.Command, args []string) error {
	logLevel, _ := cmd.Flags().GetString("log-level")
	logFile, _ := cmd.Flags().GetString("log-file")
	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(logLevel)
	logCfg.FilePath = logFile
	if err := logging.SetDefault(logCfg); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}

	cfg := config.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if strictTLS, _ := cmd.Flags().GetBool("strict-tls"); strictTLS {
		cfg.InsecureTLS = false
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = generateUserAgent()
	}

	if showConfig, _ := cmd.Flags().GetBool("show-config"); showConfig {
		return showCurrentConfig(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	engine, err := crawler.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize crawl engine: %w", err)
	}

	out := os.Stdout
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path) // #nosec G304 - path comes from the CLI user
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	if singlePage, _ := cmd.Flags().GetBool("page"); singlePage {
		page := engine.CrawlPage(cmd.Context(), args[0])
		return report.WritePageJSON(out, page)
	}

	result, err := engine.CrawlSite(cmd.Context(), args[0], cfg.PageBudget)
	if err != nil {
		// Context cancellation still leaves a partial result worth writing.
		if result != nil {
			_ = report.WriteJSON(out, result)
		}
		return err
	}
	return report.WriteJSON(out, result)
}
