package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kurihiro0119/orthopairs/internal/config"
)

var (
	cfgFile    string
	outputJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "orthopairs",
	Short: "Cross-species homology mapping files",
	Long: `A CLI tool for building orthopairs release files.

It reads PANTHER ortholog dumps, writes protein homolog and gene-protein
mapping files for every configured species, and resolves gene names through
the UniProt ID mapping service.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build the mapping files of a release",
	Long:  `Parse the ortholog dumps and write the three mapping files of every target species.`,
	Args:  cobra.NoArgs,
	RunE:  runRelease,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Compare a release with the previous one",
	Long: `Compare line counts and sizes of every mapping file with the previous release.
A drop at or above the configured threshold is an error.`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

var lookupCmd = &cobra.Command{
	Use:   "lookup [species] [homologs|genes|names] [id]",
	Short: "Query the read API",
	Long:  `Look up homologs of a source protein, proteins of a target gene, or the gene name of an accession.`,
	Args:  cobra.ExactArgs(3),
	RunE:  runLookup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "env file to load (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")

	runCmd.Flags().String("release", "", "release number (overrides RELEASE_NUMBER)")
	runCmd.Flags().String("source", "", "source species code (overrides SOURCE_SPECIES)")
	runCmd.Flags().String("output", "", "output directory (overrides OUTPUT_DIR)")

	verifyCmd.Flags().String("release", "", "release number (overrides RELEASE_NUMBER)")
	verifyCmd.Flags().String("previous", "", "local directory holding the previous release; downloaded from S3 when empty")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(lookupCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig loads the configuration and applies flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var files []string
	if cfgFile != "" {
		files = append(files, cfgFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if f := cmd.Flags().Lookup("release"); f != nil && f.Changed {
		cfg.ReleaseNumber = f.Value.String()
		if !flagChanged(cmd, "output") && os.Getenv("OUTPUT_DIR") == "" {
			cfg.OutputDir = cfg.ReleaseNumber
		}
	}
	if f := cmd.Flags().Lookup("source"); f != nil && f.Changed {
		cfg.SourceSpecies = f.Value.String()
	}
	if f := cmd.Flags().Lookup("output"); f != nil && f.Changed {
		cfg.OutputDir = f.Value.String()
	}
	return cfg, nil
}

func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}
