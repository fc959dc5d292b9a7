package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/snonux/beamtrans/internal"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "beamtrans [sentence...]",
		Short: "Word-by-word beam search translator",
		Long: `beamtrans translates sentences word by word using a beam search
over a probability lexicon and prints the ranked translations.

Examples:
  beamtrans                          # Interactive mode (keyboard or input.txt)
  beamtrans good morning my friend   # Translate a sentence
  beamtrans --batch input.txt        # Translate every line of a file
  beamtrans -w 1 --trace i am fine   # Greedy decoding, show every step`,
		Args:    cobra.ArbitraryArgs,
		Version: internal.Version,
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	return rootCmd
}

// CreateLexiconCommand creates the "lexicon" command group. The returned
// subcommands have no run functions; the caller wires them.
func CreateLexiconCommand() (group, list, importCmd, export, add *cobra.Command) {
	group = &cobra.Command{
		Use:   "lexicon",
		Short: "Inspect and maintain lexicon files",
	}

	list = &cobra.Command{
		Use:   "list [word...]",
		Short: "Print lexicon entries (all entries without arguments)",
		Args:  cobra.ArbitraryArgs,
	}

	importCmd = &cobra.Command{
		Use:   "import SRC DST",
		Short: "Copy the lexicon SRC into DST (YAML or SQLite), backing up DST first",
		Args:  cobra.ExactArgs(2),
	}

	export = &cobra.Command{
		Use:   "export DST",
		Short: "Write the active lexicon to DST (YAML or SQLite)",
		Args:  cobra.ExactArgs(1),
	}

	add = &cobra.Command{
		Use:   "add WORD TARGET:PROB [TARGET:PROB...]",
		Short: "Add or replace an entry in a SQLite lexicon",
		Args:  cobra.MinimumNArgs(2),
	}

	group.AddCommand(list, importCmd, export, add)
	return group, list, importCmd, export, add
}

// CreateSuggestCommand creates the "suggest" command
func CreateSuggestCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest WORD...",
		Short: "Ask a language model for candidate translations and store them",
		Long: `suggest asks OpenAI or Gemini for weighted translations of each word
and stores the validated candidates in the SQLite lexicon.

The API key is read from OPENAI_API_KEY / GEMINI_API_KEY or from
suggest.openai_key / suggest.gemini_key in the config file.`,
		Args: cobra.MinimumNArgs(1),
	}

	cmd.Flags().StringVar(&flags.Provider, "provider", flags.Provider, "Suggestion provider: openai or gemini")
	cmd.Flags().StringVar(&flags.Model, "model", flags.Model, "Model name (default depends on provider)")
	cmd.Flags().StringVar(&flags.SourceLanguage, "source-lang", flags.SourceLanguage, "Source language of the words")
	cmd.Flags().StringVar(&flags.TargetLanguage, "target-lang", flags.TargetLanguage, "Target language of the candidates")
	cmd.Flags().IntVar(&flags.MaxCandidates, "max-candidates", flags.MaxCandidates, "Maximum candidates per word")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Print suggestions without storing them")

	bindSuggestFlagsToViper(cmd)
	return cmd
}

// CreateModelsCommand creates the "models" command
func CreateModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List OpenAI chat models usable for suggestions",
		Args:  cobra.NoArgs,
	}
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.beamtrans.yaml)")
	cmd.PersistentFlags().StringVarP(&flags.LexiconPath, "lexicon", "l", "", "Lexicon file: .yaml/.yml or .db/.sqlite (default: "+DefaultLexiconPath()+" if present, else built-in)")

	// Local flags
	cmd.Flags().IntVarP(&flags.BeamWidth, "beam-width", "w", flags.BeamWidth, "Hypotheses kept after each word (must be at least 1)")
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Translate sentences from file (one per line)")
	cmd.Flags().BoolVarP(&flags.Interactive, "interactive", "i", false, "Read sentences from stdin until EOF")
	cmd.Flags().BoolVar(&flags.Normalize, "normalize", false, "Apply Unicode NFKC normalization before tokenizing")
	cmd.Flags().IntVar(&flags.Top, "top", 0, "Print only the best N translations (0 prints all)")
	cmd.Flags().BoolVar(&flags.Trace, "trace", false, "Print the beam after every decoding step")
	cmd.Flags().StringVarP(&flags.OutputDir, "output", "o", "", "Also save each result to a file in this directory")
	cmd.Flags().BoolVar(&flags.NoBanner, "no-banner", false, "Do not print the banner")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	bindFlag("lexicon.path", cmd.PersistentFlags().Lookup("lexicon"))
	bindFlag("decode.beam_width", cmd.Flags().Lookup("beam-width"))
	bindFlag("decode.normalize", cmd.Flags().Lookup("normalize"))
	bindFlag("decode.top", cmd.Flags().Lookup("top"))
	bindFlag("output.directory", cmd.Flags().Lookup("output"))
	bindFlag("output.no_banner", cmd.Flags().Lookup("no-banner"))
}

func bindSuggestFlagsToViper(cmd *cobra.Command) {
	bindFlag("suggest.provider", cmd.Flags().Lookup("provider"))
	bindFlag("suggest.model", cmd.Flags().Lookup("model"))
	bindFlag("suggest.source_language", cmd.Flags().Lookup("source-lang"))
	bindFlag("suggest.target_language", cmd.Flags().Lookup("target-lang"))
	bindFlag("suggest.max_candidates", cmd.Flags().Lookup("max-candidates"))
}

func bindFlag(key string, flag *pflag.Flag) {
	if flag == nil {
		return
	}
	viper.BindPFlag(key, flag)
}

// ApplyConfig copies values set in the config file or environment into
// flags. Values given on the command line win because viper reads bound
// flags first.
func ApplyConfig(flags *Flags) {
	setString("lexicon.path", &flags.LexiconPath)
	setInt("decode.beam_width", &flags.BeamWidth)
	setBool("decode.normalize", &flags.Normalize)
	setInt("decode.top", &flags.Top)
	setString("output.directory", &flags.OutputDir)
	setBool("output.no_banner", &flags.NoBanner)

	setString("suggest.provider", &flags.Provider)
	setString("suggest.model", &flags.Model)
	setString("suggest.source_language", &flags.SourceLanguage)
	setString("suggest.target_language", &flags.TargetLanguage)
	setInt("suggest.max_candidates", &flags.MaxCandidates)
}

func setString(key string, dst *string) {
	if viper.IsSet(key) {
		*dst = viper.GetString(key)
	}
}

func setInt(key string, dst *int) {
	if viper.IsSet(key) {
		*dst = viper.GetInt(key)
	}
}

func setBool(key string, dst *bool) {
	if viper.IsSet(key) {
		*dst = viper.GetBool(key)
	}
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".beamtrans" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".beamtrans")
	}

	// Environment variables, e.g. BEAMTRANS_DECODE_BEAM_WIDTH
	viper.SetEnvPrefix("BEAMTRANS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// DefaultLexiconPath returns the SQLite lexicon used when --lexicon is not
// given and the file exists
func DefaultLexiconPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "lexicon.db"
	}
	return filepath.Join(home, ".local", "state", "beamtrans", "lexicon.db")
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("suggest.openai_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("suggest.gemini_key")
}

// GetAPIKey returns the key for the named suggestion provider
func GetAPIKey(provider string) string {
	if strings.EqualFold(provider, "gemini") {
		return GetGeminiKey()
	}
	return GetOpenAIKey()
}
