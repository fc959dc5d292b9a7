package main

import (
	"os"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/beamtrans/internal/cli"
	"codeberg.org/snonux/beamtrans/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
		cli.ApplyConfig(flags)
	})

	// Set the run function
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(args, flags)
	}

	addSubcommands(rootCmd, flags)

	// Execute command
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCommand(args []string, flags *cli.Flags) error {
	proc, err := newProcessor(flags)
	if err != nil {
		return err
	}

	// Handle batch processing
	if flags.BatchFile != "" {
		return proc.ProcessBatch()
	}

	// Translate the arguments as one sentence
	if len(args) > 0 {
		return proc.ProcessArgs(args)
	}

	if flags.Interactive {
		return proc.RunPrompt()
	}

	// No input provided - ask for keyboard or file mode
	return proc.RunInteractive()
}

func addSubcommands(rootCmd *cobra.Command, flags *cli.Flags) {
	lexiconCmd, listCmd, importCmd, exportCmd, addCmd := cli.CreateLexiconCommand()

	listCmd.RunE = func(cmd *cobra.Command, args []string) error {
		proc, err := newProcessor(flags)
		if err != nil {
			return err
		}
		return proc.ListLexicon(args)
	}

	importCmd.RunE = func(cmd *cobra.Command, args []string) error {
		proc, err := newProcessor(flags)
		if err != nil {
			return err
		}
		return proc.ImportLexicon(args[0], args[1])
	}

	exportCmd.RunE = func(cmd *cobra.Command, args []string) error {
		proc, err := newProcessor(flags)
		if err != nil {
			return err
		}
		return proc.ExportLexicon(args[0])
	}

	addCmd.RunE = func(cmd *cobra.Command, args []string) error {
		proc, err := newProcessor(flags)
		if err != nil {
			return err
		}
		return proc.AddEntry(args[0], args[1:])
	}

	suggestCmd := cli.CreateSuggestCommand(flags)
	suggestCmd.RunE = func(cmd *cobra.Command, args []string) error {
		proc, err := newProcessor(flags)
		if err != nil {
			return err
		}
		return proc.SuggestWords(cmd.Context(), args)
	}

	modelsCmd := cli.CreateModelsCommand()
	modelsCmd.RunE = func(cmd *cobra.Command, args []string) error {
		proc, err := newProcessor(flags)
		if err != nil {
			return err
		}
		return proc.ListModels(cmd.Context())
	}

	rootCmd.AddCommand(lexiconCmd, suggestCmd, modelsCmd)
}

func newProcessor(flags *cli.Flags) (*processor.Processor, error) {
	return processor.NewProcessor(flags, os.Stdin, os.Stdout, os.Stderr)
}
