package cmd

import (
	"fmt"

	"ankivox/core/speech"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var voiceLocale string

// voicesCmd lists the voices available to the configured Speech resource.
var voicesCmd = &cobra.Command{
	Use:   "list-voices",
	Short: "List available Azure voices",
	Long: `List the neural voices offered by the configured Azure Speech resource.

Examples:
  # Every voice
  ankivox list-voices

  # French voices from all regions (fr-FR, fr-CA, ...)
  ankivox list-voices -l fr`,
	RunE: runListVoices,
}

func init() {
	voicesCmd.Flags().StringVarP(&voiceLocale, "locale", "l", "", "Only show voices of this locale or language (e.g. en, en-US)")
	RootCmd.AddCommand(voicesCmd)
}

func runListVoices(cmd *cobra.Command, args []string) error {
	cfg, l, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	client, err := speech.NewClient(cfg.Azure)
	if err != nil {
		return fmt.Errorf("failed to create speech client: %w", err)
	}

	voices, err := client.ListVoices(cmd.Context(), voiceLocale)
	if err != nil {
		return fmt.Errorf("failed to list voices: %w", err)
	}
	l.Debug("Fetched voices", zap.String("locale", voiceLocale), zap.Int("count", len(voices)))

	out := cmd.OutOrStdout()
	if len(voices) == 0 {
		fmt.Fprintln(out, warnStyle.Render("No voices found."))
		return nil
	}

	fmt.Fprintln(out, voiceTable(voices))
	fmt.Fprintf(out, "%d voices\n", len(voices))
	return nil
}
