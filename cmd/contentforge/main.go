package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "contentforge",
	Short: "ContentForge: caption generation and weekly post planner",
	Long: `ContentForge writes social media captions with a language model, scores
them with a stable heuristic and keeps a weekly posting plan per chat.

Run "contentforge bot" to serve the Telegram bot.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	generateCmd.Flags().StringVar(&genPlatform, "platform", "Instagram", "target platform (Instagram or TikTok)")
	generateCmd.Flags().StringVar(&genBrand, "brand", "", "brand name")
	generateCmd.Flags().StringVar(&genNiche, "niche", "", "brand niche")
	generateCmd.Flags().StringVar(&genTone, "tone", "", "tone of voice")
	generateCmd.Flags().StringVar(&genExtra, "extra", "", "extra information for the prompt")

	scoreCmd.Flags().StringSliceVar(&scoreHashtags, "hashtags", nil, "hashtags, comma separated")
	scoreCmd.Flags().StringVar(&scoreTitle, "title", "", "title to decorate")
	scoreCmd.Flags().StringVar(&scoreNiche, "niche", "", "niche used to pick the title glyph")
	scoreCmd.Flags().StringVar(&scorePlatform, "platform", "Instagram", "platform used to pick the title glyph")

	weekCmd.Flags().StringVar(&weekDate, "date", "", "any date of the week, YYYY-MM-DD (default today)")
	weekCmd.Flags().IntVar(&weekShift, "shift", 0, "weeks to move from the anchor, negative goes back")

	rootCmd.AddCommand(botCmd, generateCmd, scoreCmd, weekCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
