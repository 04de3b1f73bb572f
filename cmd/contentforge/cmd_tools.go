package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"contentforge/internal/calendar"
	"contentforge/internal/config"
	"contentforge/internal/decorator"
	"contentforge/internal/model"
	"contentforge/internal/scoring"
	"contentforge/internal/service"
	"contentforge/internal/session"
)

var (
	genPlatform string
	genBrand    string
	genNiche    string
	genTone     string
	genExtra    string

	scoreHashtags []string
	scoreTitle    string
	scoreNiche    string
	scorePlatform string

	weekDate  string
	weekShift int
)

var generateCmd = &cobra.Command{
	Use:   "generate [message]",
	Short: "Generate and score caption variations once",
	Long: `Runs one generation through the configured provider (LLM_PROVIDER) and
prints the scored, decorated variations. Without a provider key the built-in
mock is used.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

var scoreCmd = &cobra.Command{
	Use:   "score [caption]",
	Short: "Score a caption with the quality heuristic",
	Long:  `Reads the caption from the arguments, or from stdin when none are given.`,
	RunE:  runScore,
}

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Print the Monday to Sunday dates of a week",
	Args:  cobra.NoArgs,
	RunE:  runWeek,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	gen, err := newProvider(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	opts := sessionOptions(cfg)
	opts.Tier = model.PlanPro
	s, err := session.New(gen, opts)
	if err != nil {
		return err
	}
	defer s.Close()
	s.Profile = session.Profile{Brand: genBrand, Niche: genNiche, Tone: genTone}

	variations, err := s.Generate(cmd.Context(), session.GenerateInput{
		Platform:  genPlatform,
		Message:   strings.Join(args, " "),
		ExtraInfo: genExtra,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(variations) == 0 {
		fmt.Fprintln(out, "no variations returned")
		return nil
	}
	for i, v := range variations {
		marker := ""
		if v.Recommended {
			marker = " (recommended)"
		}
		fmt.Fprintf(out, "%d. %s%s\n%s\n", i+1, v.DecoratedTitle, marker, v.Caption)
		if len(v.Hashtags) > 0 {
			fmt.Fprintln(out, strings.Join(v.Hashtags, " "))
		}
		fmt.Fprintf(out, "score %.1f  engagement %.1f  conversion %.1f\n\n", v.Metrics.Score, v.Metrics.Engagement, v.Metrics.Conversion)
	}
	return nil
}

func runScore(cmd *cobra.Command, args []string) error {
	caption := strings.Join(args, " ")
	if len(args) == 0 {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read caption: %w", err)
		}
		caption = string(raw)
	}
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return fmt.Errorf("%w: caption is required", service.ErrValidation)
	}

	hashtags := service.CleanHashtags(scoreHashtags)
	metrics := scoring.Score(caption, hashtags)

	out := cmd.OutOrStdout()
	if scoreTitle != "" {
		platform, err := model.ParsePlatform(scorePlatform)
		if err != nil {
			return fmt.Errorf("%w: %v", service.ErrValidation, err)
		}
		fmt.Fprintf(out, "title       %s\n", decorator.New(nil).Decorate(scoreTitle, scoreNiche, platform))
		fmt.Fprintf(out, "category    %s\n", decorator.CategoryFor(scoreNiche))
	}
	fmt.Fprintf(out, "score       %.1f\n", metrics.Score)
	fmt.Fprintf(out, "engagement  %.1f\n", metrics.Engagement)
	fmt.Fprintf(out, "conversion  %.1f\n", metrics.Conversion)
	return nil
}

func runWeek(cmd *cobra.Command, args []string) error {
	anchor := calendar.Day(time.Now())
	if weekDate != "" {
		parsed, err := calendar.ParseDate(weekDate, time.Local)
		if err != nil {
			return err
		}
		anchor = parsed
	}
	anchor = calendar.ShiftWeek(anchor, weekShift)

	out := cmd.OutOrStdout()
	for _, day := range calendar.WeekOf(anchor) {
		fmt.Fprintf(out, "%s %s\n", day.Weekday().String()[:3], calendar.FormatDate(day))
	}
	return nil
}
