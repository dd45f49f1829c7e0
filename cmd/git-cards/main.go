// Package main provides the git-cards CLI for running scans without a
// server, useful for trying out a profile before embedding a card.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitcards/git-cards/internal/github"
	"github.com/gitcards/git-cards/internal/langstats"
	"github.com/gitcards/git-cards/internal/pkg/logger"
	"github.com/gitcards/git-cards/internal/scan"
	"github.com/gitcards/git-cards/internal/svg"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "git-cards",
		Short: "git-cards - GitHub profile stat cards",
		Long: `git-cards scans a GitHub user's public repositories and ranks the
identifiers their code declares most.

Run 'git-cards scan <username>' to inspect a profile from the terminal.
Run 'git-cards card <username>' to render an SVG card to a file.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("token", "", "GitHub API token")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().Duration("timeout", 2*time.Minute, "overall scan timeout")

	rootCmd.AddCommand(
		scanCmd(),
		cardCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newScanner(cmd *cobra.Command) (*scan.Scanner, *github.Client, *logger.Logger) {
	token, _ := cmd.Flags().GetString("token")
	verbose, _ := cmd.Flags().GetBool("verbose")

	level := "warn"
	if verbose {
		level = "debug"
	}
	log := logger.New(level, "text")

	ghCfg := github.DefaultConfig()
	ghCfg.Token = token
	gh := github.New(ghCfg, nil)

	return scan.New(scan.DefaultConfig(), gh, log, nil, nil), gh, log
}

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <username>",
		Short: "Scan a profile and print the top identifiers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			langsFlag, _ := cmd.Flags().GetString("langs")
			format, _ := cmd.Flags().GetString("format")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			scanner, _, _ := newScanner(cmd)

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			result, err := scanner.Scan(ctx, args[0], scan.Options{
				Limit:     limit,
				Languages: splitLangs(langsFlag),
			})
			if err != nil {
				return err
			}

			if format == "json" {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			fmt.Printf("%s: %d repos, %d files, %d identifier groups in %s\n\n",
				result.Username, result.RepoCount, result.FileCount,
				result.GroupCount, result.Duration.Round(time.Millisecond))
			for i, item := range result.Items {
				fmt.Printf("%2d. %-30s %5d  %s\n", i+1, item.Name, item.Count, item.Dominant)
			}
			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", 10, "number of identifiers to show")
	cmd.Flags().String("langs", "", "comma-separated language filter (e.g. go,python)")
	cmd.Flags().String("format", "text", "output format (text, json)")

	return cmd
}

func cardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card <username>",
		Short: "Render an SVG card to a file or stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cardType, _ := cmd.Flags().GetString("type")
			limit, _ := cmd.Flags().GetInt("limit")
			width, _ := cmd.Flags().GetInt("width")
			output, _ := cmd.Flags().GetString("output")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			scanner, gh, log := newScanner(cmd)

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			var card string
			switch cardType {
			case "identifiers":
				result, err := scanner.Scan(ctx, args[0], scan.Options{Limit: limit})
				if err != nil {
					return err
				}
				card = svg.IdentifiersCard(result.Username, result.Items,
					result.LanguageFiles, result.RepoCount, result.FileCount,
					svg.ClampWidth(width))
			case "languages":
				svc := langstats.New(gh, log)
				entries, err := svc.Stats(ctx, args[0])
				if err != nil {
					return err
				}
				card = langstats.Card(args[0], entries, langstats.ModePercent,
					svg.ClampWidth(width))
			default:
				return fmt.Errorf("unknown card type %q (identifiers, languages)", cardType)
			}

			if output == "" || output == "-" {
				fmt.Println(card)
				return nil
			}
			return os.WriteFile(output, []byte(card), 0o644)
		},
	}

	cmd.Flags().String("type", "identifiers", "card type (identifiers, languages)")
	cmd.Flags().IntP("limit", "n", 10, "number of identifiers to show")
	cmd.Flags().Int("width", 0, "card width in pixels")
	cmd.Flags().StringP("output", "o", "", "output file (default stdout)")

	return cmd
}

func splitLangs(raw string) []string {
	if raw == "" {
		return nil
	}
	var langs []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(strings.ToLower(part)); part != "" {
			langs = append(langs, part)
		}
	}
	return langs
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("git-cards %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}
}
