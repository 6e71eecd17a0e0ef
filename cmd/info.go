package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"bookextract/internal/book"
	"bookextract/internal/config"
	"bookextract/internal/store"
	"bookextract/internal/ui"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the effective configuration and paths",
	Args:  cobra.NoArgs,
	RunE:  infoRun,
}

func infoRun(cmd *cobra.Command, args []string) error {
	outDir, err := cfg.ExpandOutputDir()
	if err != nil {
		return err
	}
	configPath, _ := config.ConfigPath()
	historyPath, _ := config.HistoryPath()
	if !cfg.History {
		historyPath += " (disabled)"
	}

	p := ui.New(cmd.OutOrStdout())
	p.Table("Paths", [][2]string{
		{"config", configPath},
		{"output", outDir},
		{"pdfs", filepath.Join(outDir, store.DirArtifacts)},
		{"metadata", filepath.Join(outDir, store.DirMetadata)},
		{"logs", filepath.Join(outDir, store.DirLogs)},
		{"history", historyPath},
	})
	p.Printf("\n")

	b := cfg.Browser
	chrome := b.ChromePath
	if chrome == "" {
		chrome = "auto-detect"
	}
	p.Table("Extraction", [][2]string{
		{"reader", fmt.Sprintf("%s://%s%s?%s=<id>", cfg.Source.Scheme, cfg.Source.Host, cfg.Source.Path, cfg.Source.Param)},
		{"variable", cfg.Source.Variable},
		{"chrome", chrome},
		{"headless", fmt.Sprint(b.Headless)},
		{"navigation", b.NavigationTimeout.String()},
		{"locate", b.LocateTimeout.String()},
		{"frame wait", b.FrameWait.String()},
		{"max depth", fmt.Sprint(b.MaxFrameDepth)},
		{"retries", fmt.Sprint(cfg.Retries)},
		{"version", book.ExtractorVersion},
	})
	return nil
}
