package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bookextract/internal/httputil"
	"bookextract/internal/store"
	"bookextract/internal/ui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the output directories and check that Chrome starts",
	Args:  cobra.NoArgs,
	RunE:  setupRun,
}

func setupRun(cmd *cobra.Command, args []string) error {
	// newRuntime creates the output tree.
	rt, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	p := ui.New(cmd.OutOrStdout())
	for _, sub := range []string{store.DirArtifacts, store.DirMetadata, store.DirScreenshots, store.DirLogs} {
		p.Printf("created %s\n", filepath.Join(rt.outDir, sub))
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	client, err := httputil.NewClient(cfg.Browser.Proxy, 15*time.Second)
	if err != nil {
		return err
	}
	site := fmt.Sprintf("%s://%s/", cfg.Source.Scheme, cfg.Source.Host)
	if status, err := httputil.Probe(ctx, client, site, cfg.Browser.UserAgent); err != nil {
		// Reported only; the browser check below decides.
		rt.log.Warn("library site unreachable", zap.String("url", site), zap.Error(err))
	} else {
		p.Printf("%s answered %d\n", site, status)
	}

	if err := rt.launcher.Start(ctx); err != nil {
		return fmt.Errorf("browser check failed: %w", err)
	}
	p.Printf("Chrome started successfully\n")
	return nil
}
