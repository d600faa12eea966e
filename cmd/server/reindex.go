package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func runReindex(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	if !cfg.Search.Enabled {
		return fmt.Errorf("search is disabled (search.enabled=false)")
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.index == nil {
		return fmt.Errorf("search index %s could not be opened", cfg.Search.IndexPath)
	}

	n, err := a.search.Reindex(ctx, a.index)
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d published posts\n", n)
	return nil
}
