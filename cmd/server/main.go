package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dynasty-blog/dynasty/internal/config"
	"github.com/dynasty-blog/dynasty/pkg/logger"
)

var (
	configFile string

	rootCmd = &cobra.Command{
		Use:           "server",
		Short:         "Dynasty blog server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE:  runServe, // serve.go
	}

	reindexCmd = &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the published posts",
		RunE:  runReindex, // reindex.go
	}

	authorCmd = &cobra.Command{
		Use:   "author",
		Short: "Manage author accounts",
	}
	authorCreateCmd = &cobra.Command{
		Use:   "create <username>",
		Short: "Create an author account for the authoring API",
		Args:  cobra.ExactArgs(1),
		RunE:  runAuthorCreate, // author.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default ./configs/config.yaml)")

	authorCreateCmd.Flags().String("email", "", "author email")
	authorCreateCmd.Flags().String("first-name", "", "first name")
	authorCreateCmd.Flags().String("last-name", "", "last name")
	authorCreateCmd.Flags().String("password", "", "password (read from BLOG_AUTHOR_PASSWORD when empty)")
	authorCreateCmd.Flags().Bool("staff", false, "allow editing every post")

	authorCmd.AddCommand(authorCreateCmd)
	rootCmd.AddCommand(serveCmd, reindexCmd, authorCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration and builds the logger every command uses
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadFrom(viper.New(), configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}
