package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"plugsmith/internal/config"
	"plugsmith/internal/logging"
)

var (
	// Global flags
	verbose   bool
	apiKey    string
	workspace string

	// Logger
	logger *zap.Logger
)

const version = "1.0.0"

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "plugsmith",
	Short: "plugsmith - a plugin forge driven by natural language",
	Long: `plugsmith satisfies natural-language requests with small Go plugins.

Each request is matched against the stored plugin catalog; when nothing
fits, a language model writes a new plugin, which runs in a sandboxed
interpreter and is kept only once you approve its result.

Run without arguments to start the interactive session.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if err := logging.Initialize(workspace); err != nil {
			logger.Warn("file logging unavailable", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive()
	},
}

// runCmd satisfies a single request and exits.
var runCmd = &cobra.Command{
	Use:   "run [request]",
	Short: "Satisfy a single request and exit",
	Long: `Runs one request through the full lifecycle: catalog matching,
plugin generation if needed, sandboxed execution, and the feedback
prompt. The plugin is stored only if you approve the result.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootApp()
		if err != nil {
			return err
		}
		defer app.Close()

		res, err := app.Orchestrator.RunTurn(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if res.Abandoned {
			fmt.Println("Request abandoned; nothing was stored.")
		}
		return nil
	},
}

// pluginsCmd lists the stored plugins.
var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List stored plugins",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootApp()
		if err != nil {
			return err
		}
		defer app.Close()

		plugins, err := app.Store.ListAllPlugins()
		if err != nil {
			return err
		}
		if len(plugins) == 0 {
			fmt.Println("No plugins stored yet.")
			return nil
		}
		for _, p := range plugins {
			fmt.Printf("[%d] %s\n", p.ID, p.Description)
			for _, r := range p.Requests {
				fmt.Printf("      · %s\n", r.Text)
			}
		}
		return nil
	},
}

// pluginsDeleteCmd removes a stored plugin and its unused dependencies.
var pluginsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a stored plugin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid plugin id %q", args[0])
		}

		app, err := bootApp()
		if err != nil {
			return err
		}
		defer app.Close()

		detail, err := app.Store.GetPlugin(id)
		if err != nil {
			return err
		}
		if err := app.Store.DeletePlugin(id); err != nil {
			return err
		}
		// Row cascade already removed this plugin's claims, so any
		// remaining reference belongs to another plugin.
		app.Deps.Cleanup(cmd.Context(), app.Store, detail.Dependencies)

		fmt.Printf("Plugin %d deleted.\n", id)
		return nil
	},
}

// historyCmd prints the oracle conversation log.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the oracle conversation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootApp()
		if err != nil {
			return err
		}
		defer app.Close()

		messages, err := app.Store.GetChatHistory()
		if err != nil {
			return err
		}
		for _, m := range messages {
			fmt.Printf("--- %s (%s)\n%s\n", m.Role, m.Timestamp, m.Content)
		}
		return nil
	},
}

// cleanupCmd rebuilds the sandbox module cache from scratch: everything
// on disk goes, then the union of stored plugins' dependencies is
// reinstalled. Recovers from interrupted installs and manual tampering.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Reinstall exactly the dependencies stored plugins need",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootApp()
		if err != nil {
			return err
		}
		defer app.Close()

		names, err := app.Store.ListAllDependencies()
		if err != nil {
			return err
		}
		if err := os.RemoveAll(app.Config.Sandbox.GoPath); err != nil {
			return fmt.Errorf("failed to clear module cache: %w", err)
		}
		if err := app.Deps.Install(cmd.Context(), names); err != nil {
			return err
		}
		fmt.Printf("Module cache rebuilt; %d dependencies installed.\n", len(names))
		return nil
	},
}

// versionCmd prints the version.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("plugsmith %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "oracle API key (overrides PLUGSMITH_API_KEY)")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace directory (default: current directory)")

	pluginsCmd.AddCommand(pluginsDeleteCmd)
	rootCmd.AddCommand(runCmd, pluginsCmd, historyCmd, cleanupCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveWorkspace falls back to the current directory.
func resolveWorkspace() string {
	if workspace != "" {
		return workspace
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// storePath places the plugin database next to the config.
func storePath() (string, error) {
	dir, err := config.Dir(resolveWorkspace())
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}
	return filepath.Join(dir, "plugins.db"), nil
}
