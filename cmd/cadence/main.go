package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cuemby/cadence/pkg/config"
	"github.com/cuemby/cadence/pkg/log"
	"github.com/cuemby/cadence/pkg/metrics"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	cfgFile string
	v       = viper.New()
	cfg     *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cadence",
	Short: "Cadence - collaborative listening session client",
	Long: `Cadence creates, joins and follows collaborative listening sessions.

A session is kept in sync over three realtime channels (session, playlist
and recommendations) that reconnect on their own when the network drops.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded

		log.Init(log.Config{
			Level:      log.Level(cfg.Log.Level),
			JSONOutput: cfg.Log.JSON,
		})
		metrics.SetVersion(Version)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// Skip config loading
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Cadence version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime)
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Cadence version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.cadence/config.yaml)")
	flags.String("api-url", "", "session API base URL")
	flags.String("ws-url", "", "realtime channel base URL")
	flags.String("token", "", "bearer token for the session API")
	flags.String("data-dir", "", "directory for the resume store")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.Bool("log-json", false, "log in JSON format")

	_ = v.BindPFlag(config.KeyAPIURL, flags.Lookup("api-url"))
	_ = v.BindPFlag(config.KeyWSURL, flags.Lookup("ws-url"))
	_ = v.BindPFlag(config.KeyToken, flags.Lookup("token"))
	_ = v.BindPFlag(config.KeyDataDir, flags.Lookup("data-dir"))
	_ = v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = v.BindPFlag(config.KeyLogJSON, flags.Lookup("log-json"))

	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(songsCmd)
	rootCmd.AddCommand(versionCmd)
}
