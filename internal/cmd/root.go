package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	configcmd "github.com/toritoma/playbridge/internal/cmd/config"
	"github.com/toritoma/playbridge/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "playbridge",
	Short: "Game-host bridge for sign-in recovery, leaderboards, ads and sharing",
	Long: `playbridge connects a game host to its identity/leaderboard service,
recovers from sign-in failures through the service's resolution flow, and
shares scores to a social target with a browser fallback.

The simulate and share commands run the bridge against scripted stand-ins
for the platform so its behavior can be inspected from a terminal.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/playbridge/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "override logging.level (debug, info, warn, error)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	configcmd.Register(rootCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(shareCmd)
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/playbridge")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("PLAYBRIDGE")
	// e.g., PLAYBRIDGE_SHARE_TARGET_PACKAGE for share.target_package
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
