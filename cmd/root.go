package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/complymap/complymap-cli/internal/shared/constants"
)

var cfgFile string
var logger *zap.SugaredLogger
var organizationID string
var dataDir string

var rootCmd = &cobra.Command{
	Use:   "complymap",
	Short: "Cross-framework compliance mapping and gap analysis",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init config
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath("$HOME")
			viper.SetConfigName(".complymap")
			viper.SetConfigType("yaml")
		}

		_ = viper.ReadInConfig()
		if dataDir == "" {
			dataDir = viper.GetString("data_dir")
		}
		if dataDir == "" {
			dataDir = "./data"
		}
		if organizationID == "" {
			organizationID = viper.GetString("organization")
		}

		// init logger
		l, _ := zap.NewProduction()
		logger = l.Sugar()

		// Make final dataDir absolute (for clarity in logs)
		if abs, err := filepath.Abs(dataDir); err == nil {
			dataDir = abs
		}
		// create data dir if not exists
		if err := os.MkdirAll(dataDir, constants.DefaultDirPerm); err != nil {
			return fmt.Errorf("failed to create data directory: %s", err.Error())
		}

		logger.Infof("organization=%s data_dir=%s", organizationID, dataDir)

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// config file flag
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.complymap.yaml)")

	rootCmd.PersistentFlags().StringVarP(&organizationID, "org", "o", "", "organization ID for compliance lookups (or set organization in config)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "catalog data directory (default ./data)")

	// add subcommands
	rootCmd.AddCommand(frameworksCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(coverageCmd)
	rootCmd.AddCommand(gapsCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(matrixCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(versionCmd)
}
