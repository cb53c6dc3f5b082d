package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var cfgPath string
	var root = &cobra.Command{
		Use:   "docuquery",
		Short: "Answer questions about documents",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cfgPath != "" {
				_ = os.Setenv("CONFIG_FILE", cfgPath)
			}
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default configs/config.toml)")

	root.AddCommand(serveCMD(), askCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
