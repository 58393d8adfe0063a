package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:          "taskrelay",
		Short:        "Bridge between a chat platform and a task-tracking system",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default config.toml)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the bridge: chat inbound, completion webhook, mapping admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfgPath)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the taskrelay version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("taskrelay", version)
		},
	}

	root.AddCommand(serve, versionCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
