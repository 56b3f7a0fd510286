// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"github.com/go-arcade/akinvite/internal/bootstrap"
	"github.com/go-arcade/akinvite/internal/config"
	"github.com/go-arcade/akinvite/pkg/version"
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "akinvite",
	Short: "akinvite hands out authentik invitation links from chat and a web form",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat bot and the HTTP form",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Bootstrap initialize application
		app, cleanup, _, err := bootstrap.Bootstrap(configFile, initApp)
		if err != nil {
			return err
		}

		// Start application and wait for exit signal
		bootstrap.Run(app, cleanup)
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration file and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.Load(configFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", configFile)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "conf", "c", config.DefaultConfigFile,
		"configuration file path, e.g. --conf ./conf.d/config.toml")
	rootCmd.AddCommand(serveCmd, checkCmd, version.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
