/*
Copyright 2024 The Trustpilot Plugin Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	trustpilot "github.com/ZIPender/pteroCATrustPilotPlugin"
	"github.com/ZIPender/pteroCATrustPilotPlugin/config"
	"github.com/ZIPender/pteroCATrustPilotPlugin/database"
	"github.com/ZIPender/pteroCATrustPilotPlugin/internal/notification"
)

// CLI encapsulates the root Cobra command.
type CLI struct {
	cmd *cobra.Command
}

// pluginInstance holds the pipeline instance and its configuration, shared
// across subcommands.
type pluginInstance struct {
	pipeline *trustpilot.Trustpilot
	cnf      *config.Configuration
}

func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration and initializes the pipeline before any
// subcommand runs.
func preRun(app *pluginInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("trustpilot.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		pipeline, err := setupPipeline(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.pipeline = pipeline
		app.cnf = cnf

		return nil
	}
}

func setupPipeline(cfg *config.Configuration) (*trustpilot.Trustpilot, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	pipeline, err := trustpilot.NewTrustpilot(db)
	if err != nil {
		return nil, fmt.Errorf("error creating pipeline: %v", err)
	}
	return pipeline, nil
}

// NewCLI creates the command-line interface for the plugin service.
func NewCLI() *CLI {
	var configFile string
	p := &pluginInstance{}

	var rootCmd = &cobra.Command{
		Use:   "trustpilot-plugin",
		Short: "Review invitation service",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./trustpilot.json", "Configuration file for the plugin service")

	rootCmd.PersistentPreRunE = preRun(p)

	rootCmd.AddCommand(serverCommands(p))
	rootCmd.AddCommand(workerCommands(p))
	rootCmd.AddCommand(invitationCommands(p))

	return &CLI{cmd: rootCmd}
}

func (w CLI) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()
	cli := NewCLI()
	cli.executeCLI()
}
