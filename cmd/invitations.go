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
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

// invitationCommands defines the "send-invitations" command: one inline
// sweep of due invitations, for cron jobs and operators. The command fails
// with a non-zero exit when credentials are missing.
func invitationCommands(p *pluginInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send-invitations",
		Short: "dispatch all due review invitations",
		Run: func(cmd *cobra.Command, args []string) {
			if !p.pipeline.IsConfigured() {
				log.Fatal("api credentials are not configured")
			}

			sent, err := p.pipeline.ProcessPendingInvitations(context.Background())
			if err != nil {
				log.Fatal(err)
			}

			fmt.Printf("%d invitation(s) sent\n", sent)
		},
	}
	return cmd
}
