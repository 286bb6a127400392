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

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	trustpilot "github.com/ZIPender/pteroCATrustPilotPlugin"
	"github.com/ZIPender/pteroCATrustPilotPlugin/config"
	redis_db "github.com/ZIPender/pteroCATrustPilotPlugin/internal/redis-db"
)

// processPending handles the periodic sweep task: dispatch every due
// invitation and report how many went out.
func (p *pluginInstance) processPending(ctx context.Context, _ *asynq.Task) error {
	sent, err := p.pipeline.ProcessPendingInvitations(ctx)
	if err != nil {
		return err
	}
	log.Printf(" [*] Invitation sweep finished, %d sent", sent)
	return nil
}

func initializeWorkerServer(conf *config.Configuration, queues map[string]int) (*asynq.Server, error) {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns)
	if err != nil {
		return nil, fmt.Errorf("error parsing Redis URL: %v", err)
	}

	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     redisOption.Addr,
			Password: redisOption.Password,
			DB:       redisOption.DB,
		},
		asynq.Config{
			Concurrency: 1,
			Queues:      queues,
		},
	), nil
}

// initializeScheduler registers the periodic sweep on the configured cron so
// delayed invitations go out without an external trigger.
func initializeScheduler(conf *config.Configuration) (*asynq.Scheduler, error) {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns)
	if err != nil {
		return nil, fmt.Errorf("error parsing Redis URL: %v", err)
	}

	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{
			Addr:     redisOption.Addr,
			Password: redisOption.Password,
			DB:       redisOption.DB,
		},
		nil,
	)

	task := asynq.NewTask(trustpilot.ProcessPendingTask, nil, asynq.Queue(conf.Queue.InvitationQueue))
	if _, err := scheduler.Register(conf.Queue.PollCron, task); err != nil {
		return nil, fmt.Errorf("error registering sweep schedule: %v", err)
	}
	return scheduler, nil
}

// workerCommands defines the "workers" command. The worker listens on the
// invitation queue and runs the periodic pending-invitation sweep.
func workerCommands(p *pluginInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workers",
		Short: "start invitation workers",
		Run: func(cmd *cobra.Command, args []string) {
			conf, err := config.Fetch()
			if err != nil {
				log.Fatal("Error fetching config:", err)
			}

			queues := map[string]int{conf.Queue.InvitationQueue: 1}

			srv, err := initializeWorkerServer(conf, queues)
			if err != nil {
				log.Fatal(err)
			}

			mux := asynq.NewServeMux()
			mux.HandleFunc(trustpilot.ProcessPendingTask, p.processPending)

			scheduler, err := initializeScheduler(conf)
			if err != nil {
				log.Fatal(err)
			}
			go func() {
				if err := scheduler.Run(); err != nil {
					log.Fatalf("could not run scheduler: %v", err)
				}
			}()

			if err := srv.Run(mux); err != nil {
				log.Fatalf("could not run server: %v", err)
			}
		},
	}
	return cmd
}
