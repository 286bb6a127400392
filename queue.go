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

package trustpilot

import (
	"log"

	"github.com/hibiken/asynq"

	"github.com/ZIPender/pteroCATrustPilotPlugin/config"
	"github.com/ZIPender/pteroCATrustPilotPlugin/internal/apierror"
	redis_db "github.com/ZIPender/pteroCATrustPilotPlugin/internal/redis-db"
)

// ProcessPendingTask is the task type for the periodic invitation sweep.
// The worker server registers a handler for it and the scheduler enqueues
// it on the configured cron.
const ProcessPendingTask = "invitations:process-pending"

// Queue wraps the task queue client used to hand the pending-invitation
// sweep to the worker process.
type Queue struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
}

// NewQueue initializes a new Queue instance with the provided configuration.
func NewQueue(conf *config.Configuration) *Queue {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns)
	if err != nil {
		log.Fatalf("Error parsing Redis URL: %v", err)
	}

	queueOptions := asynq.RedisClientOpt{Addr: redisOption.Addr, Password: redisOption.Password, DB: redisOption.DB}
	return &Queue{
		Client:    asynq.NewClient(queueOptions),
		Inspector: asynq.NewInspector(queueOptions),
	}
}

// QueueInvitationSweep hands one sweep of due invitations to the worker
// process instead of running it inline.
func (t *Trustpilot) QueueInvitationSweep() error {
	if t.queue == nil {
		return apierror.NewAPIError(apierror.ErrConfiguration, "task queue is not configured", nil)
	}
	return t.queue.EnqueueProcessPending()
}

// EnqueueProcessPending asks the worker process to run one sweep of due
// invitations. The task id makes repeat enqueues while a sweep is queued
// collapse into one.
func (q *Queue) EnqueueProcessPending() error {
	cfg, err := config.Fetch()
	if err != nil {
		return err
	}

	taskOptions := []asynq.Option{
		asynq.TaskID(ProcessPendingTask),
		asynq.Queue(cfg.Queue.InvitationQueue),
	}
	task := asynq.NewTask(ProcessPendingTask, nil, taskOptions...)
	info, err := q.Client.Enqueue(task)
	if err != nil {
		log.Println(err, info)
		return err
	}
	log.Printf(" [*] Successfully enqueued invitation sweep: %+v", info.ID)
	return nil
}
