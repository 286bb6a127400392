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

package config

import (
	"encoding/json"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5002"

	// DefaultPollCron is the schedule used by the workers process to sweep
	// due pending invitations when none is configured.
	DefaultPollCron = "@every 1h"

	DefaultInvitationQueue = "invitations"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"TRUSTPILOT_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"TRUSTPILOT_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"TRUSTPILOT_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"TRUSTPILOT_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"TRUSTPILOT_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"TRUSTPILOT_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"TRUSTPILOT_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns string `json:"dns" envconfig:"TRUSTPILOT_REDIS_DNS"`
}

// TrustpilotAPIConfig holds the base URLs of the external review platform.
// They are configurable so that staging environments can point the client
// elsewhere; the defaults are the production endpoints.
type TrustpilotAPIConfig struct {
	BaseURL            string `json:"base_url" envconfig:"TRUSTPILOT_API_BASE_URL"`
	InvitationsBaseURL string `json:"invitations_base_url" envconfig:"TRUSTPILOT_INVITATIONS_API_BASE_URL"`
}

type QueueConfig struct {
	InvitationQueue string `json:"invitation_queue" envconfig:"TRUSTPILOT_QUEUE_INVITATION_QUEUE"`
	PollCron        string `json:"poll_cron" envconfig:"TRUSTPILOT_QUEUE_POLL_CRON"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"TRUSTPILOT_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"TRUSTPILOT_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"TRUSTPILOT_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack SlackWebhook `json:"slack"`
}

type Configuration struct {
	ProjectName    string                       `json:"project_name" envconfig:"TRUSTPILOT_PROJECT_NAME"`
	Server         ServerConfig                 `json:"server"`
	DataSource     DataSourceConfig             `json:"data_source"`
	Redis          RedisConfig                  `json:"redis"`
	TrustpilotAPI  TrustpilotAPIConfig          `json:"trustpilot_api"`
	Queue          QueueConfig                  `json:"queue"`
	RateLimit      RateLimitConfig              `json:"rate_limit"`
	Notification   Notification                 `json:"notification"`
	PluginSettings map[string]map[string]string `json:"plugin_settings"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return errors.Wrap(err, "opening config file")
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return errors.Wrap(err, "decoding config file")
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("trustpilot", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called trustpilot.json with your config")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Trustpilot Review Service"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	if cnf.TrustpilotAPI.BaseURL == "" {
		cnf.TrustpilotAPI.BaseURL = "https://api.trustpilot.com/v1"
	}
	if cnf.TrustpilotAPI.InvitationsBaseURL == "" {
		cnf.TrustpilotAPI.InvitationsBaseURL = "https://invitations-api.trustpilot.com/v1"
	}

	if cnf.Queue.InvitationQueue == "" {
		cnf.Queue.InvitationQueue = DefaultInvitationQueue
	}
	if cnf.Queue.PollCron == "" {
		cnf.Queue.PollCron = DefaultPollCron
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)
	cnf.TrustpilotAPI.BaseURL = strings.TrimRight(strings.TrimSpace(cnf.TrustpilotAPI.BaseURL), "/")
	cnf.TrustpilotAPI.InvitationsBaseURL = strings.TrimRight(strings.TrimSpace(cnf.TrustpilotAPI.InvitationsBaseURL), "/")

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	if mockConfig.TrustpilotAPI.BaseURL == "" {
		mockConfig.TrustpilotAPI.BaseURL = "https://api.trustpilot.com/v1"
	}
	if mockConfig.TrustpilotAPI.InvitationsBaseURL == "" {
		mockConfig.TrustpilotAPI.InvitationsBaseURL = "https://invitations-api.trustpilot.com/v1"
	}
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
