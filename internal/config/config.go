// Package config собирает конфигурацию сервисов Coldcluster.
//
// Источники (в порядке приоритета):
//   - переменные окружения
//   - YAML файл из COLDCLUSTER_CONFIG (опционально)
//   - значения по умолчанию
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigFile — переменная с путём к YAML файлу конфигурации.
const EnvConfigFile = "COLDCLUSTER_CONFIG"

// Coordinator — конфигурация координатора.
type Coordinator struct {
	Port            string        `yaml:"port"`
	WorkerToken     string        `yaml:"worker_token"`
	ConsoleUser     string        `yaml:"console_user"`
	ConsolePassword string        `yaml:"console_password"`
	SolversDir      string        `yaml:"solvers_dir"`
	DefaultSolver   string        `yaml:"default_solver"`
	RabbitMQURL     string        `yaml:"rabbitmq_url"`
	SnapshotCron    string        `yaml:"snapshot_cron"`
	EventBuffer     int           `yaml:"event_buffer"`
	LivenessWindow  time.Duration `yaml:"liveness_window"`
}

// Archiver — конфигурация архиватора.
type Archiver struct {
	Port        string `yaml:"port"`
	DBURL       string `yaml:"db_url"`
	RabbitMQURL string `yaml:"rabbitmq_url"`
}

// file — структура YAML файла.
type file struct {
	Coordinator Coordinator `yaml:"coordinator"`
	Archiver    Archiver    `yaml:"archiver"`
}

// Addr возвращает адрес для http.Server.
func (c Coordinator) Addr() string {
	return ":" + c.Port
}

// Addr возвращает адрес для http.Server.
func (a Archiver) Addr() string {
	return ":" + a.Port
}

// LoadCoordinator загружает конфигурацию координатора.
// Без WORKER_TOKEN возвращает ErrMissingToken.
func LoadCoordinator() (Coordinator, error) {
	f, err := readFile()
	if err != nil {
		return Coordinator{}, err
	}
	c := f.Coordinator

	setString(&c.Port, "COORD_PORT")
	setString(&c.WorkerToken, "WORKER_TOKEN")
	setString(&c.ConsoleUser, "CONSOLE_USER")
	setString(&c.ConsolePassword, "CONSOLE_PASSWORD")
	setString(&c.SolversDir, "SOLVERS_DIR")
	setString(&c.DefaultSolver, "DEFAULT_SOLVER")
	setString(&c.RabbitMQURL, "RABBITMQ_URL")
	setString(&c.SnapshotCron, "SNAPSHOT_CRON")
	if err := setInt(&c.EventBuffer, "EVENT_BUFFER"); err != nil {
		return Coordinator{}, err
	}
	if err := setDuration(&c.LivenessWindow, "LIVENESS_WINDOW"); err != nil {
		return Coordinator{}, err
	}

	if c.Port == "" {
		c.Port = "8090"
	}
	if c.ConsoleUser == "" {
		c.ConsoleUser = "admin"
	}
	if c.SolversDir == "" {
		c.SolversDir = "solvers"
	}
	if c.DefaultSolver == "" {
		c.DefaultSolver = "gravity"
	}
	if c.SnapshotCron == "" {
		c.SnapshotCron = "@every 1m"
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 1024
	}
	if c.LivenessWindow <= 0 {
		c.LivenessWindow = 5 * time.Second
	}

	if c.WorkerToken == "" {
		return Coordinator{}, ErrMissingToken
	}
	// Консоль исходно защищалась тем же токеном, что и workers
	if c.ConsolePassword == "" {
		c.ConsolePassword = c.WorkerToken
	}

	return c, nil
}

// LoadArchiver загружает конфигурацию архиватора.
// DB_URL может быть пустым: тогда repo.NewPool использует свой default.
func LoadArchiver() (Archiver, error) {
	f, err := readFile()
	if err != nil {
		return Archiver{}, err
	}
	a := f.Archiver

	setString(&a.Port, "ARCHIVE_PORT")
	setString(&a.DBURL, "DB_URL")
	setString(&a.RabbitMQURL, "RABBITMQ_URL")

	if a.Port == "" {
		a.Port = "8091"
	}

	return a, nil
}

// readFile читает YAML файл, если задан COLDCLUSTER_CONFIG.
func readFile() (file, error) {
	var f file

	path := os.Getenv(EnvConfigFile)
	if path == "" {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse config %s: %w", path, err)
	}

	return f, nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return &ValueError{Key: key, Value: v, Err: err}
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return &ValueError{Key: key, Value: v, Err: err}
	}
	*dst = d
	return nil
}
