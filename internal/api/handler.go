package api

import (
	"log/slog"

	"github.com/shaiso/Coldcluster/internal/cluster"
	"github.com/shaiso/Coldcluster/internal/solvers"
)

// Handler — обработчик API координатора.
type Handler struct {
	controller *cluster.Controller
	catalog    *solvers.Catalog

	workerToken     string
	consoleUser     string
	consolePassword string

	logger *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Controller *cluster.Controller

	// Catalog — каталог solver-файлов (опционально).
	Catalog *solvers.Catalog

	// WorkerToken — общий токен workers.
	WorkerToken string

	// ConsoleUser, ConsolePassword — basic auth консоли.
	// Пустой пароль — используется WorkerToken.
	ConsoleUser     string
	ConsolePassword string

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	password := cfg.ConsolePassword
	if password == "" {
		password = cfg.WorkerToken
	}

	return &Handler{
		controller:      cfg.Controller,
		catalog:         cfg.Catalog,
		workerToken:     cfg.WorkerToken,
		consoleUser:     cfg.ConsoleUser,
		consolePassword: password,
		logger:          logger,
	}
}
