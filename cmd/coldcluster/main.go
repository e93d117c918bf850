// Coldcluster CLI — консоль оператора кластера.
//
// Использование:
//
//	coldcluster [--url URL] [--user USER] [--password PASS] [--archive-url URL] [--json] [--debug] <command> [flags]
//
// Команды:
//
//	status     Состояние кластера
//	run        Начать выдачу assemblies
//	pause      Приостановить workers
//	unpause    Выйти из паузы (кластер становится stopped)
//	stop       Остановить кластер
//	reset      Загрузить solver (--file или --name)
//	workers    Таблица workers
//	solutions  Найденные решения
//	solvers    Каталог solver
//	history    Архив поисков
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Coldcluster/internal/cli"
	"github.com/shaiso/Coldcluster/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var cfg cli.ClientConfig
	var jsonOutput, debug bool

	rootCmd := &cobra.Command{
		Use:           "coldcluster",
		Short:         "Coldcluster CLI — control the search cluster",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			// Логи в stderr, stdout остаётся под вывод команд
			level := slog.LevelWarn
			if debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(telemetry.NewLogger(os.Stderr, level, "text"))
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.URL, "url", envOr("COLDCLUSTER_URL", "http://localhost:8090"), "Coordinator URL")
	flags.StringVar(&cfg.User, "user", envOr("COLDCLUSTER_USER", "admin"), "Console user")
	flags.StringVar(&cfg.Password, "password", os.Getenv("COLDCLUSTER_PASSWORD"), "Console password (env COLDCLUSTER_PASSWORD)")
	flags.StringVar(&cfg.ArchiveURL, "archive-url", os.Getenv("COLDCLUSTER_ARCHIVE_URL"), "Archiver URL")
	flags.BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	flags.BoolVar(&debug, "debug", false, "Log API requests to stderr")

	clientFn := func() *cli.Client { return cli.NewClient(cfg) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(cli.NewControlCmds(clientFn, outputFn)...)
	rootCmd.AddCommand(
		cli.NewWorkersCmd(clientFn, outputFn),
		cli.NewSolutionsCmd(clientFn, outputFn),
		cli.NewSolversCmd(clientFn, outputFn),
		cli.NewHistoryCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		cli.NewOutput(false).Error(err.Error())
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
