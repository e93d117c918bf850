// Package cli реализует инструмент командной строки Coldcluster.
//
// # Обзор
//
// CLI — клиентская утилита оператора. Работает через HTTP и не импортирует
// внутренние пакеты системы: консоль координатора (basic auth) и
// read API архива.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент. Инкапсулирует запросы, разбор ответов
// (DataResponse, ListResponse, ErrorResponse) и обработку ошибок.
//
//	client := cli.NewClient(cli.ClientConfig{URL: "http://localhost:8090", User: "admin", Password: token})
//	view, err := client.Console()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: coldcluster workers --json | jq .
//
// ## Commands
//
//   - status, run, pause, unpause, stop, reset (--file | --name)
//   - workers, solutions, solvers
//   - history: list, show, solutions
//
// Фабричные функции принимают clientFn и outputFn — замыкания для ленивого
// создания Client и Output после парсинга PersistentFlags.
package cli
