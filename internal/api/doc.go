// Package api содержит HTTP API координатора и архива.
//
// Структура:
//   - handler.go         — Handler координатора с DI (controller, каталог solver, учётные данные)
//   - routes.go          — регистрация маршрутов
//   - middleware.go      — middleware (logging, recovery, metrics, basic auth консоли)
//   - response.go        — унифицированные JSON-ответы и обработка ошибок
//   - dto.go             — Data Transfer Objects (request/response)
//   - console_handler.go — обработчики /console и /solvers
//   - worker_handler.go  — check-in workers
//   - archive_handler.go — read API архива (/searches)
//
// Ответ на check-in отправляется без обёртки data: формат протокола workers
// фиксирован.
package api
