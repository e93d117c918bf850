// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация событий кластера
//   - consumer.go   — потребление событий архиватором
//
// Типы сообщений (routing key = тип события):
//   - search.started         — загружен новый solver
//   - search.status_changed  — смена статуса кластера
//   - search.snapshot        — периодический срез прогресса
//   - assembly.completed     — впервые принятый отчёт о завершении
//
// Exchanges:
//   - coldcluster.events — события кластера (topic)
//   - coldcluster.dlq    — dead letter queue
package mq
