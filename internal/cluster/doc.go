// Package cluster — ядро координатора: состояние кластера и протокол check-in.
//
// Структура:
//   - workspace.go  — WorkSpace: пул нерешённых assemblies и round-robin курсор
//   - registry.go   — Registry: записи workers, liveness
//   - runrate.go    — скользящее окно замеров и оценка run rate
//   - aggregator.go — Ledger: идемпотентное слияние отчётов о завершении
//   - controller.go — Controller: state machine статуса, команды оператора, check-in
//   - view.go       — срезы состояния для консоли и reporter
//
// Все изменения состояния сериализованы одним мьютексом внутри Controller.
// WorkSpace, Registry и Ledger не синхронизированы сами по себе и
// принадлежат Controller'у.
//
// Использование:
//
//	ctrl := cluster.New(cluster.Config{Sink: journal, Logger: logger})
//	if err := ctrl.Reset(solverText); err != nil {
//	    // solver отклонён, состояние не изменилось
//	}
//	res := ctrl.CheckIn(cluster.CheckIn{WorkerID: "w1", Cores: 4})
package cluster
