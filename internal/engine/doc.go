// Package engine разбирает текст solver.
//
// Включает:
//   - solver.go — Parse: директивы pattern и depth, размер пространства поиска
//   - errors.go — ParseError и sentinel-ошибки
//
// Engine не знает, что означает pattern: семантика solver принадлежит workers.
// Координатору нужен только размер пространства поиска (patterns^depth).
package engine
