package engine

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	patternDirective = "pattern "
	depthDirective   = "depth "

	// DefaultDepth — глубина, если директива depth не встретилась.
	DefaultDepth = 1

	// MaxTotal — максимальный размер пространства поиска.
	// Координатор держит все нерешённые индексы в памяти.
	MaxTotal int64 = 1 << 24
)

// SolverSpec — неизменяемое представление текста solver.
//
// Сравнивается по указателю: новый Parse всегда даёт новый SolverSpec,
// даже для того же текста.
type SolverSpec struct {
	// Text — исходный текст, отправляется workers без изменений.
	Text string

	// Patterns — аргументы директив pattern в порядке появления.
	Patterns []string

	// Depth — значение последней директивы depth (DefaultDepth, если её нет).
	Depth int

	// Total — размер пространства поиска: len(Patterns)^Depth.
	Total int64
}

// Parse разбирает текст solver.
//
// Строки, начинающиеся (после trim) с "pattern ", добавляют pattern.
// Строки, начинающиеся с "depth ", задают глубину; побеждает последняя.
// Остальные строки игнорируются. Ошибка возвращается только для depth,
// аргумент которой не целое неотрицательное число, и для слишком большого пространства.
func Parse(text string) (*SolverSpec, error) {
	spec := &SolverSpec{
		Text:  text,
		Depth: DefaultDepth,
	}

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)

		if strings.HasPrefix(line, patternDirective) {
			spec.Patterns = append(spec.Patterns, strings.TrimSpace(line[len(patternDirective):]))
			continue
		}

		if strings.HasPrefix(line, depthDirective) {
			depth, err := strconv.Atoi(strings.TrimSpace(line[len(depthDirective):]))
			if err != nil {
				return nil, &ParseError{Line: i + 1, Text: line, Err: ErrInvalidDepth}
			}
			if depth < 0 {
				return nil, &ParseError{Line: i + 1, Text: line, Err: ErrNegativeDepth}
			}
			spec.Depth = depth
		}
	}

	total, err := SpaceSize(len(spec.Patterns), spec.Depth)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	spec.Total = total

	return spec, nil
}

// SpaceSize вычисляет patterns^depth.
//
// 0^0 = 1, 0^d = 0 для d > 0. Результат больше MaxTotal — ошибка.
func SpaceSize(patterns, depth int) (int64, error) {
	if depth < 0 {
		return 0, ErrNegativeDepth
	}

	switch {
	case depth == 0:
		return 1, nil
	case patterns == 0:
		return 0, nil
	case patterns == 1:
		return 1, nil
	}

	total := int64(1)
	for i := 0; i < depth; i++ {
		if total > MaxTotal/int64(patterns) {
			return 0, spaceTooLarge(patterns, depth)
		}
		total *= int64(patterns)
	}

	if total > MaxTotal {
		return 0, spaceTooLarge(patterns, depth)
	}

	return total, nil
}

func spaceTooLarge(patterns, depth int) error {
	return fmt.Errorf("%w: %d patterns at depth %d exceed the limit of %d assemblies, lower depth or remove patterns",
		ErrSpaceTooLarge, patterns, depth, MaxTotal)
}
