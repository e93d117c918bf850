package cluster

import "github.com/shaiso/Coldcluster/internal/domain"

// WorkSpace — пул нерешённых assemblies.
//
// Assembly удаляется из пула только при завершении, не при выдаче:
// unsolved включает и простаивающие, и выполняющиеся assemblies.
// Одна и та же assembly может быть выдана несколько раз.
type WorkSpace struct {
	// unsolved — нерешённые индексы в порядке возрастания, без дубликатов.
	unsolved []domain.Assembly

	// cursor — позиция в unsolved для следующей выдачи.
	// Индексирует текущее содержимое unsolved, поэтому ограничивается при каждом шаге.
	cursor int

	// total — размер пространства поиска.
	total int64
}

// NewWorkSpace создаёт пустой WorkSpace.
func NewWorkSpace() *WorkSpace {
	return &WorkSpace{}
}

// Reset заполняет пул индексами [0, total) и сбрасывает курсор.
func (w *WorkSpace) Reset(total int64) {
	if total < 0 {
		total = 0
	}

	w.unsolved = make([]domain.Assembly, total)
	for i := range w.unsolved {
		w.unsolved[i] = domain.Assembly(i)
	}
	w.cursor = 0
	w.total = total
}

// MarkSolved удаляет переданные индексы из пула.
// Индексы, которых в пуле нет, игнорируются. Возвращает число удалённых.
func (w *WorkSpace) MarkSolved(indices []domain.Assembly) int {
	if len(indices) == 0 || len(w.unsolved) == 0 {
		return 0
	}

	solved := make(map[domain.Assembly]struct{}, len(indices))
	for _, a := range indices {
		solved[a] = struct{}{}
	}

	kept := w.unsolved[:0]
	for _, a := range w.unsolved {
		if _, ok := solved[a]; !ok {
			kept = append(kept, a)
		}
	}

	removed := len(w.unsolved) - len(kept)
	w.unsolved = kept
	return removed
}

// IsExhausted возвращает true, если нерешённых assemblies не осталось.
func (w *WorkSpace) IsExhausted() bool {
	return len(w.unsolved) == 0
}

// Take выдаёт до n индексов по кругу, начиная с курсора.
//
// Дойдя до конца пула, курсор возвращается в 0, поэтому при n > Len()
// индексы повторяются. Меньше n возвращается только для пустого пула.
func (w *WorkSpace) Take(n int) []domain.Assembly {
	if n <= 0 || len(w.unsolved) == 0 {
		return nil
	}

	assigned := make([]domain.Assembly, 0, n)
	for len(assigned) < n {
		if w.cursor > len(w.unsolved)-1 {
			w.cursor = 0
		}
		assigned = append(assigned, w.unsolved[w.cursor])
		w.cursor++
	}

	return assigned
}

// Len возвращает количество нерешённых assemblies.
func (w *WorkSpace) Len() int {
	return len(w.unsolved)
}

// Total возвращает размер пространства поиска.
func (w *WorkSpace) Total() int64 {
	return w.total
}

// Cursor возвращает текущую позицию курсора.
func (w *WorkSpace) Cursor() int {
	return w.cursor
}

// Unsolved возвращает копию пула.
func (w *WorkSpace) Unsolved() []domain.Assembly {
	out := make([]domain.Assembly, len(w.unsolved))
	copy(out, w.unsolved)
	return out
}
