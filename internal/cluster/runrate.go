package cluster

import (
	"math"
	"time"

	"github.com/shaiso/Coldcluster/internal/domain"
)

// runSampleWindow — сколько последних замеров участвует в оценке.
const runSampleWindow = 3

// runWindow — скользящее окно замеров одного worker'а.
type runWindow struct {
	samples []domain.RunSample
}

// observe добавляет замер и возвращает новую оценку run rate
// (программ в секунду, округление вверх). Nil — оценки нет.
func (w *runWindow) observe(programsRun int64, at time.Time) *int64 {
	w.samples = append(w.samples, domain.RunSample{ProgramsRun: programsRun, At: at})
	if len(w.samples) > runSampleWindow {
		w.samples = w.samples[len(w.samples)-runSampleWindow:]
	}

	return estimateRunRate(w.samples)
}

// len возвращает количество замеров в окне.
func (w *runWindow) len() int {
	return len(w.samples)
}

// estimateRunRate усредняет наклон (later-earlier)/секунды по соседним парам.
// Пары с нулевым или отрицательным интервалом пропускаются.
func estimateRunRate(samples []domain.RunSample) *int64 {
	if len(samples) < 2 {
		return nil
	}

	var sum float64
	var pairs int
	for i := 0; i+1 < len(samples); i++ {
		earlier, later := samples[i], samples[i+1]

		seconds := later.At.Sub(earlier.At).Seconds()
		if seconds <= 0 {
			continue
		}

		sum += float64(later.ProgramsRun-earlier.ProgramsRun) / seconds
		pairs++
	}

	if pairs == 0 {
		return nil
	}

	rate := int64(math.Ceil(sum / float64(pairs)))
	return &rate
}
