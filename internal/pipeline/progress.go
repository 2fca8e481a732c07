package pipeline

import (
	"sync"
	"time"
)

// Progress tracks the steps of one conversion run
type Progress struct {
	TotalSteps         int           `json:"total_steps"`
	CompletedSteps     int           `json:"completed_steps"`
	CurrentStep        string        `json:"current_step"`
	PercentComplete    float64       `json:"percent_complete"`
	StartTime          time.Time     `json:"start_time"`
	ElapsedTime        time.Duration `json:"elapsed_time"`
	EstimatedRemaining time.Duration `json:"estimated_remaining"`

	RecordsTotal    int `json:"records_total"`
	RecordsRetained int `json:"records_retained"`
}

// ProgressCallback is called after every step of a run
type ProgressCallback func(Progress)

// progressReporter fans progress updates out to callbacks
type progressReporter struct {
	callbacks []ProgressCallback
	current   Progress
	mutex     sync.Mutex
}

func (p *progressReporter) add(callback ProgressCallback) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.callbacks = append(p.callbacks, callback)
}

func (p *progressReporter) start(totalSteps int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.current = Progress{TotalSteps: totalSteps, StartTime: time.Now()}
}

func (p *progressReporter) records(total, retained int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.current.RecordsTotal = total
	p.current.RecordsRetained = retained
}

func (p *progressReporter) update(step string, completed int) {
	p.mutex.Lock()
	p.current.CurrentStep = step
	p.current.CompletedSteps = completed
	p.current.ElapsedTime = time.Since(p.current.StartTime)
	p.current.PercentComplete = float64(completed) / float64(p.current.TotalSteps) * 100

	p.current.EstimatedRemaining = 0
	if completed > 0 && completed < p.current.TotalSteps {
		perStep := p.current.ElapsedTime / time.Duration(completed)
		p.current.EstimatedRemaining = perStep * time.Duration(p.current.TotalSteps-completed)
	}

	snapshot := p.current
	callbacks := append([]ProgressCallback(nil), p.callbacks...)
	p.mutex.Unlock()

	for _, callback := range callbacks {
		callback(snapshot)
	}
}

// snapshot returns the latest progress
func (p *progressReporter) snapshot() Progress {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.current
}
