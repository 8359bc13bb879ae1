package runtime

import (
	"sync"
	"time"
)

// Metrics collects build timings for the end-of-run summary.
type Metrics interface {
	// RecordStep records a build step with its duration and success status.
	RecordStep(step string, duration time.Duration, success bool)
	// RecordDownload records an asset download.
	RecordDownload(asset string, attempts int, bytes int64, duration time.Duration, success bool)
	// GetSnapshot returns the current metrics snapshot.
	GetSnapshot() MetricsSnapshot
	// Reset clears all metrics (useful for testing).
	Reset()
}

// StepMetrics describes one build step.
type StepMetrics struct {
	Name     string
	Duration time.Duration
	Success  bool
}

// DownloadMetrics describes one asset download.
type DownloadMetrics struct {
	Asset    string
	Attempts int
	Bytes    int64
	Duration time.Duration
	Success  bool
}

// MetricsSnapshot contains a point-in-time view of collected metrics.
type MetricsSnapshot struct {
	Steps     []StepMetrics
	Downloads []DownloadMetrics
	TotalTime time.Duration
	Failed    int
}

// NoOpMetrics is a metrics collector that discards all metrics.
type NoOpMetrics struct{}

func (n *NoOpMetrics) RecordStep(_ string, _ time.Duration, _ bool)                    {}
func (n *NoOpMetrics) RecordDownload(_ string, _ int, _ int64, _ time.Duration, _ bool) {}
func (n *NoOpMetrics) GetSnapshot() MetricsSnapshot                                    { return MetricsSnapshot{} }
func (n *NoOpMetrics) Reset()                                                          {}

// InMemoryMetrics is a thread-safe in-memory metrics collector.
type InMemoryMetrics struct {
	mu        sync.RWMutex
	steps     []StepMetrics
	downloads []DownloadMetrics
}

// NewInMemoryMetrics creates a new in-memory metrics collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{}
}

func (m *InMemoryMetrics) RecordStep(step string, duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, StepMetrics{Name: step, Duration: duration, Success: success})
}

func (m *InMemoryMetrics) RecordDownload(asset string, attempts int, bytes int64, duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloads = append(m.downloads, DownloadMetrics{
		Asset:    asset,
		Attempts: attempts,
		Bytes:    bytes,
		Duration: duration,
		Success:  success,
	})
}

func (m *InMemoryMetrics) GetSnapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := MetricsSnapshot{
		Steps:     append([]StepMetrics(nil), m.steps...),
		Downloads: append([]DownloadMetrics(nil), m.downloads...),
	}
	for _, step := range m.steps {
		snapshot.TotalTime += step.Duration
		if !step.Success {
			snapshot.Failed++
		}
	}
	return snapshot
}

func (m *InMemoryMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = nil
	m.downloads = nil
}
