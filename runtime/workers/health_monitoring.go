package workers

import (
	"context"
	"log/slog"
	"morse-lab/domain/event"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Occupancy reports how many rooms are live and how many members they hold.
type Occupancy func() (rooms, members int)

// HealthMonitoringWorker samples the server process (CPU, RSS) together with
// room occupancy every metricInterval.
type HealthMonitoringWorker struct {
	log            *slog.Logger
	telemetryChan  chan event.Event
	metricInterval time.Duration
	occupancy      Occupancy
	pid            int32
}

func NewHealthMonitoringWorker(
	log *slog.Logger,
	telemetryChan chan event.Event,
	metricInterval time.Duration,
	occupancy Occupancy,
) *HealthMonitoringWorker {
	return &HealthMonitoringWorker{
		log:            log,
		telemetryChan:  telemetryChan,
		metricInterval: metricInterval,
		occupancy:      occupancy,
		pid:            int32(os.Getpid()),
	}
}

func (w *HealthMonitoringWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(w.pid)
	if err != nil {
		return err
	}
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping health sampling")
			return nil
		case <-ticker.C:
			sample, err := w.sample(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "error", err)
				continue
			}
			select {
			case <-ctx.Done():
				return nil
			case w.telemetryChan <- event.Event{Type: event.HealthSampleType, CreatedAt: time.Now().UTC(), Payload: sample}:
			default:
				w.log.Debug("Observability telemetry event lost")
			}
		}
	}
}

func (w *HealthMonitoringWorker) sample(p *process.Process) (event.HealthSample, error) {
	cpu, err := p.CPUPercent()
	if err != nil {
		return event.HealthSample{}, err
	}
	mem, err := p.MemoryInfo()
	if err != nil {
		return event.HealthSample{}, err
	}
	sample := event.HealthSample{PID: w.pid, Cpu: cpu, Ram: mem.RSS}
	if w.occupancy != nil {
		sample.Rooms, sample.Members = w.occupancy()
	}
	return sample, nil
}
