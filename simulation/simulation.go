// Package simulation replays a memory trace through an L1/L2 cache
// hierarchy.
package simulation

import (
	"errors"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/hierarchy"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/monitoring"
)

// SummaryTableName is the table that holds the final per-level statistics.
const SummaryTableName = "cache_summary"

type summaryEntry struct {
	SimulationID string
	Level        string
	Reads        uint64
	Writes       uint64
	ReadHits     uint64
	ReadMisses   uint64
	WriteHits    uint64
	WriteMisses  uint64
	Evictions    uint64
	HitRate      float64
}

// A ProgressTracker is told how many trace bytes have been consumed.
type ProgressTracker interface {
	Update(bytesRead int64)
}

// ProgressFunc adapts a function to the ProgressTracker interface.
type ProgressFunc func(bytesRead int64)

// Update calls f(bytesRead).
func (f ProgressFunc) Update(bytesRead int64) {
	f(bytesRead)
}

// A RunReport summarizes one replay.
type RunReport struct {
	Accesses uint64
	Skipped  int
}

// A Simulation owns the two cache banks and everything observing them.
type Simulation struct {
	id         string
	l1         *cache.Bank
	l2         *cache.Bank
	controller *hierarchy.Controller
	stats      *hierarchy.StatsCollector

	dataRecorder datarecording.DataRecorder
	monitor      *monitoring.Monitor
	monitorURL   string
}

// ID returns the unique ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// L1 returns the first level bank.
func (s *Simulation) L1() *cache.Bank {
	return s.l1
}

// L2 returns the second level bank.
func (s *Simulation) L2() *cache.Bank {
	return s.l2
}

// Controller returns the hierarchy controller.
func (s *Simulation) Controller() *hierarchy.Controller {
	return s.controller
}

// Stats returns the statistics collected so far.
func (s *Simulation) Stats() []hierarchy.LevelStats {
	return s.stats.Snapshot()
}

// DataRecorder returns the data recorder, or nil if recording is off.
func (s *Simulation) DataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// Monitor returns the monitor, or nil if monitoring is off.
func (s *Simulation) Monitor() *monitoring.Monitor {
	return s.monitor
}

// MonitorURL returns the address of the monitor, or "" if it is off.
func (s *Simulation) MonitorURL() string {
	return s.monitorURL
}

// Run feeds every access from the reader to the controller in order and
// writes one outcome line per access. It stops at the first read or write
// error. Outcomes written before the error are flushed.
func (s *Simulation) Run(
	r *trace.Reader,
	w *trace.OutcomeWriter,
	trackers ...ProgressTracker,
) (RunReport, error) {
	var report RunReport

	for r.Next() {
		result := s.controller.Access(r.Access())
		report.Accesses++

		if err := w.Write(result); err != nil {
			return report, err
		}

		for _, t := range trackers {
			t.Update(r.BytesRead())
		}
	}

	report.Skipped = r.Skipped()

	if err := w.Flush(); err != nil {
		return report, err
	}

	return report, r.Err()
}

// Terminate records the final statistics, closes the recorder and stops the
// monitor. The recorder is closed even if the monitor fails to stop.
func (s *Simulation) Terminate() error {
	var errs []error

	if s.dataRecorder != nil {
		s.recordSummary()
		errs = append(errs, s.dataRecorder.Close())
	}

	if s.monitor != nil {
		errs = append(errs, s.monitor.StopServer())
	}

	return errors.Join(errs...)
}

func (s *Simulation) recordSummary() {
	s.dataRecorder.CreateTable(SummaryTableName, summaryEntry{})

	for _, level := range s.stats.Snapshot() {
		s.dataRecorder.InsertData(SummaryTableName, summaryEntry{
			SimulationID: s.id,
			Level:        level.Level,
			Reads:        level.Reads,
			Writes:       level.Writes,
			ReadHits:     level.ReadHits,
			ReadMisses:   level.ReadMisses,
			WriteHits:    level.WriteHits,
			WriteMisses:  level.WriteMisses,
			Evictions:    level.Evictions,
			HitRate:      level.HitRate(),
		})
	}
}
