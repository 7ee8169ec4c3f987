package simulation

import (
	"log"

	"github.com/rs/xid"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/hierarchy"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/monitoring"
)

// Builder can be used to build a simulation.
type Builder struct {
	config       trace.HierarchyConfig
	monitorOn    bool
	monitorPort  int
	recordOn     bool
	recordPath   string
	accessLogger *log.Logger
}

// MakeBuilder creates a builder for a 1 KiB 2-way L1 and an 8 KiB 4-way L2,
// both with 16-byte lines, without monitoring or recording.
func MakeBuilder() Builder {
	return Builder{
		config: trace.HierarchyConfig{
			L1: cache.Config{
				ByteSize:         1 * cache.KB,
				BlockSize:        16,
				WayAssociativity: 2,
			},
			L2: cache.Config{
				ByteSize:         8 * cache.KB,
				BlockSize:        16,
				WayAssociativity: 4,
			},
		},
	}
}

// WithConfig sets the configs of both cache levels.
func (b Builder) WithConfig(config trace.HierarchyConfig) Builder {
	b.config = config
	return b
}

// WithMonitoring turns on the HTTP monitor. Port 0 picks a random port.
func (b Builder) WithMonitoring(port int) Builder {
	b.monitorOn = true
	b.monitorPort = port

	return b
}

// WithDataRecording records every access and the final statistics into
// <path>.sqlite3. An empty path picks a unique name.
func (b Builder) WithDataRecording(path string) Builder {
	b.recordOn = true
	b.recordPath = path

	return b
}

// WithAccessLogger prints every classified access to the logger.
func (b Builder) WithAccessLogger(logger *log.Logger) Builder {
	b.accessLogger = logger
	return b
}

// Build creates the banks and wires the controller, statistics and the
// optional tracers. It returns a *cache.ConfigError for invalid configs.
func (b Builder) Build() (*Simulation, error) {
	l1, err := cache.MakeBuilder().WithConfig(b.config.L1).Build("L1")
	if err != nil {
		return nil, err
	}

	l2, err := cache.MakeBuilder().WithConfig(b.config.L2).Build("L2")
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		id:         xid.New().String(),
		l1:         l1,
		l2:         l2,
		controller: hierarchy.NewController(l1, l2),
	}

	s.stats = hierarchy.NewStatsCollector(s.controller)

	if b.accessLogger != nil {
		s.controller.AcceptHook(trace.NewLogTracer(b.accessLogger))
	}

	if b.recordOn {
		s.dataRecorder = datarecording.New(b.recordPath)
		s.controller.AcceptHook(trace.NewDBTracer(s.dataRecorder))
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor().WithPortNumber(b.monitorPort)
		s.monitor.RegisterStats(s.stats)
		s.monitorURL = s.monitor.StartServer()
	}

	return s, nil
}
