// Package monitoring serves the progress and statistics of a running
// simulation over HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/rs/xid"
	"github.com/samber/lo"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/cachesim/mem/hierarchy"
)

// A StatsSource provides per-level statistics snapshots. It must be safe to
// call from the monitor's goroutines.
type StatsSource interface {
	Snapshot() []hierarchy.LevelStats
}

// Monitor can turn a simulation into a server and allows external monitoring
// of the simulation.
type Monitor struct {
	portNumber int
	stats      StatsSource
	listener   net.Listener

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// minPortNumber is the lowest port the monitor may listen on.
const minPortNumber = 1000

// WithPortNumber sets the port number of the monitor. Zero, or a port below
// 1000, picks a random port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < minPortNumber {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterStats sets where the monitor reads cache statistics from.
func (m *Monitor) RegisterStats(s StatsSource) {
	m.stats = s
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = lo.Without(m.progressBars, pb)
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/stats", m.listStats)
	r.HandleFunc("/api/stats/{level}", m.levelStats)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.HandleFunc("/", m.index)

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() string {
	listener, err := net.Listen("tcp", m.listenAddress())
	dieOnErr(err)

	m.listener = listener

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	r := m.router()
	go func() {
		err := http.Serve(listener, r)
		if err != nil && !isClosedErr(err) {
			log.Panic(err)
		}
	}()

	return url
}

func (m *Monitor) listenAddress() string {
	if m.portNumber < minPortNumber {
		return ":0"
	}

	return ":" + strconv.Itoa(m.portNumber)
}

// StopServer closes the listener started by StartServer.
func (m *Monitor) StopServer() error {
	if m.listener == nil {
		return nil
	}

	return m.listener.Close()
}

func isClosedErr(err error) bool {
	opErr, ok := err.(*net.OpError)
	return ok && opErr.Op == "accept"
}

const indexPage = `<!DOCTYPE html>
<html>
<head><title>cachesim monitor</title></head>
<body>
<h1>cachesim</h1>
<ul>
<li><a href="/api/progress">progress</a></li>
<li><a href="/api/stats">statistics</a></li>
<li><a href="/api/resource">resources</a></li>
</ul>
</body>
</html>
`

func (m *Monitor) index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := w.Write([]byte(indexPage))
	dieOnErr(err)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	statuses := lo.Map(m.progressBars,
		func(b *ProgressBar, _ int) ProgressStatus { return b.Status() })
	m.progressBarsLock.Unlock()

	writeJSON(w, statuses)
}

type levelSummary struct {
	hierarchy.LevelStats
	HitRate float64 `json:"hit_rate"`
}

func (m *Monitor) snapshot() []hierarchy.LevelStats {
	if m.stats == nil {
		return nil
	}

	return m.stats.Snapshot()
}

func (m *Monitor) listStats(w http.ResponseWriter, _ *http.Request) {
	summaries := lo.Map(m.snapshot(),
		func(s hierarchy.LevelStats, _ int) levelSummary {
			return levelSummary{LevelStats: s, HitRate: s.HitRate()}
		})

	writeJSON(w, summaries)
}

func (m *Monitor) levelStats(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["level"]

	stats, found := lo.Find(m.snapshot(),
		func(s hierarchy.LevelStats) bool { return s.Level == name })
	if !found {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Level not found"))
		dieOnErr(err)

		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&stats)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
