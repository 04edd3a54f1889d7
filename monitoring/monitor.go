// Package monitoring turns a scrub controller into a web server, so that the
// ground segment can read its telemetry and command it.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/psp/hooking"
	"github.com/sarchlab/psp/idgen"
	"github.com/sarchlab/psp/log"
	"github.com/sarchlab/psp/monitoring/web"
	"github.com/sarchlab/psp/scrub"
)

// Scrubber is what the monitor needs from a scrub controller.
type Scrubber interface {
	hooking.Hookable

	Name() string
	PageSize() uint64

	Init() error
	Enable() error
	Disable() error
	Delete() error
	Trigger() error
	Set(candidate scrub.Config) error

	IsRunning() bool
	Snapshot() scrub.Config
	Stats(talkative bool) scrub.ErrorStats
}

// Monitor can turn a scrub controller into a server and allows external
// monitoring and controlling of it.
type Monitor struct {
	scrubber        Scrubber
	portNumber      int
	profileDuration time.Duration
	idGen           idgen.Generator
	log             log.Logger

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
	scrubBar         *ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		profileDuration: time.Second,
		idGen:           idgen.NewSequential(),
		log:             log.NewTestLogger(nil),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		m.log.Warn().Int("port", portNumber).
			Msg("port number not allowed for the monitoring server, using a random port")

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithProfileDuration sets how long a CPU profile request samples for.
func (m *Monitor) WithProfileDuration(d time.Duration) *Monitor {
	m.profileDuration = d
	return m
}

// WithLogger sets the logger.
func (m *Monitor) WithLogger(logger log.Logger) *Monitor {
	m.log = logger.Scoped("MONITOR")
	return m
}

// RegisterScrubber registers the scrub controller to be monitored. A
// progress bar follows its passes.
func (m *Monitor) RegisterScrubber(s Scrubber) {
	m.scrubber = s
	m.scrubBar = m.CreateProgressBar(s.Name(), regionPages(s.Snapshot(), s.PageSize()))

	s.AcceptHook(&passHook{bar: m.scrubBar, pageSize: s.PageSize()})
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        m.idGen.Generate(),
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

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Handler returns the router serving the monitoring API and pages.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/scrub/config", m.getConfig).Methods(http.MethodGet)
	r.HandleFunc("/api/scrub/config", m.putConfig).Methods(http.MethodPut)
	r.HandleFunc("/api/scrub/stats", m.getStats).Methods(http.MethodGet)
	r.HandleFunc("/api/scrub/detail", m.scrubberDetail).Methods(http.MethodGet)
	r.HandleFunc("/api/scrub/field/{path}", m.scrubberField).Methods(http.MethodGet)
	r.HandleFunc("/api/scrub/{command}", m.command).Methods(http.MethodPost)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d", listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring scrubber with %s\n", url)

	go func() {
		err := http.Serve(listener, m.Handler())
		dieOnErr(err)
	}()

	return url
}

func (m *Monitor) getConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, m.scrubber.Snapshot())
}

func (m *Monitor) putConfig(w http.ResponseWriter, r *http.Request) {
	candidate := m.scrubber.Snapshot()

	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	err := m.scrubber.Set(candidate)

	switch {
	case err == nil:
	case errors.Is(err, scrub.ErrValidation):
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	default:
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	m.syncBarTotal()

	writeJSON(w, m.scrubber.Snapshot())
}

// syncBarTotal restarts the scrub progress bar if the region changed.
func (m *Monitor) syncBarTotal() {
	total := regionPages(m.scrubber.Snapshot(), m.scrubber.PageSize())

	m.scrubBar.Lock()
	changed := total != m.scrubBar.Total
	m.scrubBar.Unlock()

	if changed {
		m.scrubBar.SetTotal(total)
	}
}

func (m *Monitor) getStats(w http.ResponseWriter, r *http.Request) {
	talkative, _ := strconv.ParseBool(r.URL.Query().Get("talkative"))

	writeJSON(w, m.scrubber.Stats(talkative))
}

func (m *Monitor) scrubberDetail(w http.ResponseWriter, _ *http.Request) {
	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.scrubber)
	serializer.SetMaxDepth(1)

	err := serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) scrubberField(w http.ResponseWriter, r *http.Request) {
	fields := strings.Split(mux.Vars(r)["path"], ".")

	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.scrubber)
	serializer.SetMaxDepth(1)

	if err := serializer.SetEntryPoint(fields); err != nil {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	err := serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) command(w http.ResponseWriter, r *http.Request) {
	commands := map[string]func() error{
		"init":    m.scrubber.Init,
		"enable":  m.scrubber.Enable,
		"disable": m.scrubber.Disable,
		"delete":  m.scrubber.Delete,
		"trigger": m.scrubber.Trigger,
	}

	name := mux.Vars(r)["command"]

	cmd, ok := commands[name]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "Error: unknown command %q", name)

		return
	}

	if err := cmd(); err != nil {
		m.log.Warn().Err(err).Str("command", name).Msg("scrub command failed")
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	m.log.Info().Str("command", name).Msg("scrub command executed")
	m.syncBarTotal()

	writeJSON(w, map[string]bool{"running": m.scrubber.IsRunning()})
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]progressBarSnapshot, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, bars)
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

	if err := pprof.StartCPUProfile(buf); err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	time.Sleep(m.profileDuration)

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
		panic(err)
	}
}

// regionPages counts the pages of the configured region.
func regionPages(cfg scrub.Config, pageSize uint64) uint64 {
	return pagesIn(cfg.StartAddr, cfg.EndAddr, pageSize)
}

func pagesIn(start, end, pageSize uint64) uint64 {
	if end <= start {
		return 0
	}

	return (end-1)/pageSize - start/pageSize + 1
}

// passHook moves the progress bar along with the passes of the scrub task.
type passHook struct {
	bar      *ProgressBar
	pageSize uint64
}

func (h *passHook) Func(ctx hooking.HookCtx) {
	pass, ok := ctx.Item.(scrub.Pass)
	if !ok {
		return
	}

	switch ctx.Pos {
	case scrub.HookPosPassStart:
		h.bar.IncrementInProgress(pagesIn(pass.Start, pass.End, h.pageSize))
	case scrub.HookPosPassEnd:
		h.bar.MoveInProgressToFinished(pagesIn(pass.Start, pass.End, h.pageSize))
	}
}
