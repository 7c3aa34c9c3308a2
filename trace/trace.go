package trace

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type sessionState int

const (
	stateIdle sessionState = iota
	stateActive
)

const (
	defaultMaxDepth    = 100
	defaultMaxParamLen = 50
	defaultExpandDepth = 2
)

// defaultExcludePatterns drops this module's own frames plus vendored
// dependencies from capture.
var defaultExcludePatterns = []string{
	"callsite/calltrace",
	"/vendor/",
}

type config struct {
	maxDepth        int
	maxParamLen     int
	excludePatterns []string

	expandObjects bool
	expandDepth   int
	interactive   bool
	includeStdlib bool
	saveTarget    string
}

func defaultSessionConfig() config {
	return config{
		maxDepth:        defaultMaxDepth,
		maxParamLen:     defaultMaxParamLen,
		excludePatterns: defaultExcludePatterns,
		expandDepth:     defaultExpandDepth,
	}
}

// Tracer owns one tracing session: lifecycle state, configuration,
// the open-call stack and the finished roots. Construct with New and
// drive it explicitly; there is no package-level singleton.
//
// A single logical thread of control is the expected writer. Event
// handling is serialized by a mutex so concurrent instrumented
// goroutines cannot corrupt the stack, but their calls interleave
// into one tree; per-goroutine stacks are a deliberate non-feature.
type Tracer struct {
	mu     sync.Mutex
	source Source

	state sessionState
	cfg   config

	stack []frame
	roots []*Node
	begin time.Time

	// captureStructured is fixed at Start from the session config
	captureStructured bool

	out          io.Writer
	registerOnce sync.Once
}

// New creates an idle Tracer consuming events from source.
func New(source Source) *Tracer {
	return &Tracer{
		source: source,
		cfg:    defaultSessionConfig(),
		out:    os.Stdout,
	}
}

// SetOutput redirects the console sink, stdout by default.
func (t *Tracer) SetOutput(w io.Writer) *Tracer {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.out = w
	return t
}

// Start transitions Idle->Active, clearing any previous tree and
// installing the event hook. Calling Start while active is a no-op.
func (t *Tracer) Start() *Tracer {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startLocked()
	return t
}

func (t *Tracer) startLocked() {
	if t.state == stateActive {
		return
	}
	t.stack = nil
	t.roots = nil
	t.begin = time.Now()
	t.captureStructured = t.cfg.interactive || strings.HasSuffix(t.cfg.saveTarget, ".json")
	t.state = stateActive
	t.source.Install(t.handleEvent)
}

// Stop transitions Active->Idle, removes the hook, exports whatever
// tree has been assembled and resets session-scoped flags. Calling
// Stop while idle is a no-op, so output is produced exactly once.
func (t *Tracer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Tracer) stopLocked() {
	if t.state != stateActive {
		return
	}
	t.source.Remove()
	t.state = stateIdle
	t.export()

	// expand/interactive/includeStdlib are per-session
	t.cfg.expandObjects = false
	t.cfg.expandDepth = defaultExpandDepth
	t.cfg.interactive = false
	t.cfg.includeStdlib = false
}

// Save enables writing the trace to target when the session stops:
// a ".json" target gets the structured forest, anything else the
// flat text rendering. Starts the session if idle.
func (t *Tracer) Save(target string) *Tracer {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg.saveTarget = target
	t.registerAutoStop()
	t.startLocked()
	return t
}

// Interactive enables the self-contained interactive document,
// written to target when the session stops. Starts the session if
// idle.
func (t *Tracer) Interactive(target string) *Tracer {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg.interactive = true
	t.cfg.saveTarget = target
	t.registerAutoStop()
	t.startLocked()
	return t
}

// Expand turns on recursive value expansion in display output, down
// to depth levels. Starts the session if idle.
func (t *Tracer) Expand(depth int) *Tracer {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg.expandObjects = true
	if depth > 0 {
		t.cfg.expandDepth = depth
	}
	t.registerAutoStop()
	t.startLocked()
	return t
}

// IncludeStdlib captures standard-library calls, which are filtered
// out by default. Unlike the other toggles it does not start the
// session.
func (t *Tracer) IncludeStdlib() *Tracer {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg.includeStdlib = true
	t.registerAutoStop()
	return t
}

// With runs fn inside a started session and stops it on the way out,
// panic or not. Panics are re-raised, never suppressed.
func (t *Tracer) With(fn func()) {
	t.Start()
	defer t.Stop()
	fn()
}

func (t *Tracer) formatter() *formatter {
	return &formatter{
		maxLen:      t.cfg.maxParamLen,
		expand:      t.cfg.expandObjects,
		expandDepth: t.cfg.expandDepth,
	}
}

func (t *Tracer) export() {
	if t.cfg.interactive {
		t.exportInteractive()
		return
	}
	writeTree(t.out, t.roots)
	if t.cfg.saveTarget != "" {
		if strings.HasSuffix(t.cfg.saveTarget, ".json") {
			t.writeStructured(t.cfg.saveTarget)
		} else {
			t.writeTextFile(t.cfg.saveTarget)
		}
	}
}
