package trace

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var (
	shutdownMu       sync.Mutex
	shutdownSessions []*Tracer

	signalOnce sync.Once
)

// registerAutoStop puts this session on the process-wide shutdown
// list so an operator who forgets to call Stop still gets output.
// Called from the configuration toggles, under t.mu.
func (t *Tracer) registerAutoStop() {
	t.registerOnce.Do(func() {
		shutdownMu.Lock()
		shutdownSessions = append(shutdownSessions, t)
		shutdownMu.Unlock()
		signalOnce.Do(installSignalHandler)
	})
}

// Shutdown stops every registered session, flushing whatever trees
// they assembled. Go has no exit hook for a normal return from main,
// so programs that rely on auto-finalization should defer this.
func Shutdown() {
	shutdownMu.Lock()
	sessions := append([]*Tracer(nil), shutdownSessions...)
	shutdownMu.Unlock()
	for _, s := range sessions {
		s.Stop()
	}
}

// installSignalHandler covers termination by signal. The signal is
// re-raised after flushing so the process exit status is unchanged.
func installSignalHandler() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-ch
		Shutdown()
		signal.Stop(ch)
		if p, err := os.FindProcess(os.Getpid()); err == nil {
			p.Signal(sig)
		}
	}()
}
