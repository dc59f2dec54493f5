package signalhandler

import (
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"imagedup/logging"
)

// exit is replaced in tests
var exit = os.Exit

// SetupHandler terminates the process on SIGINT or SIGTERM after running
// cleanup. A scan interrupted this way never writes its cache, so the cache
// from the previous run stays valid.
func SetupHandler(cleanup func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		handleSignal(sig, cleanup)
	}()
}

func handleSignal(sig os.Signal, cleanup func()) {
	logging.LogWarning("Received %v, stopping without writing the cache", sig)
	if cleanup != nil {
		cleanup()
	}
	exit(exitCode(sig))
}

// exitCode follows the shell convention of 128 + signal number
func exitCode(sig os.Signal) int {
	if s, ok := sig.(syscall.Signal); ok {
		return 128 + int(s)
	}
	return 1
}

// GetOptimalProcs returns the default number of hashing workers: one per
// CPU the Go scheduler may use
func GetOptimalProcs() int {
	maxProcs := runtime.GOMAXPROCS(0)
	if maxProcs < 1 {
		maxProcs = 1
	}
	return maxProcs
}
