package main

import (
	"fmt"
	"os"

	"imagedup/cache"
	"imagedup/logging"
	"imagedup/signalhandler"
)

// interrupted runs before an interrupt exits the process. An interrupted
// scan never replaces the cache; only a half-written temp file is removed.
func interrupted() {
	cache.RemovePartialSaves()
	logging.CloseLogger()
}

func main() {
	signalhandler.SetupHandler(interrupted)

	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		logging.CloseLogger()
		os.Exit(1)
	}
	logging.CloseLogger()
}
