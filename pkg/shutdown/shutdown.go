// Package shutdown writes crash diagnostics for fatal startup errors so
// operators get a dump even when the process exits before logging is
// fully wired.
package shutdown

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"jurydb/pkg/logger"
	"jurydb/pkg/state"
)

// Abort logs a fatal error, writes a crash dump and exits with status 2.
func Abort(contextMsg string, err error) {
	logger.Error("startup_fatal", "msg", contextMsg, "error", err)
	dumpPath, derr := writeCrashDump(contextMsg, err)
	if derr != nil {
		logger.Error("write_crash_dump_failed", "error", derr)
		fmt.Fprintf(os.Stderr, "FAILED TO WRITE CRASH DUMP: %v\n", derr)
	} else {
		logger.Info("wrote_crash_dump", "path", dumpPath)
		fmt.Fprintf(os.Stderr, "CRASH DUMP WRITTEN: %s\n", dumpPath)
	}
	os.Exit(2)
}

func writeCrashDump(reason string, err error) (string, error) {
	crashDir := state.PathsVar.Crash
	if crashDir == "" {
		crashDir = "./crash"
	}
	if e := os.MkdirAll(crashDir, 0o700); e != nil {
		return "", fmt.Errorf("failed to create crash dir: %w", e)
	}

	ts := time.Now().UnixNano()
	dumpPath := filepath.Join(crashDir, fmt.Sprintf("crash-%d.log", ts))

	f, ferr := os.CreateTemp(crashDir, ".crash-*.tmp")
	if ferr != nil {
		return "", fmt.Errorf("failed to create temp crash file: %w", ferr)
	}
	tmpName := f.Name()
	defer func() { _ = os.Remove(tmpName) }()

	fmt.Fprintf(f, "time: %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(f, "reason: %s\n", reason)
	fmt.Fprintf(f, "error: %v\n", err)
	fmt.Fprintf(f, "\n--- stacks ---\n")
	buf := make([]byte, 1<<20)
	n := runtime.Stack(buf, true)
	_, _ = f.Write(buf[:n])
	if cerr := f.Close(); cerr != nil {
		return "", cerr
	}
	if rerr := os.Rename(tmpName, dumpPath); rerr != nil {
		return "", rerr
	}
	return dumpPath, nil
}
