package collect

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"runtime"
)

// SystemErrorCount counts error-priority log entries over the last 24 hours.
// Hosts without journald (or without read access to the journal) report
// unavailable, which the system health probe treats as incomplete data.
func SystemErrorCount() Collector {
	return CollectorFunc(func(ctx context.Context) Reading {
		if runtime.GOOS != "linux" {
			return Unavailable("system log query not supported on " + runtime.GOOS)
		}

		out, err := exec.CommandContext(ctx,
			"journalctl", "--priority", "err", "--since", "-24h",
			"--no-pager", "--quiet", "--output", "cat",
		).Output()
		if err != nil {
			return UnavailableErr(err)
		}

		count := 0
		scanner := bufio.NewScanner(bytes.NewReader(out))
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if len(bytes.TrimSpace(scanner.Bytes())) > 0 {
				count++
			}
		}
		return Value(float64(count))
	})
}
