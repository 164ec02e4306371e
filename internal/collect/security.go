package collect

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// runCommand is swappable for tests.
var runCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// SecurityPosture is the batched antivirus + firewall quick read. Each field
// is 1 (active), 0 (inactive), or unavailable. The two are fetched together
// because both come from the same cheap service queries and the triage path
// wants a single fan-out slot for them.
type SecurityPosture struct {
	Antivirus Reading `json:"antivirus"`
	Firewall  Reading `json:"firewall"`
}

var avDaemons = []string{
	"clamd", "freshclam", "savd", "mfetpd", "wdavdaemon", "falcon-sensor",
}

// FetchSecurityPosture probes the local antivirus daemon and firewall state.
func FetchSecurityPosture(ctx context.Context) SecurityPosture {
	return SecurityPosture{
		Antivirus: antivirusActive(ctx),
		Firewall:  firewallActive(ctx),
	}
}

// antivirusActive scans the process table for known endpoint-protection
// daemons. Absence is a real finding (0), not unavailable; only a failed
// process walk is unavailable.
func antivirusActive(ctx context.Context) Reading {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return UnavailableErr(err)
	}

	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		name = strings.ToLower(name)
		for _, daemon := range avDaemons {
			if strings.Contains(name, daemon) {
				return Value(1)
			}
		}
	}
	return Value(0)
}

// firewallActive queries the platform firewall service. On Linux it tries
// firewalld then ufw; anything else is reported unavailable rather than
// guessed.
func firewallActive(ctx context.Context) Reading {
	if runtime.GOOS != "linux" {
		return Unavailable("firewall query not supported on " + runtime.GOOS)
	}

	active, answered := systemdUnitActive(ctx, "firewalld")
	if answered && active {
		return Value(1)
	}

	out, err := runCommand(ctx, "ufw", "status")
	if err == nil {
		if strings.Contains(string(out), "Status: active") {
			return Value(1)
		}
		return Value(0)
	}

	if answered {
		// firewalld answered "inactive" and no ufw to fall back on.
		return Value(0)
	}
	return Unavailable("no supported firewall manager found")
}

// systemdUnitActive reports whether the unit is active, and whether systemctl
// produced a definitive answer at all. systemctl exits non-zero for inactive
// units while still naming the state on stdout, so a non-zero exit with a
// recognizable state is an answer, not a failed query.
func systemdUnitActive(ctx context.Context, unit string) (active, answered bool) {
	out, err := runCommand(ctx, "systemctl", "is-active", unit)
	state := strings.TrimSpace(string(out))
	if err == nil {
		return state == "active", true
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		switch state {
		case "inactive", "failed", "activating", "deactivating":
			return false, true
		}
	}
	return false, false
}
