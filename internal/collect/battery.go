package collect

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const powerSupplyDir = "/sys/class/power_supply"

// BatteryStatus is the full battery state for the battery probe. Desktops and
// VMs have no battery; every field is then unavailable.
type BatteryStatus struct {
	Present       bool    `json:"present"`
	ChargePercent Reading `json:"chargePercent"`
	HealthPercent Reading `json:"healthPercent"`
	State         string  `json:"state"` // charging, discharging, full, unknown
}

// FetchBattery reads the first battery under /sys/class/power_supply.
// gopsutil has no battery support, so this reads sysfs directly.
func FetchBattery(ctx context.Context) BatteryStatus {
	return fetchBatteryFrom(ctx, powerSupplyDir)
}

func fetchBatteryFrom(_ context.Context, dir string) BatteryStatus {
	status := BatteryStatus{
		ChargePercent: Unavailable("no battery detected"),
		HealthPercent: Unavailable("no battery detected"),
		State:         "unknown",
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		status.ChargePercent = Unavailable("power supply information not accessible")
		status.HealthPercent = status.ChargePercent
		return status
	}

	for _, entry := range entries {
		base := filepath.Join(dir, entry.Name())
		kind, err := readSysfsString(filepath.Join(base, "type"))
		if err != nil || kind != "Battery" {
			continue
		}

		status.Present = true

		if capacity, err := readSysfsInt(filepath.Join(base, "capacity")); err == nil {
			status.ChargePercent = Value(float64(capacity))
		} else {
			status.ChargePercent = Unavailable("battery does not report capacity")
		}

		if state, err := readSysfsString(filepath.Join(base, "status")); err == nil {
			status.State = strings.ToLower(state)
		}

		status.HealthPercent = batteryHealth(base)
		return status
	}

	return status
}

// batteryHealth computes full-charge capacity relative to design capacity.
// Kernels expose either energy_* or charge_* depending on the driver.
func batteryHealth(base string) Reading {
	for _, prefix := range []string{"energy", "charge"} {
		full, errFull := readSysfsInt(filepath.Join(base, prefix+"_full"))
		design, errDesign := readSysfsInt(filepath.Join(base, prefix+"_full_design"))
		if errFull == nil && errDesign == nil && design > 0 {
			pct := float64(full) / float64(design) * 100
			if pct > 100 {
				pct = 100
			}
			return Value(pct)
		}
	}
	return Unavailable("battery does not report design capacity")
}

func readSysfsString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func readSysfsInt(path string) (int64, error) {
	s, err := readSysfsString(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(s, 10, 64)
}
