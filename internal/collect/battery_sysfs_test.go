package collect

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeBatteryDir(t *testing.T, root, name string, files map[string]string) {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for file, content := range files {
		if err := os.WriteFile(filepath.Join(dir, file), []byte(content+"\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", file, err)
		}
	}
}

func TestFetchBatteryEnergyVariant(t *testing.T) {
	root := t.TempDir()
	writeBatteryDir(t, root, "BAT0", map[string]string{
		"type":               "Battery",
		"capacity":           "73",
		"status":             "Discharging",
		"energy_full":        "45000000",
		"energy_full_design": "50000000",
	})

	status := fetchBatteryFrom(context.Background(), root)

	if !status.Present {
		t.Fatal("expected battery present")
	}
	if !status.ChargePercent.Available || status.ChargePercent.Value != 73 {
		t.Errorf("charge = %+v, want 73", status.ChargePercent)
	}
	if !status.HealthPercent.Available || status.HealthPercent.Value != 90 {
		t.Errorf("health = %+v, want 90", status.HealthPercent)
	}
	if status.State != "discharging" {
		t.Errorf("state = %q, want discharging", status.State)
	}
}

func TestFetchBatteryChargeVariant(t *testing.T) {
	root := t.TempDir()
	writeBatteryDir(t, root, "BAT1", map[string]string{
		"type":               "Battery",
		"capacity":           "100",
		"status":             "Full",
		"charge_full":        "3000000",
		"charge_full_design": "4000000",
	})

	status := fetchBatteryFrom(context.Background(), root)

	if !status.HealthPercent.Available || status.HealthPercent.Value != 75 {
		t.Errorf("health = %+v, want 75", status.HealthPercent)
	}
	if status.State != "full" {
		t.Errorf("state = %q, want full", status.State)
	}
}

func TestFetchBatteryHealthCappedAt100(t *testing.T) {
	root := t.TempDir()
	writeBatteryDir(t, root, "BAT0", map[string]string{
		"type":               "Battery",
		"capacity":           "50",
		"status":             "Charging",
		"energy_full":        "52000000",
		"energy_full_design": "50000000",
	})

	status := fetchBatteryFrom(context.Background(), root)

	if !status.HealthPercent.Available || status.HealthPercent.Value != 100 {
		t.Errorf("health = %+v, want capped 100", status.HealthPercent)
	}
}

func TestFetchBatteryNoBattery(t *testing.T) {
	root := t.TempDir()
	// AC adapter only, no battery entries.
	writeBatteryDir(t, root, "AC", map[string]string{
		"type": "Mains",
	})

	status := fetchBatteryFrom(context.Background(), root)

	if status.Present {
		t.Error("expected no battery")
	}
	if status.ChargePercent.Available {
		t.Errorf("charge should be unavailable, got %+v", status.ChargePercent)
	}
	if status.State != "unknown" {
		t.Errorf("state = %q, want unknown", status.State)
	}
}

func TestFetchBatteryMissingDir(t *testing.T) {
	status := fetchBatteryFrom(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"))

	if status.Present {
		t.Error("expected no battery")
	}
	if status.ChargePercent.Available {
		t.Errorf("charge should be unavailable, got %+v", status.ChargePercent)
	}
}

func TestFetchBatteryMissingCapacity(t *testing.T) {
	root := t.TempDir()
	writeBatteryDir(t, root, "BAT0", map[string]string{
		"type":   "Battery",
		"status": "Charging",
	})

	status := fetchBatteryFrom(context.Background(), root)

	if !status.Present {
		t.Fatal("expected battery present")
	}
	if status.ChargePercent.Available {
		t.Errorf("charge should be unavailable without capacity file, got %+v", status.ChargePercent)
	}
	if status.HealthPercent.Available {
		t.Errorf("health should be unavailable without design capacity, got %+v", status.HealthPercent)
	}
}
