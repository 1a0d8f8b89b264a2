package system

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"statecast/internal/domain"
)

// DefaultPowerSupplyPath is where Linux exposes battery state.
const DefaultPowerSupplyPath = "/sys/class/power_supply"

// BatterySource polls the power-supply tree and emits BatteryChanged on
// every poll plus PowerConnected/PowerDisconnected edges. On hosts without a
// battery it emits nothing; Available reports that degraded state so callers
// can fall back to a documented default instead of failing.
type BatterySource struct {
	fanout
	root     string
	interval time.Duration
	cancel   context.CancelFunc

	available bool
	supply    string
	charging  bool
	primed    bool
}

// NewBatterySource polls root every interval.
func NewBatterySource(root string, interval time.Duration) *BatterySource {
	if root == "" {
		root = DefaultPowerSupplyPath
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &BatterySource{fanout: newFanout(), root: root, interval: interval}
}

// Available reports whether a battery supply was found at Start.
func (s *BatterySource) Available() bool { return s.available }

// Start probes for a battery and begins polling. Absence of a battery is
// not an error.
func (s *BatterySource) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.supply = findBatterySupply(s.root)
	if s.supply == "" {
		log.Printf("system: no battery under %s, battery events disabled", s.root)
		return
	}
	s.available = true

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		s.poll()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.poll()
			}
		}
	}()
}

// Stop halts polling. Safe to call before Start or twice.
func (s *BatterySource) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *BatterySource) poll() {
	level, scale, ok := readBatteryLevel(s.supply)
	if !ok {
		return
	}
	status := readSupplyField(s.supply, "status")
	charging := status == "Charging" || status == "Full"

	s.deliver(domain.NewEvent(domain.ActionBatteryChanged, map[string]any{
		domain.ExtraLevel:   level,
		domain.ExtraScale:   scale,
		domain.ExtraPlugged: status,
	}), false)

	if !s.primed || charging != s.charging {
		action := domain.ActionPowerDisconnected
		if charging {
			action = domain.ActionPowerConnected
		}
		if s.primed {
			log.Printf("system: power %s", action)
		}
		s.deliver(domain.NewEvent(action, map[string]any{domain.ExtraPlugged: status}), false)
	}
	s.primed = true
	s.charging = charging
}

// findBatterySupply returns the first supply directory of type Battery.
func findBatterySupply(root string) string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		dir := filepath.Join(root, e.Name())
		if readSupplyField(dir, "type") == "Battery" {
			return dir
		}
	}
	return ""
}

// readBatteryLevel prefers the charge_now/charge_full pair and falls back to
// the pre-scaled capacity field.
func readBatteryLevel(supply string) (level, scale int, ok bool) {
	now, okNow := readSupplyInt(supply, "charge_now")
	full, okFull := readSupplyInt(supply, "charge_full")
	if okNow && okFull && full > 0 {
		return now, full, true
	}
	capacity, okCap := readSupplyInt(supply, "capacity")
	if okCap {
		return capacity, 100, true
	}
	return 0, 0, false
}

func readSupplyField(dir, name string) string {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func readSupplyInt(dir, name string) (int, bool) {
	raw := readSupplyField(dir, name)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
