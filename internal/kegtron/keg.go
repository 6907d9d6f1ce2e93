package kegtron

import (
	"fmt"
	"math"
	"strings"
)

// lowStockThreshold marks a keg as running low in the rich status rendering.
const lowStockThreshold = 10

// Keg represents a single tap on a Kegtron device, built from one telemetry
// snapshot. Kegs are value types: each refresh rebuilds them wholesale and
// discards the old ones.
type Keg struct {
	Maker          string
	Style          string
	Name           string
	DrinkType      string
	DrinkSize      float64
	VolumeStart    float64
	VolumeConsumed float64
	DeviceName     string
	Port           int
}

// NewKeg builds a Keg from the paired config and usage entries for one port.
func NewKeg(cfg PortConfig, usage PortUsage, deviceName string, port int) Keg {
	return Keg{
		Maker:          cfg.Maker,
		Style:          cfg.Style,
		Name:           strings.TrimSpace(cfg.UserName),
		DrinkType:      cfg.UserDesc,
		DrinkSize:      cfg.DrinkSize,
		VolumeStart:    usage.VolStart,
		VolumeConsumed: usage.VolDisp,
		DeviceName:     deviceName,
		Port:           port,
	}
}

// Remaining reports the whole drinks left in the keg. It never goes negative;
// telemetry reporting overconsumption simply reads as zero.
func (k Keg) Remaining() int {
	if k.DrinkSize <= 0 {
		return 0
	}
	rem := int(math.Floor((k.VolumeStart - k.VolumeConsumed) / k.DrinkSize))
	if rem < 0 {
		return 0
	}
	return rem
}

// Empty reports whether the keg has nothing left to pour. A keg named "empty"
// (any case, surrounding whitespace ignored) counts regardless of volumes.
func (k Keg) Empty() bool {
	return strings.EqualFold(strings.TrimSpace(k.Name), "empty") || k.Remaining() == 0
}

// TextStatus renders a plain-text status line for the keg.
func (k Keg) TextStatus() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Keg %d: %s -", k.Port, k.DrinkType)
	if k.Style != "" {
		fmt.Fprintf(&b, " %s -", k.Style)
	}
	if k.Maker != "" {
		fmt.Fprintf(&b, " %s |", k.Maker)
	}
	fmt.Fprintf(&b, " %s\n", k.Name)
	if k.Empty() {
		b.WriteString("This keg is empty")
	} else {
		fmt.Fprintf(&b, "%d drinks remaining", k.Remaining())
	}
	return b.String()
}

// MarkdownStatus renders the keg as Slack mrkdwn, with an error marker when
// empty and a warning marker when stock runs low.
func (k Keg) MarkdownStatus() string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* -", k.DrinkType)
	if k.Style != "" {
		fmt.Fprintf(&b, " _%s_ -", k.Style)
	}
	if k.Maker != "" {
		fmt.Fprintf(&b, " %s |", k.Maker)
	}
	fmt.Fprintf(&b, " %s\n", k.Name)
	if k.Empty() {
		b.WriteString(":x: This keg is empty")
		return b.String()
	}
	rem := k.Remaining()
	if rem < lowStockThreshold {
		b.WriteString(":warning:")
	}
	fmt.Fprintf(&b, " `%d` drinks remaining", rem)
	return b.String()
}

// DiscoverKegs enumerates port0, port1, ... in the reported device state and
// builds a Keg per present port. Enumeration stops at the first missing port:
// the upstream API reports a contiguous port list and a hole terminates it, a
// quirk reproduced here rather than fixed. Zero kegs is a valid result.
func DiscoverKegs(state *DeviceState, deviceName string) []Keg {
	var kegs []Keg
	for port := 0; ; port++ {
		key := fmt.Sprintf("port%d", port)
		cfg, ok := state.Config[key]
		if !ok {
			break
		}
		kegs = append(kegs, NewKeg(cfg, state.ConfigReadonly[key], deviceName, port))
	}
	return kegs
}
