package kegtron

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// EmptyFunc is notified when a refresh observes a keg newly gone empty.
type EmptyFunc func(keg Keg)

// Device is a physical Kegtron unit hosting an ordered list of kegs. The keg
// list and its refresh timestamp are replaced together; readers never observe
// a half-updated list.
type Device struct {
	name    string
	tokens  []string
	client  *Client
	ttl     time.Duration
	onEmpty EmptyFunc

	flight singleflight.Group

	mu          sync.RWMutex
	kegs        []Keg
	lastRefresh time.Time
}

// NewDevice creates a device with the given name and telemetry credentials.
// onEmpty may be nil.
func NewDevice(name string, tokens []string, client *Client, ttl time.Duration, onEmpty EmptyFunc) *Device {
	return &Device{
		name:    name,
		tokens:  tokens,
		client:  client,
		ttl:     ttl,
		onEmpty: onEmpty,
	}
}

// NewStaticDevice creates a device preloaded with a fixed keg list that never
// goes stale. Intended for tests and static wiring.
func NewStaticDevice(name string, kegs []Keg) *Device {
	return &Device{
		name:        name,
		ttl:         time.Duration(1<<62 - 1),
		kegs:        kegs,
		lastRefresh: time.Now(),
	}
}

// Name returns the stable device name.
func (d *Device) Name() string {
	return d.name
}

// Kegs returns a snapshot copy of the current keg list.
func (d *Device) Kegs() []Keg {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Keg, len(d.kegs))
	copy(out, d.kegs)
	return out
}

// LastRefresh returns the time of the last successful telemetry rebuild.
func (d *Device) LastRefresh() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastRefresh
}

func (d *Device) fresh() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return time.Since(d.lastRefresh) <= d.ttl
}

// EnsureFresh guarantees the keg list reflects telemetry no older than the
// TTL. Within the TTL it is a no-op. Concurrent callers share one upstream
// fetch per device. On failure the previous keg list and timestamp are kept
// and the error is returned; callers are expected to render whatever data is
// available rather than fail.
func (d *Device) EnsureFresh(ctx context.Context) error {
	if d.fresh() {
		return nil
	}
	_, err, _ := d.flight.Do("refresh", func() (any, error) {
		// A caller that waited on an in-flight refresh finds the data fresh.
		if d.fresh() {
			return nil, nil
		}
		return nil, d.refresh(ctx)
	})
	return err
}

// refresh fetches telemetry for every credential and rebuilds the keg list.
func (d *Device) refresh(ctx context.Context) error {
	kegs := make([]Keg, 0, len(d.tokens)*2)
	for _, token := range d.tokens {
		state, err := d.client.Fetch(ctx, token)
		if err != nil {
			return fmt.Errorf("refresh device %s: %w", d.name, err)
		}
		kegs = append(kegs, DiscoverKegs(state, d.name)...)
	}

	d.mu.Lock()
	prev := d.kegs
	d.kegs = kegs
	d.lastRefresh = time.Now()
	d.mu.Unlock()

	d.notifyEmptied(prev, kegs)
	return nil
}

// notifyEmptied reports kegs that were pouring last cycle and are empty now.
func (d *Device) notifyEmptied(prev, current []Keg) {
	if d.onEmpty == nil {
		return
	}
	for i, keg := range current {
		if i >= len(prev) {
			break
		}
		if keg.Empty() && !prev[i].Empty() {
			d.onEmpty(keg)
		}
	}
}

// Group is a name-keyed collection of devices.
type Group struct {
	devices map[string]*Device
}

// NewGroup creates an empty device group.
func NewGroup() *Group {
	return &Group{devices: make(map[string]*Device)}
}

// Add registers a device under its name, replacing any previous entry.
func (g *Group) Add(d *Device) {
	g.devices[d.Name()] = d
}

// Device resolves a device by name. Unknown names report an explicit miss.
func (g *Group) Device(name string) (*Device, bool) {
	d, ok := g.devices[name]
	return d, ok
}

// Names returns the registered device names in sorted order.
func (g *Group) Names() []string {
	names := make([]string, 0, len(g.devices))
	for name := range g.devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of registered devices.
func (g *Group) Len() int {
	return len(g.devices)
}
