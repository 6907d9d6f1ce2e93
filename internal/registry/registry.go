package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/pendo-io/kegtronbot/config"
	"github.com/pendo-io/kegtronbot/internal/kegtron"
	"github.com/pendo-io/kegtronbot/internal/slack"
)

// authsDocument is the wire shape of the remote workspace roster.
type authsDocument struct {
	Data []slack.Workspace `json:"data"`
}

// devicesDocument is the wire shape of the remote device roster.
type devicesDocument struct {
	Data []struct {
		Name         string   `json:"name"`
		DeviceIDList []string `json:"device_id_list"`
	} `json:"data"`
}

// Registry owns the workspace and device rosters. Each roster is an immutable
// snapshot behind an atomic pointer: readers grab the current snapshot without
// locking, and a refresh swaps in a complete replacement. Rosters without a
// remote URL are built once from static config and never refreshed.
type Registry struct {
	authsURL   string
	devicesURL string
	interval   time.Duration
	client     *http.Client
	kegClient  *kegtron.Client
	cfg        *config.Config
	onEmpty    kegtron.EmptyFunc
	logger     zerolog.Logger

	auths   atomic.Pointer[slack.AuthGroup]
	devices atomic.Pointer[kegtron.Group]
}

// New builds a registry from config. onEmpty may be nil; it is attached to
// every constructed device.
func New(cfg *config.Config, kegClient *kegtron.Client, onEmpty kegtron.EmptyFunc, logger zerolog.Logger) *Registry {
	r := &Registry{
		authsURL:   cfg.Registry.AuthsURL,
		devicesURL: cfg.Registry.DevicesURL,
		interval:   cfg.Registry.Refresh,
		client:     &http.Client{Timeout: 15 * time.Second},
		kegClient:  kegClient,
		cfg:        cfg,
		onEmpty:    onEmpty,
		logger:     logger.With().Str("component", "registry").Logger(),
	}
	r.auths.Store(r.staticAuths())
	r.devices.Store(r.staticDevices())
	return r
}

// Auths returns the current workspace snapshot.
func (r *Registry) Auths() *slack.AuthGroup {
	return r.auths.Load()
}

// Devices returns the current device snapshot.
func (r *Registry) Devices() *kegtron.Group {
	return r.devices.Load()
}

// Refresh rebuilds both rosters from their remote documents. Each half fails
// independently: a failing fetch keeps that roster's previous snapshot while
// the other still updates.
func (r *Registry) Refresh(ctx context.Context) {
	if r.authsURL != "" {
		if group, err := r.fetchAuths(ctx); err != nil {
			r.logger.Error().Err(err).Msg("workspace roster refresh failed, keeping previous snapshot")
		} else {
			r.auths.Store(group)
			r.logger.Info().Int("workspaces", group.Len()).Msg("workspace roster refreshed")
		}
	}
	if r.devicesURL != "" {
		if group, err := r.fetchDevices(ctx); err != nil {
			r.logger.Error().Err(err).Msg("device roster refresh failed, keeping previous snapshot")
		} else {
			r.devices.Store(group)
			r.logger.Info().Int("devices", group.Len()).Msg("device roster refreshed")
		}
	}
}

// Run refreshes the rosters on the configured interval until the context is
// canceled. It refreshes once immediately so remote rosters are live before
// the first tick.
func (r *Registry) Run(ctx context.Context) {
	if r.authsURL == "" && r.devicesURL == "" {
		r.logger.Info().Msg("no roster URLs configured, serving static config only")
		return
	}

	r.Refresh(ctx)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("registry stopped")
			return
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

func (r *Registry) staticAuths() *slack.AuthGroup {
	workspaces := make([]slack.Workspace, 0, len(r.cfg.Slack.Workspaces))
	for _, ws := range r.cfg.Slack.Workspaces {
		workspaces = append(workspaces, slack.Workspace{
			Name:     ws.Name,
			BotToken: ws.BotToken,
			TeamID:   ws.TeamID,
		})
	}
	return slack.NewAuthGroup(workspaces)
}

func (r *Registry) staticDevices() *kegtron.Group {
	group := kegtron.NewGroup()
	for _, dev := range r.cfg.Kegtron.Devices {
		group.Add(kegtron.NewDevice(dev.Name, dev.Tokens, r.kegClient, r.cfg.Kegtron.TTL, r.onEmpty))
	}
	return group
}

func (r *Registry) fetchAuths(ctx context.Context) (*slack.AuthGroup, error) {
	var doc authsDocument
	if err := r.fetchJSON(ctx, r.authsURL, &doc); err != nil {
		return nil, err
	}
	return slack.NewAuthGroup(doc.Data), nil
}

func (r *Registry) fetchDevices(ctx context.Context) (*kegtron.Group, error) {
	var doc devicesDocument
	if err := r.fetchJSON(ctx, r.devicesURL, &doc); err != nil {
		return nil, err
	}
	group := kegtron.NewGroup()
	for _, entry := range doc.Data {
		if entry.Name == "" || len(entry.DeviceIDList) == 0 {
			continue
		}
		group.Add(kegtron.NewDevice(entry.Name, entry.DeviceIDList, r.kegClient, r.cfg.Kegtron.TTL, r.onEmpty))
	}
	return group, nil
}

func (r *Registry) fetchJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal roster document: %w", err)
	}
	return nil
}
