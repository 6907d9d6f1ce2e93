package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Status serves a plain-text rendering of every device's keg list. It reads
// whatever data is cached; freshness is driven by the bot flows, not by this
// read-only view.
func (h *Handler) Status(c *gin.Context) {
	group := h.devices.Devices()

	var b strings.Builder
	for _, name := range group.Names() {
		device, ok := group.Device(name)
		if !ok {
			continue
		}
		b.WriteString(name + "\n")
		for _, keg := range device.Kegs() {
			b.WriteString(keg.TextStatus())
		}
	}
	c.String(http.StatusOK, b.String())
}

type deviceSummary struct {
	Name        string `json:"name"`
	Kegs        int    `json:"kegs"`
	LastRefresh string `json:"last_refresh"`
}

// Devices serves a JSON summary of the registered devices.
func (h *Handler) Devices(c *gin.Context) {
	group := h.devices.Devices()

	out := make([]deviceSummary, 0, group.Len())
	for _, name := range group.Names() {
		device, ok := group.Device(name)
		if !ok {
			continue
		}
		out = append(out, deviceSummary{
			Name:        name,
			Kegs:        len(device.Kegs()),
			LastRefresh: device.LastRefresh().UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	c.JSON(http.StatusOK, out)
}
