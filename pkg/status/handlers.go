package status

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hexwind/deconz/pkg/protocol"
)

// Source is the subset of *deconz.Connection the status surface reads.
// Declared as an interface so this package never imports a serial
// transport or depends on Connect having been called.
type Source interface {
	NetworkState() protocol.NetworkState
	DeviceStateFlags() []protocol.DeviceStateFlag
	PendingRequestCount() int
	IsReady() bool
}

// HealthResponse is the liveness/readiness body, mirroring the shape of
// a typical Gin health endpoint (status + timestamp).
type HealthResponse struct {
	Status    string    `json:"status"`
	Ready     bool      `json:"ready"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusResponse is the richer operational snapshot.
type StatusResponse struct {
	NetworkState    string    `json:"network_state"`
	DeviceFlags     []string  `json:"device_flags"`
	PendingRequests int       `json:"pending_requests"`
	Ready           bool      `json:"ready"`
	Timestamp       time.Time `json:"timestamp"`
}

type handler struct {
	source Source
}

// Health handles GET /healthz — degraded (503) until the startup sweep
// has completed.
func (h *handler) Health(c *gin.Context) {
	ready := h.source.IsReady()

	status := "healthy"
	httpStatus := http.StatusOK
	if !ready {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:    status,
		Ready:     ready,
		Timestamp: time.Now(),
	})
}

// Status handles GET /status — a snapshot of the last-observed network
// state, asserted device-state flags, and outstanding request count.
func (h *handler) Status(c *gin.Context) {
	flags := h.source.DeviceStateFlags()
	names := make([]string, len(flags))
	for i, f := range flags {
		names[i] = flagName(f)
	}

	c.JSON(http.StatusOK, StatusResponse{
		NetworkState:    h.source.NetworkState().String(),
		DeviceFlags:     names,
		PendingRequests: h.source.PendingRequestCount(),
		Ready:           h.source.IsReady(),
		Timestamp:       time.Now(),
	})
}

func flagName(f protocol.DeviceStateFlag) string {
	switch f {
	case protocol.FlagApsDataConfirm:
		return "APSDE_DATA_CONFIRM"
	case protocol.FlagApsDataIndication:
		return "APSDE_DATA_INDICATION"
	case protocol.FlagConfChanged:
		return "CONF_CHANGED"
	case protocol.FlagApsDataRequest:
		return "APSDE_DATA_REQUEST"
	default:
		return "UNKNOWN"
	}
}
