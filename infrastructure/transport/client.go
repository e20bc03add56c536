package transport

import (
	"fmt"
	"strings"

	"github.com/carlosrabelo/netterm/domain/entities"
	"github.com/carlosrabelo/netterm/domain/ports"
)

// New returns the transport selected by cfg.Transport; SSH is the default
func New(cfg entities.SessionConfig, profile entities.VendorProfile, logger ports.Logger) (ports.Transport, error) {
	switch strings.ToLower(cfg.Transport) {
	case "", entities.TransportSSH:
		return NewSSH(cfg, profile, logger), nil
	case entities.TransportTelnet:
		return NewTelnet(cfg, profile, logger), nil
	default:
		return nil, fmt.Errorf("unsupported transport %q", cfg.Transport)
	}
}
