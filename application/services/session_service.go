package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/carlosrabelo/netterm/domain/entities"
	"github.com/carlosrabelo/netterm/domain/ports"
	"github.com/carlosrabelo/netterm/domain/services"
	"github.com/carlosrabelo/netterm/infrastructure/logging"
	"github.com/carlosrabelo/netterm/infrastructure/snmp"
	"github.com/carlosrabelo/netterm/infrastructure/transport"
	"github.com/carlosrabelo/netterm/platform"
	"github.com/carlosrabelo/netterm/platform/terminal"
)

// DetectCommands are tried in order on auto-detected devices until one
// produces output that names a known platform.
var DetectCommands = []string{"show version", "display version"}

// TransportFactory builds the transport for one device
type TransportFactory func(cfg entities.SessionConfig, profile entities.VendorProfile, logger ports.Logger) (ports.Transport, error)

// Detector resolves a device type out of band
type Detector interface {
	Detect(ctx context.Context, cfg entities.SessionConfig) (string, error)
}

// SessionService wires profiles, transports and loggers into sessions
type SessionService struct {
	newTransport   TransportFactory
	detector       Detector
	logger         ports.Logger
	sessionOptions []services.SessionOption
	concurrency    int
}

// Option customizes a SessionService
type Option func(*SessionService)

// WithTransportFactory replaces the SSH/Telnet factory
func WithTransportFactory(f TransportFactory) Option {
	return func(s *SessionService) { s.newTransport = f }
}

// WithDetector replaces the SNMP detector
func WithDetector(d Detector) Option {
	return func(s *SessionService) { s.detector = d }
}

// WithLogger sets the logger shared by every session
func WithLogger(logger ports.Logger) Option {
	return func(s *SessionService) { s.logger = logger }
}

// WithSessionOptions passes options to every SessionManager
func WithSessionOptions(opts ...services.SessionOption) Option {
	return func(s *SessionService) { s.sessionOptions = append(s.sessionOptions, opts...) }
}

// WithConcurrency bounds how many devices RunAll drives at once; 0 means no bound
func WithConcurrency(n int) Option {
	return func(s *SessionService) { s.concurrency = n }
}

// NewSessionService creates the service with the SSH/Telnet transports and SNMP detection
func NewSessionService(opts ...Option) *SessionService {
	s := &SessionService{
		newTransport: transport.New,
		logger:       logging.NoOp{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.detector == nil {
		s.detector = snmp.NewDetector(nil, s.logger)
	}
	return s
}

// NewSession builds an unconnected session, resolving "auto" device types first
func (s *SessionService) NewSession(ctx context.Context, cfg entities.SessionConfig) (*services.SessionManager, error) {
	deviceType, err := s.ResolveDeviceType(ctx, cfg)
	if err != nil {
		return nil, err
	}
	cfg.DeviceType = deviceType
	return s.build(cfg, deviceType)
}

func (s *SessionService) build(cfg entities.SessionConfig, deviceType string) (*services.SessionManager, error) {
	profile, err := platform.Get(deviceType)
	if err != nil {
		return nil, err
	}
	t, err := s.newTransport(cfg, profile, s.logger)
	if err != nil {
		return nil, err
	}
	opts := append([]services.SessionOption{services.WithLogger(s.logger)}, s.sessionOptions...)
	return services.NewSessionManager(cfg, profile, t, opts...)
}

// WithSession connects, runs fn and always disconnects
func (s *SessionService) WithSession(ctx context.Context, cfg entities.SessionConfig, fn func(ports.Session) error) error {
	session, err := s.NewSession(ctx, cfg)
	if err != nil {
		return err
	}
	if err := session.Connect(ctx); err != nil {
		session.Disconnect(ctx)
		return err
	}
	defer session.Disconnect(ctx)
	return fn(session)
}

// Result is the outcome of RunAll for one device
type Result struct {
	Host   string
	Output string
	Err    error
}

// RunAll drives every device in its own goroutine; results keep the order of cfgs
func (s *SessionService) RunAll(ctx context.Context, cfgs []entities.SessionConfig, fn func(context.Context, ports.Session) (string, error)) []Result {
	results := make([]Result, len(cfgs))
	var sem chan struct{}
	if s.concurrency > 0 {
		sem = make(chan struct{}, s.concurrency)
	}

	var wg sync.WaitGroup
	for i, cfg := range cfgs {
		wg.Add(1)
		go func(i int, cfg entities.SessionConfig) {
			defer wg.Done()
			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					results[i] = Result{Host: cfg.Host, Err: ctx.Err()}
					return
				}
			}
			var output string
			err := s.WithSession(ctx, cfg, func(session ports.Session) error {
				var err error
				output, err = fn(ctx, session)
				return err
			})
			if err != nil {
				s.logger.Error("device failed", "host", cfg.Host, "error", err)
			}
			results[i] = Result{Host: cfg.Host, Output: output, Err: err}
		}(i, cfg)
	}
	wg.Wait()
	return results
}

// ResolveDeviceType returns cfg.DeviceType, detecting it when set to "auto".
// SNMP is tried first when a community is configured, then the CLI itself.
func (s *SessionService) ResolveDeviceType(ctx context.Context, cfg entities.SessionConfig) (string, error) {
	if cfg.DeviceType != "" && cfg.DeviceType != platform.AutoName {
		return cfg.DeviceType, nil
	}

	if cfg.SNMPCommunity != "" {
		deviceType, err := s.detector.Detect(ctx, cfg)
		if err == nil {
			s.logger.Info("device type detected", "host", cfg.Host, "device_type", deviceType, "method", "snmp")
			return deviceType, nil
		}
		s.logger.Warn("snmp detection failed, probing the cli", "host", cfg.Host, "error", err)
	}

	deviceType, err := s.probe(ctx, cfg)
	if err != nil {
		return "", fmt.Errorf("failed to detect device type of %s: %w", cfg.Host, err)
	}
	s.logger.Info("device type detected", "host", cfg.Host, "device_type", deviceType, "method", "cli")
	return deviceType, nil
}

func (s *SessionService) probe(ctx context.Context, cfg entities.SessionConfig) (string, error) {
	session, err := s.build(cfg, terminal.AutodetectName)
	if err != nil {
		return "", err
	}
	if err := session.Connect(ctx); err != nil {
		session.Disconnect(ctx)
		return "", err
	}
	defer session.Disconnect(ctx)

	for _, cmd := range DetectCommands {
		out, err := session.SendCommand(ctx, cmd)
		if err != nil {
			return "", err
		}
		if deviceType, ok := platform.DetectFromText(out); ok {
			return deviceType, nil
		}
	}
	return "", fmt.Errorf("no known platform in the output of %v", DetectCommands)
}
