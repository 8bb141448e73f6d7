package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/smolfy/internal/models"
	"github.com/desertthunder/smolfy/internal/shared"
)

// request pairs a command with its reply channel.
type request struct {
	cmd   Command
	reply chan Response
}

// errNoContext signals that no embedded context is reachable. The proxy
// converts it into a bounded restart, never a raised fault.
var errNoContext = fmt.Errorf("embedded context not established")

// Proxy owns the lifecycle of the embedded playback context and relays
// commands to it over channels. The context runs as a separate goroutine
// with no shared memory; the only mutual exclusion here guards duplicate
// context creation.
type Proxy struct {
	factory       Factory
	getToken      TokenFunc
	name          string
	initialVolume float64
	logger        *log.Logger
	timeout       time.Duration

	mu       sync.Mutex
	creating bool
	cmds     chan request

	dmu     sync.RWMutex
	device  *models.Device
	onEvent func(Event)
}

// ProxyOpts configures a Proxy.
type ProxyOpts struct {
	Factory  Factory
	GetToken TokenFunc
	Logger   *log.Logger
	// Name and InitialVolume are handed to the Factory for the device
	// registration; the volume defaults to 0.5 when out of range.
	Name          string
	InitialVolume float64
	// SendTimeout bounds one command round trip; defaults to 10s.
	SendTimeout time.Duration
	// OnEvent, when set, receives SDK lifecycle events after the device
	// identity has been updated.
	OnEvent func(Event)
}

// NewProxy creates a proxy for the embedded playback context.
func NewProxy(opts ProxyOpts) *Proxy {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}
	if opts.InitialVolume <= 0 || opts.InitialVolume > 1 {
		opts.InitialVolume = 0.5
	}

	return &Proxy{
		factory:       opts.Factory,
		getToken:      opts.GetToken,
		name:          opts.Name,
		initialVolume: opts.InitialVolume,
		logger:        opts.Logger,
		timeout:       opts.SendTimeout,
		onEvent:       opts.OnEvent,
	}
}

// EnsureContext constructs the embedded context if none exists. Idempotent:
// a creation already in flight or an existing context makes this a no-op.
func (p *Proxy) EnsureContext(ctx context.Context) {
	p.mu.Lock()
	if p.creating {
		p.logger.Debug("embedded context creation already in flight")
		p.mu.Unlock()
		return
	}
	if p.cmds != nil {
		p.mu.Unlock()
		return
	}
	p.creating = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.creating = false
		p.mu.Unlock()
	}()

	p.logger.Info("creating embedded playback context")
	sdk := p.factory(SDKOpts{GetToken: p.getToken, Name: p.name, InitialVolume: p.initialVolume})
	if err := sdk.Connect(ctx); err != nil {
		p.logger.Errorf("failed to create embedded context: %v", err)
		return
	}

	cmds := make(chan request)
	p.mu.Lock()
	p.cmds = cmds
	p.mu.Unlock()

	go p.run(sdk, cmds)
}

// run is the embedded context actor loop: it executes relayed commands and
// folds SDK lifecycle events into the device identity.
func (p *Proxy) run(sdk SDK, cmds chan request) {
	events := sdk.Events()
	for {
		select {
		case req := <-cmds:
			resp := p.execute(sdk, req.cmd)
			req.reply <- resp
			if req.cmd.Type == CmdDisconnect {
				p.teardown(cmds)
				return
			}
		case ev, open := <-events:
			if !open {
				p.logger.Warn("embedded context event channel closed")
				p.teardown(cmds)
				return
			}
			p.handleEvent(ev)
		}
	}
}

func (p *Proxy) execute(sdk SDK, cmd Command) Response {
	var err error
	switch cmd.Type {
	case CmdPlay:
		err = sdk.Play(cmd.ContextURI, cmd.TrackURIs)
	case CmdPause:
		err = sdk.Pause()
	case CmdResume:
		err = sdk.Resume()
	case CmdNext:
		err = sdk.Next()
	case CmdPrevious:
		err = sdk.Previous()
	case CmdSetVolume:
		level := cmd.Volume
		if level < 0 {
			level = 0
		}
		if level > 1 {
			level = 1
		}
		err = sdk.SetVolume(level)
	case CmdDisconnect:
		sdk.Disconnect()
	default:
		err = fmt.Errorf("unknown embedded command: %s", cmd.Type)
	}

	if err != nil {
		return Response{Success: false, Error: err.Error()}
	}
	return Response{Success: true}
}

func (p *Proxy) handleEvent(ev Event) {
	switch ev.Type {
	case EventReady:
		p.logger.Info("embedded player ready", "device_id", ev.DeviceID)
		p.setDevice(&models.Device{ID: ev.DeviceID, Ready: true})
	case EventNotReady:
		p.logger.Warn("embedded player gone offline", "device_id", ev.DeviceID)
		p.clearDeviceIf(ev.DeviceID)
	case EventAuthError, EventAccountError:
		p.logger.Errorf("embedded player %s: %s", ev.Type, ev.Message)
		p.setDevice(nil)
	}

	if p.onEvent != nil {
		p.onEvent(ev)
	}
}

func (p *Proxy) teardown(cmds chan request) {
	p.mu.Lock()
	if p.cmds == cmds {
		p.cmds = nil
	}
	p.mu.Unlock()
	p.setDevice(nil)
}

// Send relays a command to the embedded context, creating it first when
// needed. It never returns an error: an unreachable context clears the
// device identity, triggers one recreation attempt, and degrades to a
// failure response.
func (p *Proxy) Send(ctx context.Context, cmd Command) Response {
	p.EnsureContext(ctx)

	resp, err := p.trySend(ctx, cmd)
	if err == nil {
		return resp
	}

	if err == errNoContext {
		p.logger.Warn("connection to embedded context lost, recreating once")
		p.setDevice(nil)
		p.EnsureContext(ctx)
		if resp, err = p.trySend(ctx, cmd); err == nil {
			return resp
		}
	}

	return Response{Success: false, Error: fmt.Sprintf("failed to send command to embedded player: %v", err)}
}

func (p *Proxy) trySend(ctx context.Context, cmd Command) (Response, error) {
	p.mu.Lock()
	cmds := p.cmds
	p.mu.Unlock()

	if cmds == nil {
		return Response{}, errNoContext
	}

	req := request{cmd: cmd, reply: make(chan Response, 1)}
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case cmds <- req:
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case <-timer.C:
		return Response{}, fmt.Errorf("command %s timed out", cmd.Type)
	}

	select {
	case resp := <-req.reply:
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case <-timer.C:
		return Response{}, fmt.Errorf("command %s timed out awaiting reply", cmd.Type)
	}
}

// DeviceID returns the embedded device's registration with the remote
// service, when the SDK has reported ready.
func (p *Proxy) DeviceID() (string, bool) {
	p.dmu.RLock()
	defer p.dmu.RUnlock()
	if p.device == nil || !p.device.Ready {
		return "", false
	}
	return p.device.ID, true
}

func (p *Proxy) setDevice(d *models.Device) {
	p.dmu.Lock()
	p.device = d
	p.dmu.Unlock()
}

func (p *Proxy) clearDeviceIf(deviceID string) {
	p.dmu.Lock()
	if p.device != nil && p.device.ID == deviceID {
		p.device = nil
	}
	p.dmu.Unlock()
}
