package player_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/smolfy/internal/player"
	"github.com/desertthunder/smolfy/internal/shared"
	tu "github.com/desertthunder/smolfy/internal/testing"
)

func fixedFactory(sdk player.SDK) player.Factory {
	return func(player.SDKOpts) player.SDK { return sdk }
}

func testProxy(factory player.Factory) *player.Proxy {
	return player.NewProxy(player.ProxyOpts{
		Factory:     factory,
		GetToken:    func(ctx context.Context) (string, error) { return "token", nil },
		Logger:      shared.NewLogger(io.Discard),
		SendTimeout: 2 * time.Second,
	})
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSend(t *testing.T) {
	t.Run("creates the context and relays the command", func(t *testing.T) {
		sdk := tu.NewFakeSDK()
		proxy := testProxy(fixedFactory(sdk))

		resp := proxy.Send(context.Background(), player.Command{Type: player.CmdPause})
		if !resp.Success {
			t.Fatalf("expected success, got %+v", resp)
		}

		calls := sdk.CallNames()
		if len(calls) != 2 || calls[0] != "connect" || calls[1] != "pause" {
			t.Errorf("unexpected call sequence %v", calls)
		}
	})

	t.Run("degrades to a failure envelope when the context cannot start", func(t *testing.T) {
		sdk := tu.NewFakeSDK()
		sdk.ConnectErr = errors.New("sdk unavailable")
		proxy := testProxy(fixedFactory(sdk))

		resp := proxy.Send(context.Background(), player.Command{Type: player.CmdResume})
		if resp.Success {
			t.Fatal("expected failure envelope")
		}
		if !strings.Contains(resp.Error, "failed to send command to embedded player") {
			t.Errorf("unexpected error %q", resp.Error)
		}
	})

	t.Run("reports command failure as a value", func(t *testing.T) {
		sdk := tu.NewFakeSDK()
		sdk.CommandErr = errors.New("playback blocked")
		proxy := testProxy(fixedFactory(sdk))

		resp := proxy.Send(context.Background(), player.Command{Type: player.CmdNext})
		if resp.Success || !strings.Contains(resp.Error, "playback blocked") {
			t.Errorf("expected command failure envelope, got %+v", resp)
		}
	})

	t.Run("clamps volume to the unit range", func(t *testing.T) {
		sdk := tu.NewFakeSDK()
		proxy := testProxy(fixedFactory(sdk))

		proxy.Send(context.Background(), player.Command{Type: player.CmdSetVolume, Volume: 2.5})
		proxy.Send(context.Background(), player.Command{Type: player.CmdSetVolume, Volume: -1})
		proxy.Send(context.Background(), player.Command{Type: player.CmdSetVolume, Volume: 0.4})

		waitFor(t, func() bool { return len(sdk.CallNames()) >= 4 })
		if sdk.Volumes[0] != 1 || sdk.Volumes[1] != 0 || sdk.Volumes[2] != 0.4 {
			t.Errorf("unexpected volume sequence %v", sdk.Volumes)
		}
	})

	t.Run("recreates the context once after it is lost", func(t *testing.T) {
		first := tu.NewFakeSDK()
		second := tu.NewFakeSDK()

		sdks := []player.SDK{first, second}
		factory := func(player.SDKOpts) player.SDK {
			sdk := sdks[0]
			if len(sdks) > 1 {
				sdks = sdks[1:]
			}
			return sdk
		}

		proxy := testProxy(factory)
		proxy.EnsureContext(context.Background())

		// Closing the event channel ends the first actor loop; commands then
		// flow through a freshly created context.
		close(first.EventCh)
		waitFor(t, func() bool {
			proxy.Send(context.Background(), player.Command{Type: player.CmdPause})
			return len(second.CallNames()) > 0
		})
	})
}

func TestEnsureContext(t *testing.T) {
	t.Run("hands device settings to the factory", func(t *testing.T) {
		sdk := tu.NewFakeSDK()
		var got player.SDKOpts
		proxy := player.NewProxy(player.ProxyOpts{
			Factory:       func(opts player.SDKOpts) player.SDK { got = opts; return sdk },
			GetToken:      func(ctx context.Context) (string, error) { return "token", nil },
			Logger:        shared.NewLogger(io.Discard),
			Name:          "Living Room",
			InitialVolume: 0.3,
		})

		proxy.EnsureContext(context.Background())

		if got.Name != "Living Room" || got.InitialVolume != 0.3 {
			t.Errorf("unexpected factory opts %+v", got)
		}
		if got.GetToken == nil {
			t.Error("factory opts missing the token source")
		}
	})

	t.Run("defaults an out-of-range volume", func(t *testing.T) {
		var got player.SDKOpts
		proxy := player.NewProxy(player.ProxyOpts{
			Factory:       func(opts player.SDKOpts) player.SDK { got = opts; return tu.NewFakeSDK() },
			GetToken:      func(ctx context.Context) (string, error) { return "token", nil },
			Logger:        shared.NewLogger(io.Discard),
			InitialVolume: 1.5,
		})

		proxy.EnsureContext(context.Background())
		if got.InitialVolume != 0.5 {
			t.Errorf("expected default volume 0.5, got %v", got.InitialVolume)
		}
	})
}

func TestDeviceIdentity(t *testing.T) {
	t.Run("ready event registers the device", func(t *testing.T) {
		sdk := tu.NewFakeSDK()
		proxy := testProxy(fixedFactory(sdk))
		proxy.EnsureContext(context.Background())

		sdk.EventCh <- player.Event{Type: player.EventReady, DeviceID: "dev-1"}
		waitFor(t, func() bool {
			id, ok := proxy.DeviceID()
			return ok && id == "dev-1"
		})
	})

	t.Run("not ready clears a matching device", func(t *testing.T) {
		sdk := tu.NewFakeSDK()
		proxy := testProxy(fixedFactory(sdk))
		proxy.EnsureContext(context.Background())

		sdk.EventCh <- player.Event{Type: player.EventReady, DeviceID: "dev-1"}
		waitFor(t, func() bool { _, ok := proxy.DeviceID(); return ok })

		sdk.EventCh <- player.Event{Type: player.EventNotReady, DeviceID: "dev-1"}
		waitFor(t, func() bool { _, ok := proxy.DeviceID(); return !ok })
	})

	t.Run("auth errors drop the device identity", func(t *testing.T) {
		sdk := tu.NewFakeSDK()
		proxy := testProxy(fixedFactory(sdk))
		proxy.EnsureContext(context.Background())

		sdk.EventCh <- player.Event{Type: player.EventReady, DeviceID: "dev-1"}
		waitFor(t, func() bool { _, ok := proxy.DeviceID(); return ok })

		sdk.EventCh <- player.Event{Type: player.EventAuthError, Message: "bad token"}
		waitFor(t, func() bool { _, ok := proxy.DeviceID(); return !ok })
	})

	t.Run("events reach the registered observer", func(t *testing.T) {
		sdk := tu.NewFakeSDK()
		seen := make(chan player.Event, 1)
		proxy := player.NewProxy(player.ProxyOpts{
			Factory:  fixedFactory(sdk),
			GetToken: func(ctx context.Context) (string, error) { return "token", nil },
			Logger:   shared.NewLogger(io.Discard),
			OnEvent:  func(ev player.Event) { seen <- ev },
		})
		proxy.EnsureContext(context.Background())

		sdk.EventCh <- player.Event{Type: player.EventReady, DeviceID: "dev-2"}
		select {
		case ev := <-seen:
			if ev.DeviceID != "dev-2" {
				t.Errorf("unexpected event %+v", ev)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("observer never saw the event")
		}
	})
}

func TestDisconnect(t *testing.T) {
	sdk := tu.NewFakeSDK()
	proxy := testProxy(fixedFactory(sdk))
	proxy.EnsureContext(context.Background())

	sdk.EventCh <- player.Event{Type: player.EventReady, DeviceID: "dev-1"}
	waitFor(t, func() bool { _, ok := proxy.DeviceID(); return ok })

	resp := proxy.Send(context.Background(), player.Command{Type: player.CmdDisconnect})
	if !resp.Success {
		t.Fatalf("expected success, got %+v", resp)
	}

	waitFor(t, func() bool { _, ok := proxy.DeviceID(); return !ok })
}
