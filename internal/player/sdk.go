package player

import (
	"context"
	"fmt"
)

// UnavailableSDK is the stand-in vendor binding used when no real playback
// SDK is bundled. Connect always fails, so the proxy never reports a device
// identity and the router falls back to remote devices.
type UnavailableSDK struct{}

// NewUnavailableSDK is a [Factory] for the stand-in binding.
func NewUnavailableSDK(SDKOpts) SDK { return &UnavailableSDK{} }

func (s *UnavailableSDK) Connect(context.Context) error {
	return fmt.Errorf("vendor playback SDK is not bundled in this build")
}

func (s *UnavailableSDK) Disconnect()                 {}
func (s *UnavailableSDK) Play(string, []string) error { return s.unavailable() }
func (s *UnavailableSDK) Pause() error                { return s.unavailable() }
func (s *UnavailableSDK) Resume() error               { return s.unavailable() }
func (s *UnavailableSDK) Next() error                 { return s.unavailable() }
func (s *UnavailableSDK) Previous() error             { return s.unavailable() }
func (s *UnavailableSDK) SetVolume(float64) error     { return s.unavailable() }
func (s *UnavailableSDK) Events() <-chan Event        { return nil }

func (s *UnavailableSDK) unavailable() error {
	return fmt.Errorf("embedded playback unavailable")
}
