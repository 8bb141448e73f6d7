// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/desertthunder/smolfy/internal/player"
)

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// JSONResponse builds an *http.Response with the given status and JSON body.
func JSONResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// RecordingRoundTripper replays canned responses in order and records every
// request it sees.
type RecordingRoundTripper struct {
	mu        sync.Mutex
	Responses []*http.Response
	Errs      []error
	Requests  []*http.Request
	Bodies    []string
}

func (r *RecordingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	body := ""
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		body = string(raw)
	}
	r.Requests = append(r.Requests, req)
	r.Bodies = append(r.Bodies, body)

	i := len(r.Requests) - 1
	if i < len(r.Errs) && r.Errs[i] != nil {
		return nil, r.Errs[i]
	}
	if i < len(r.Responses) {
		return r.Responses[i], nil
	}
	return nil, errors.New("no canned response left")
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// FakeSDK is a scriptable test double for [player.SDK].
type FakeSDK struct {
	mu           sync.Mutex
	ConnectErr   error
	CommandErr   error
	Calls        []string
	Volumes      []float64
	Disconnected bool
	EventCh      chan player.Event
}

func NewFakeSDK() *FakeSDK {
	return &FakeSDK{EventCh: make(chan player.Event, 8)}
}

func (f *FakeSDK) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, name)
	return f.CommandErr
}

func (f *FakeSDK) Connect(context.Context) error {
	f.record("connect")
	return f.ConnectErr
}

func (f *FakeSDK) Disconnect() {
	f.record("disconnect")
	f.mu.Lock()
	f.Disconnected = true
	f.mu.Unlock()
}

func (f *FakeSDK) Play(string, []string) error { return f.record("play") }
func (f *FakeSDK) Pause() error                { return f.record("pause") }
func (f *FakeSDK) Resume() error               { return f.record("resume") }
func (f *FakeSDK) Next() error                 { return f.record("next") }
func (f *FakeSDK) Previous() error             { return f.record("previous") }
func (f *FakeSDK) SetVolume(level float64) error {
	f.mu.Lock()
	f.Volumes = append(f.Volumes, level)
	f.mu.Unlock()
	return f.record("set_volume")
}
func (f *FakeSDK) Events() <-chan player.Event { return f.EventCh }

// CallNames returns a copy of the recorded call sequence.
func (f *FakeSDK) CallNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Calls...)
}
