package server

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
)

// CallbackResult carries the query values of the provider's redirect back to us.
type CallbackResult struct {
	Values url.Values
}

// CallbackHandler serves the OAuth redirect target and delivers the redirect
// query exactly once through its result channel. It does not interpret the
// query; extracting code or error and exchanging the code belong to the
// auth flow controller.
type CallbackHandler struct {
	path        string
	resultChan  chan CallbackResult
	once        sync.Once
	mu          sync.Mutex
	callbackHit bool
}

// NewCallbackHandler creates a callback handler serving the given path.
func NewCallbackHandler(path string) *CallbackHandler {
	if path == "" {
		path = "/callback"
	}
	return &CallbackHandler{
		path:       path,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP accepts the provider redirect and hands its query to the waiting flow.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only handle the callback once per attempt
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	query := r.URL.Query()
	h.send(CallbackResult{Values: query})

	w.Header().Set("Content-Type", "text/html")
	if query.Get("error") != "" || query.Get("code") == "" {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, callbackPage("✗ Authorization Failed", "You can close this window and try again.", "#FF4136"))
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, callbackPage("✓ Authorization Successful", "You can close this window and return to the application.", "#1DB954"))
}

// send delivers the result through the channel (only once).
func (h *CallbackHandler) send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the channel receiving the single redirect result.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}

func callbackPage(title, body, accent string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <title>%s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: %s; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>
`, title, accent, title, body)
}
