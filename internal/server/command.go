package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/smolfy/internal/router"
)

// Dispatcher routes a decoded command envelope; implemented by router.Router.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd router.Command) router.Response
}

// CommandHandler is the message-passing boundary for UI collaborators: it
// accepts a command envelope as JSON and answers with the router's result
// envelope. Malformed requests produce a failure envelope, never a bare
// HTTP error, mirroring the router's no-uncaught-errors contract.
type CommandHandler struct {
	dispatcher Dispatcher
	logger     *log.Logger
}

// NewCommandHandler creates a command bridge handler.
func NewCommandHandler(dispatcher Dispatcher, logger *log.Logger) *CommandHandler {
	return &CommandHandler{dispatcher: dispatcher, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *CommandHandler) Routes() []string {
	return []string{"POST /command"}
}

// ServeHTTP decodes one command envelope and dispatches it.
func (h *CommandHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var cmd router.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		h.logger.Warnf("rejecting malformed command envelope: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(router.Response{Success: false, Error: "malformed command envelope"})
		return
	}

	resp := h.dispatcher.Dispatch(r.Context(), cmd)
	json.NewEncoder(w).Encode(resp)
}
