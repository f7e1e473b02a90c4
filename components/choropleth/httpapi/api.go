package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-choropleth/components/choropleth"
	"github.com/goliatone/go-choropleth/components/choropleth/commands"
	"github.com/goliatone/go-choropleth/components/choropleth/queries"
	goerrors "github.com/goliatone/go-errors"
)

// Handlers exposes HTTP endpoints backed by shared commands and queries.
type Handlers struct {
	API        Executor
	View       gocommand.Querier[queries.ViewInput, choropleth.ViewPayload]
	Legend     gocommand.Querier[queries.LegendInput, *choropleth.LegendModel]
	Broadcast  *choropleth.BroadcastHook
	Boundaries *choropleth.Boundaries
}

// HandleView writes the current view of a session.
func (h *Handlers) HandleView(w http.ResponseWriter, r *http.Request, sessionID string) {
	h.writeView(w, r, sessionID)
}

// HandleEvent routes a pointer event and writes the updated view.
func (h *Handlers) HandleEvent(w http.ResponseWriter, r *http.Request, sessionID string) {
	var event choropleth.PointerEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		WriteError(w, http.StatusBadRequest, err)
		return
	}
	input := commands.DispatchPointerInput{SessionID: sessionID, Event: event}
	if err := h.API.Dispatch(r.Context(), input); err != nil {
		WriteError(w, StatusFor(err), err)
		return
	}
	h.writeView(w, r, sessionID)
}

// HandleClearSelection closes the detail view and writes the updated view.
func (h *Handlers) HandleClearSelection(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := h.API.ClearSelection(r.Context(), commands.ClearSelectionInput{SessionID: sessionID}); err != nil {
		WriteError(w, StatusFor(err), err)
		return
	}
	h.writeView(w, r, sessionID)
}

// HandleRetry reloads failed data and writes the updated view.
func (h *Handlers) HandleRetry(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := h.API.Retry(r.Context(), commands.RetryInput{SessionID: sessionID}); err != nil {
		WriteError(w, StatusFor(err), err)
		return
	}
	h.writeView(w, r, sessionID)
}

// HandleClose ends a session.
func (h *Handlers) HandleClose(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := h.API.CloseSession(r.Context(), commands.CloseSessionInput{SessionID: sessionID}); err != nil {
		WriteError(w, StatusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStream streams view change notifications as Server-Sent Events.
func (h *Handlers) HandleStream(w http.ResponseWriter, r *http.Request, sessionID string) {
	if h.Broadcast == nil {
		WriteError(w, http.StatusNotImplemented, errors.New("streaming is not enabled"))
		return
	}
	h.Broadcast.ServeSSE(w, r, sessionID)
}

// HandleWebSocket streams view change notifications over a WebSocket.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request, sessionID string) {
	if h.Broadcast == nil {
		WriteError(w, http.StatusNotImplemented, errors.New("streaming is not enabled"))
		return
	}
	h.Broadcast.ServeWebSocket(w, r, sessionID)
}

// HandleBoundaries serves the script registering region outlines.
func (h *Handlers) HandleBoundaries(w http.ResponseWriter, _ *http.Request) {
	boundaries := h.Boundaries
	if boundaries == nil {
		boundaries = choropleth.EmptyBoundaries()
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(boundaries.Script())
}

// HandleLegend writes the legend of a session, or null before metrics load.
func (h *Handlers) HandleLegend(w http.ResponseWriter, r *http.Request, sessionID string) {
	if h.Legend == nil {
		WriteError(w, http.StatusNotFound, errors.New("legend query not configured"))
		return
	}
	legend, err := h.Legend.Query(r.Context(), queries.LegendInput{SessionID: sessionID})
	if err != nil {
		WriteError(w, StatusFor(err), err)
		return
	}
	WriteJSON(w, http.StatusOK, legend)
}

func (h *Handlers) writeView(w http.ResponseWriter, r *http.Request, sessionID string) {
	if h.View == nil {
		WriteError(w, http.StatusInternalServerError, errors.New("view query not configured"))
		return
	}
	view, err := h.View.Query(r.Context(), queries.ViewInput{SessionID: sessionID})
	if err != nil {
		WriteError(w, StatusFor(err), err)
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, choropleth.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, choropleth.ErrLoopStopped):
		return http.StatusGone
	case choropleth.IsInvalidEvent(err):
		return http.StatusBadRequest
	case choropleth.IsUnconfigured(err):
		return http.StatusServiceUnavailable
	case choropleth.IsFetchFailure(err):
		return http.StatusBadGateway
	case goerrors.IsCategory(err, goerrors.CategoryBadInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON encodes v with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// WriteError writes {"error": message}.
func WriteError(w http.ResponseWriter, status int, err error) {
	WriteJSON(w, status, map[string]string{"error": choropleth.ErrorMessage(err)})
}

// NewMux mounts the handlers on a ServeMux under basePath.
func NewMux(basePath string, h *Handlers) *http.ServeMux {
	base := strings.TrimRight(basePath, "/")
	mux := http.NewServeMux()
	session := func(fn func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			fn(w, r, r.PathValue("id"))
		}
	}
	mux.HandleFunc("GET "+base+"/sessions/{id}/view", session(h.HandleView))
	mux.HandleFunc("GET "+base+"/sessions/{id}/legend", session(h.HandleLegend))
	mux.HandleFunc("POST "+base+"/sessions/{id}/events", session(h.HandleEvent))
	mux.HandleFunc("DELETE "+base+"/sessions/{id}/selection", session(h.HandleClearSelection))
	mux.HandleFunc("POST "+base+"/sessions/{id}/retry", session(h.HandleRetry))
	mux.HandleFunc("POST "+base+"/sessions/{id}/close", session(h.HandleClose))
	mux.HandleFunc("DELETE "+base+"/sessions/{id}", session(h.HandleClose))
	mux.HandleFunc("GET "+base+"/sessions/{id}/stream", session(h.HandleStream))
	mux.HandleFunc("GET "+base+"/sessions/{id}/ws", session(h.HandleWebSocket))
	mux.HandleFunc("GET "+base+"/assets/boundaries.js", h.HandleBoundaries)
	return mux
}
