package rewrite

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"draftsmith/internal/domain/services"
	"draftsmith/internal/service/generation"
)

// Executor state values
const (
	StatusStreaming = "streaming"
	StatusComplete  = "complete"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)

// finalizeFunc turns the assembled text into drafts once assembly succeeds.
// It runs on the executor goroutine after the last chunk is broadcast.
type finalizeFunc func(ctx context.Context, result *generation.Result) ([]DraftRef, error)

// Executor orchestrates one rewrite: it drives the assembler, fans chunks
// out to every connected SSE client, and hands the final text to the
// finalizer. Clients may attach and detach at any time; late clients catch
// up from the accumulated text.
//
// Thread-safety: all methods are safe for concurrent use.
type Executor struct {
	rewriteID string
	assembler *generation.Assembler
	finalize  finalizeFunc
	logger    *slog.Logger

	ctx        context.Context
	cancelFunc context.CancelFunc

	clients   map[string]chan string // clientID -> event channel
	clientsMu sync.RWMutex

	accumulated strings.Builder
	accMu       sync.RWMutex

	status    string
	statusErr error
	drafts    []DraftRef
	segments  int
	truncated bool
	statusMu  sync.RWMutex
}

// NewExecutor creates an executor for one rewrite
func NewExecutor(parentCtx context.Context, rewriteID string, assembler *generation.Assembler, finalize finalizeFunc, logger *slog.Logger) *Executor {
	ctx, cancel := context.WithCancel(parentCtx)
	return &Executor{
		rewriteID:  rewriteID,
		assembler:  assembler,
		finalize:   finalize,
		logger:     logger,
		ctx:        ctx,
		cancelFunc: cancel,
		clients:    make(map[string]chan string),
		status:     StatusStreaming,
	}
}

// Start begins assembly in the background
func (e *Executor) Start(req *services.GenerateRequest) {
	go e.run(req)
}

func (e *Executor) run(req *services.GenerateRequest) {
	result, err := e.assembler.Assemble(e.ctx, req, e.forwardChunk)
	if err != nil {
		if e.ctx.Err() != nil {
			e.handleCancelled()
			return
		}
		e.handleError(err)
		return
	}

	drafts, err := e.finalize(e.ctx, result)
	if err != nil {
		e.handleError(err)
		return
	}

	e.statusMu.Lock()
	e.status = StatusComplete
	e.drafts = drafts
	e.segments = result.Segments
	e.truncated = result.Truncated
	e.statusMu.Unlock()

	if event, err := NewCompleteEvent(e.rewriteID, result.Segments, result.Truncated, drafts); err == nil {
		e.broadcast(event)
	}
	e.closeClients()

	e.logger.Info("rewrite complete",
		"rewrite_id", e.rewriteID,
		"segments", result.Segments,
		"truncated", result.Truncated,
		"drafts", len(drafts),
	)
}

func (e *Executor) forwardChunk(chunk string) {
	e.accMu.Lock()
	e.accumulated.WriteString(chunk)
	e.accMu.Unlock()

	if event, err := NewChunkEvent(e.rewriteID, chunk); err == nil {
		e.broadcast(event)
	}
}

func (e *Executor) handleError(err error) {
	e.statusMu.Lock()
	e.status = StatusError
	e.statusErr = err
	e.statusMu.Unlock()

	if event, evErr := NewErrorEvent(e.rewriteID, err.Error(), false); evErr == nil {
		e.broadcast(event)
	}
	e.closeClients()

	e.logger.Error("rewrite failed", "rewrite_id", e.rewriteID, "error", err)
}

func (e *Executor) handleCancelled() {
	e.statusMu.Lock()
	if e.status == StatusStreaming {
		e.status = StatusCancelled
	}
	e.statusMu.Unlock()

	if event, err := NewErrorEvent(e.rewriteID, "rewrite was cancelled", true); err == nil {
		e.broadcast(event)
	}
	e.closeClients()
}

// Interrupt cancels the rewrite. The in-flight generation call is released
// and no drafts are created. Safe to call multiple times.
func (e *Executor) Interrupt() {
	e.cancelFunc()
}

// AddClient registers an SSE client and returns its event channel. The
// channel closes when the rewrite reaches a terminal state.
func (e *Executor) AddClient(clientID string) <-chan string {
	e.clientsMu.Lock()
	defer e.clientsMu.Unlock()

	eventChan := make(chan string, 20)
	e.clients[clientID] = eventChan
	return eventChan
}

// RemoveClient unregisters an SSE client. Safe after terminal close.
func (e *Executor) RemoveClient(clientID string) {
	e.clientsMu.Lock()
	defer e.clientsMu.Unlock()

	if ch, exists := e.clients[clientID]; exists {
		close(ch)
		delete(e.clients, clientID)
	}
}

// Status returns the current execution status
func (e *Executor) Status() string {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.status
}

// Err returns the failure when Status is error, nil otherwise
func (e *Executor) Err() error {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.statusErr
}

// Catchup replays state to a newly attached client: the text streamed so
// far as one chunk, plus the terminal event when the rewrite already ended.
// The channel is closed after a terminal replay so the connection ends.
func (e *Executor) Catchup(ctx context.Context, clientID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.accMu.RLock()
	text := e.accumulated.String()
	e.accMu.RUnlock()

	if text != "" {
		event, err := NewChunkEvent(e.rewriteID, text)
		if err != nil {
			return err
		}
		if !e.sendToClient(clientID, event) {
			return nil
		}
	}

	e.statusMu.RLock()
	status := e.status
	statusErr := e.statusErr
	drafts := e.drafts
	segments := e.segments
	truncated := e.truncated
	e.statusMu.RUnlock()

	var terminal string
	switch status {
	case StatusComplete:
		terminal, _ = NewCompleteEvent(e.rewriteID, segments, truncated, drafts)
	case StatusError:
		msg := "unknown error"
		if statusErr != nil {
			msg = statusErr.Error()
		}
		terminal, _ = NewErrorEvent(e.rewriteID, msg, false)
	case StatusCancelled:
		terminal, _ = NewErrorEvent(e.rewriteID, "rewrite was cancelled", true)
	default:
		return nil
	}

	if e.sendToClient(clientID, terminal) {
		e.RemoveClient(clientID)
	}
	return nil
}

// sendToClient delivers an event to one client. The map lookup and the send
// hold the read lock together, so a concurrent closeClients cannot close the
// channel mid-send. Returns false when the client is already gone or its
// buffer is full.
func (e *Executor) sendToClient(clientID, event string) bool {
	e.clientsMu.RLock()
	defer e.clientsMu.RUnlock()

	ch, exists := e.clients[clientID]
	if !exists {
		return false
	}
	select {
	case ch <- event:
		return true
	default:
		return false
	}
}

// broadcast sends an event to every connected client without blocking; a
// client with a full buffer misses the event and catches up on reconnect.
func (e *Executor) broadcast(event string) {
	e.clientsMu.RLock()
	defer e.clientsMu.RUnlock()

	for _, ch := range e.clients {
		select {
		case ch <- event:
		default:
		}
	}
}

func (e *Executor) closeClients() {
	e.clientsMu.Lock()
	defer e.clientsMu.Unlock()

	for clientID, ch := range e.clients {
		close(ch)
		delete(e.clients, clientID)
	}
}
