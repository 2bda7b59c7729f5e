package ctxsync

import (
	"context"
	"errors"
	"time"
)

// Conversation events the engine reacts to.
const (
	EventSpeechStopped   = "input_audio_buffer.speech_stopped"
	EventResponseDone    = "response.done"
	EventOutputAudioDone = "response.output_audio.done"
)

// SyncSimple sends the snapshot without fingerprinting or screenshot capture. It is
// the fallback when Sync reports an error.
func (e *Engine) SyncSimple(ctx context.Context, trigger bool) (status Status) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "simple context sync panicked", "panic", r)
			status = StatusError
		}
	}()
	s := e.session()
	if s == nil {
		return StatusNoSession
	}
	_, text, err := e.Snapshot(ctx)
	if err != nil {
		e.logger.WarnContext(ctx, "simple context sync failed", "step", "snapshot", "error", err)
		return StatusError
	}
	if err := s.SendContext(ctx, text, ""); err != nil {
		e.logger.WarnContext(ctx, "simple context sync failed", "step", "send context", "error", err)
		return StatusError
	}
	if trigger {
		if err := e.respond(ctx, s); err != nil {
			e.logger.WarnContext(ctx, "simple context sync failed", "step", "create response", "error", err)
			return StatusError
		}
	}
	return StatusOK
}

// Forget drops the fingerprint of a session.
func (e *Engine) Forget(sessionID string) {
	e.mu.Lock()
	delete(e.last, sessionID)
	e.mu.Unlock()
}

// Last returns the fingerprint recorded for a session.
func (e *Engine) Last(sessionID string) (Fingerprint, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fp, ok := e.last[sessionID]
	return fp, ok
}

// Waiting reports whether a response was requested and has not finished yet.
func (e *Engine) Waiting() bool { return e.waiting.Load() }

// HandleEvent reacts to a conversation event. When the learner stops speaking and no
// response is pending, it delivers fresh context and requests a response, falling
// back to a simple sync and finally to a bare response request.
func (e *Engine) HandleEvent(ctx context.Context, eventType string) {
	switch eventType {
	case EventSpeechStopped:
		if !e.waiting.CompareAndSwap(false, true) {
			return
		}
		switch e.Sync(ctx, true) {
		case StatusOK:
		case StatusNoSession:
			e.waiting.Store(false)
		case StatusNoop:
			e.requestResponse(ctx)
		case StatusError:
			if e.SyncSimple(ctx, true) != StatusOK {
				e.requestResponse(ctx)
			}
		}
	case EventResponseDone, EventOutputAudioDone:
		e.waiting.Store(false)
	}
}

func (e *Engine) requestResponse(ctx context.Context) {
	s := e.session()
	if s == nil {
		e.waiting.Store(false)
		return
	}
	if err := s.CreateResponse(ctx); err != nil {
		e.logger.WarnContext(ctx, "response request failed", "session", s.ID(), "error", err)
		e.waiting.Store(false)
	}
}

// Run syncs every interval until ctx is done.
func (e *Engine) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("ctxsync: interval must be positive")
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			e.Sync(ctx, false)
		}
	}
}
