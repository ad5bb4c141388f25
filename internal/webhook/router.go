// Package webhook routes repository events to handlers that report what
// they would trigger.
package webhook

import (
	"context"
	"fmt"
	"io"
	"sort"

	"lark-ats/internal/common/errors"
	"lark-ats/internal/common/logger"
	"lark-ats/internal/common/metrics"
)

// Event is one routed invocation. The meaning of the two arguments depends
// on Type: action and number for issue and pr, branch and commit for
// push, number and author for comment.
type Event struct {
	Type string
	Arg1 string
	Arg2 string
}

// Handler writes its report for an event to out.
type Handler func(ctx context.Context, out io.Writer, event Event) error

// Router dispatches events through a fixed table of handlers.
type Router struct {
	handlers map[string]Handler
	out      io.Writer
	logger   logger.Logger
}

func NewRouter(out io.Writer, log logger.Logger) *Router {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Router{
		handlers: map[string]Handler{
			"issue":   handleIssue,
			"pr":      handlePullRequest,
			"push":    handlePush,
			"comment": handleComment,
		},
		out:    out,
		logger: log,
	}
}

// EventTypes lists the routable types in sorted order.
func (r *Router) EventTypes() []string {
	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Route runs the handler registered for event.Type.
func (r *Router) Route(ctx context.Context, event Event) error {
	if event.Type == "" {
		metrics.WebhookEventsTotal.WithLabelValues("", metrics.OutcomeRejected).Inc()
		return errors.NewEventTypeMissingError()
	}

	handler, ok := r.handlers[event.Type]
	if !ok {
		metrics.WebhookEventsTotal.WithLabelValues("unknown", metrics.OutcomeRejected).Inc()
		r.logger.Warn("Unknown event type", map[string]interface{}{
			"eventType": event.Type,
			"supported": r.EventTypes(),
		})
		return errors.NewUnknownEventTypeError(event.Type)
	}

	if err := handler(ctx, r.out, event); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(event.Type, metrics.OutcomeError).Inc()
		r.logger.Error("Event handler failed", map[string]interface{}{
			"eventType": event.Type,
			"error":     err.Error(),
		})
		return err
	}

	metrics.WebhookEventsTotal.WithLabelValues(event.Type, metrics.OutcomeSuccess).Inc()
	r.logger.Debug("Event processed", map[string]interface{}{
		"eventType": event.Type,
		"arg1":      event.Arg1,
		"arg2":      event.Arg2,
	})
	return nil
}

// printer keeps the first write error so handlers can print freely.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) println(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}
