// Package app orchestrates review workflows over the storage contracts.
//
// Services follow a common shape: a narrow store dependency, an injected
// clock and id generator for deterministic tests, and operations that take
// the acting identity and apply role checks before touching domain state.
package app

import (
	"context"
	"log"
	"sort"
	"strings"
)

// Notifier delivers workflow events to interested parties. Delivery is
// best-effort: services log failures and never fail the triggering operation.
type Notifier interface {
	Notify(ctx context.Context, event string, recipients []string, payload map[string]string) error
}

// NopNotifier discards every event.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, string, []string, map[string]string) error {
	return nil
}

// LogNotifier writes events to the process log.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(_ context.Context, event string, recipients []string, payload map[string]string) error {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	fields := make([]string, 0, len(keys))
	for _, key := range keys {
		fields = append(fields, key+"="+payload[key])
	}
	log.Printf("notify event=%s recipients=%s %s", event, strings.Join(recipients, ","), strings.Join(fields, " "))
	return nil
}

func notify(ctx context.Context, notifier Notifier, event string, recipients []string, payload map[string]string) {
	if notifier == nil {
		return
	}
	if err := notifier.Notify(ctx, event, recipients, payload); err != nil {
		log.Printf("notify event=%s error=%v", event, err)
	}
}
