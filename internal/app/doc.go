// Package app is the composition root of wakubase.
//
// Bootstrap loads the configuration, initializes logging and storage and
// builds the object graph:
//
//	config.Load ──> logging.Init ──> storage.Open
//	                                     │
//	             ┌───────────────────────┼──────────────────────┐
//	             v                       v                      v
//	      settings.Store          topics.Registry ──> topics.Selection
//	             │                                              │
//	             v                                              │ OnChange
//	       relay.Client ──> health.Poller                       v
//	             └────────> feed.Engine <───────────── Select(id, topic)
//
// Services.Start launches the health poller, the sync engine and (when
// metrics.addr is set) the prometheus endpoint, and keeps the engine on the
// selected topic. Close stops them and releases storage and the log file.
//
// The cobra command tree in root.go and commands.go runs the TUI by default
// and offers one-shot commands for settings, topics, health, send, watch and
// logs. One-shot commands never call Start, except watch which drives the
// engine itself.
package app
