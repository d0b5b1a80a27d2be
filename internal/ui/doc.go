// Package ui implements the wakubase terminal interface on Bubble Tea.
//
// The model never subscribes to store callbacks. A tick fetches one
// consistent read of settings, topics, selection, node health and the
// message snapshot, and Update renders from that copy. Mutations (select,
// add, delete, send, settings edits) run as commands off the update loop and
// report back through actionResultMsg or sendResultMsg.
//
// Views:
//   - main: topic list, message list, compose line
//   - settings: one row per settings key, edited in place
//   - logs: tail of the log file, coloured by level
package ui
