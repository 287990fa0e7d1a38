// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package reaper ends polls nobody is running anymore.
//
// A poll stays active while its owner keeps interacting with it (fetching
// share info, toggling results). Once last_activity falls behind the idle
// threshold the reaper flips is_active to false in a single bulk UPDATE,
// which frees the poll's short code for reuse.
//
// # Scheduling
//
// The server runs [Reaper.Run] in a goroutine on a fixed interval. The
// "cleanup" sub-command calls [Reaper.Sweep] once, optionally as a dry run
// that only reports the selection.
//
// # Failures
//
// A failed sweep is logged and retried on the next tick. The reaper does not
// broadcast: viewers of a reaped poll see it as ended on their next action.
package reaper
