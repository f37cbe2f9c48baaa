package schedule

import "github.com/00mjk/nesfab/pkg/diag"

// schedulerInternalError mirrors cg_schedule.cpp's assert(candidate): if
// even the relaxed full search finds nothing ready, the dependency graph
// must be cyclic, which is an IR bug upstream, never a recoverable
// condition here. Per spec.md §7 this is a fatal internal error.
func schedulerInternalError() *diag.InternalError {
	return diag.NewInternalError("schedule: no ready node found under relaxed search (dependency graph is cyclic)")
}
