// Package shutdown coordinates orderly exit of long-running syncx commands.
//
// Components register hooks as they start; when SIGINT or SIGTERM arrives,
// or the run's own context ends, the hooks run in reverse order of
// registration under a shared deadline.
//
// Usage:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown("metrics", srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
