// Package shutdown coordinates graceful termination of bindplan-server.
//
// Named hooks run in reverse order of registration once SIGINT or
// SIGTERM arrives, the wait context ends, or Trigger is called:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown("endpoint server", srv.Shutdown)
//	err := h.WaitContext(ctx)
package shutdown
