/*
Package health provides liveness and readiness probes for the argus daemon.

Components register CheckFuncs with a Checker; the readiness endpoint runs
them concurrently and reports degraded when any fail. Register mounts the
standard endpoints on a mux:

	checker := health.New(0)
	checker.RegisterCheck("audit_store", func(ctx context.Context) error {
		_, err := store.GetMetadata(ctx, logID)
		return err
	})
	health.Register(mux, checker, version, commit, buildDate)
*/
package health
