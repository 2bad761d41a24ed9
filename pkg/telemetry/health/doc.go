// Package health serves liveness, readiness and version probes for the
// watch and serve commands.
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("ruleset", engine.Ready)
//	health.Mount(mux, checker, health.VersionInfo{Version: version})
package health
