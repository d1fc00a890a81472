// Package command provides the syncx-bench command definitions.
//
// Commands are built with urfave/cli/v2:
//
//   - root.go: application, global flags, configuration and logger setup
//   - run.go: one-shot workload runs
//   - soak.go: repeated runs with a Prometheus endpoint
//   - snapshot.go: stored run results and map snapshots
//   - config.go: effective configuration
//   - version.go: build information
//
// Every command reads its settings from the Env prepared by the app's
// Before hook.
package command
