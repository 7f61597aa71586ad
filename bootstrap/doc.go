// Package bootstrap runs a varconv command with a uniform lifecycle.
//
// NewApp validates the typed config and sets up logging. RunTask then starts
// the registered components (index store, publisher storage, telemetry), runs
// the hooks, executes the task with a context canceled on SIGINT/SIGTERM and
// finally stops the components in reverse order within a graceful timeout.
package bootstrap
