// Package bootstrap runs the readflow process lifecycle.
//
// An App owns the component registry. RunTask starts every registered
// component in order, prints a startup summary, runs a finite task with
// SIGINT and SIGTERM wired to its context, and then stops the components
// in reverse order within a graceful timeout.
package bootstrap
