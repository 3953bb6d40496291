// Package component defines the lifecycle interface shared by the long-lived
// parts of a readflow process and a Registry that starts them in order and
// stops them in reverse.
//
// # Interfaces
//
//   - Component: Start/Stop/Health lifecycle
//   - Describable: startup summary descriptions
//   - RouteProvider: HTTP routes for the startup summary
//
// BaseLazyComponent implements Component for parts whose setup is a single
// initializer and closer pair.
package component
