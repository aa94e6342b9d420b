// Package notify sends desktop notifications about the network state.
//
// Notifications are fire-and-forget and never report failure to the caller.
// Unsupported platforms are a no-op; command failures are logged at error level.
package notify
