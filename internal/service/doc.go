// Package service registers hitsz-autonet as a per-user background service.
//
// On macOS it writes a launchd LaunchAgent under ~/Library/LaunchAgents and
// loads it with launchctl. On Linux it writes a systemd user unit and enables
// it with systemctl --user. Both run the binary with --daemon --config <path>,
// restart it after crashes but not after a clean exit, and redirect its
// output to log files. Other platforms return ErrUnsupportedPlatform.
package service
