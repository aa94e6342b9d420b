// Package browser acquires a headless Chromium and drives it through the
// DevTools protocol.
//
// # Acquisition
//
// A browser binary is obtained from an ordered chain of strategies and the
// first one that succeeds wins:
//
//  1. AutoUpdate downloads (or verifies) the pinned revision. It needs
//     internet access, so it usually fails while the portal blocks traffic.
//  2. Cache scans the download directory for previously fetched binaries and
//     picks the most recently modified one.
//  3. SearchPath uses whatever browser is installed on the host.
//
// When every strategy fails the error matches ErrDriverUnavailable.
//
// # Sessions
//
// Driver.LaunchSession starts the browser with a fixed configuration and
// returns a Handle. The Handle owns the process: Close kills it and removes
// the temporary profile. Launch failures match ErrLaunch, and those caused by
// a driver/browser version disagreement also match ErrVersionMismatch.
package browser
