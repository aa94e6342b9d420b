// Package portal implements the captive-portal login state machine.
//
// Machine.Login drives one headless browser session through the srun portal:
//
//	Start                 launch a browser; failure ends in driver-error
//	Navigate              load the portal page, then settle
//	AlreadyAuthenticated  window.CONFIG.page == "success" ends in success
//	FormSubmission        fill username and password, click login from script, settle
//	VerifySuccess         window.CONFIG.page == "success" ends in success
//	VerifyByConnectivity  up to N probes with a pause between them
//
// A status query that fails is undetermined rather than an error. The browser
// handle is released exactly once on every path, and a release failure is
// logged and swallowed. At most one handle is open at a time; a concurrent
// Login fails with ErrBusy instead of launching a second browser.
package portal
