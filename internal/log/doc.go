// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of portal passwords, cookies and session tokens
//   - Info as the default level, Debug in verbose mode
//   - A CRITICAL level above Error for failures that need a human
//   - Append-mode log files for service-managed runs
//
// # Security Features
//
// The SecureHandler sanitizes attribute values whose key looks sensitive
// (password, cookie, token, session) and values that look like secrets
// (bearer tokens, JWTs, form-encoded passwords) before they reach the
// underlying handler. This holds in verbose mode too, because service log
// files are often attached to bug reports verbatim.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("login submitted", "account", creds.Fingerprint(), "password", creds.Password)
//	// password=***REDACTED***
//
//	log.Critical(ctx, logger, "browser could not be launched", "error", err)
//	// level=CRITICAL msg="browser could not be launched" ...
package log
