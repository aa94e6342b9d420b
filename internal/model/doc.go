// Package model defines the data structures shared across hitsz-autonet.
//
// This package contains the following main types:
//   - Credentials: the portal account, loaded once at startup
//   - Outcome: the classified result of one login attempt
//   - Attempt: an Outcome plus the diagnostics collected while producing it
//   - History: a journal snapshot rendered by the history command
//   - ServiceRegistration: the background-service descriptor written by the installer
//
// The types carry no behavior beyond formatting and classification so that
// the portal, monitor, database and report packages can share them without
// import cycles.
package model
