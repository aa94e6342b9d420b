// Package monitor implements the polling loop that keeps the campus network
// logged in.
//
// Each iteration probes connectivity. When the probe finds the network
// offline, the monitor runs one login attempt, records it and sends desktop
// notifications for the result. A failed attempt is not retried in place;
// the next iteration is the retry. Panics inside an iteration are recovered
// so the loop keeps running until its context is cancelled.
package monitor
