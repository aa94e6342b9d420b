// Package main provides the entry point for the hitsz-autonet CLI.
//
// hitsz-autonet keeps a machine logged in to the HITSZ campus network. It
// probes connectivity every minute and, when the captive portal blocks
// traffic, logs in through a headless browser.
//
// Usage:
//
//	hitsz-autonet --config ~/.config/hitsz-autonet/.env
//	hitsz-autonet service install --config ~/.config/hitsz-autonet/.env
//
// See --help for all available options.
package main

// main is the entry point for hitsz-autonet.
func main() {
	Execute()
}
