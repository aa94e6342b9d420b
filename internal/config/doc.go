// Package config provides configuration structures and loading for hitsz-autonet.
// It defines the portal and probe endpoints, timing of the monitor loop and
// the login flow, and how credentials are discovered on disk.
package config
