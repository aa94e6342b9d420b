// Package probe decides whether the host is really online or trapped behind
// the campus captive portal.
//
// The portal intercepts plain-HTTP traffic and answers with its own login page,
// often with 200 OK. The Prober therefore requires a 200 status plus a marker
// of the real target site in either the final URL or the body. Network errors
// are logged at warning level and reported as offline; they are never
// returned to the caller.
//
//	p := probe.New("http://www.baidu.com",
//	    probe.WithURLMarkers("baidu.com"),
//	    probe.WithBodyMarkers("百度"),
//	    probe.WithLogger(logger),
//	)
//	if !p.Probe(ctx) {
//	    // log in
//	}
package probe
