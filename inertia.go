// Package inertia is the server side of the Inertia.js protocol.
//
// A Renderer turns a component name and a set of props into a page, sent as
// JSON to the Inertia client or embedded into the HTML root view on a first
// visit. Each Prop carries its capabilities: always or optional inclusion,
// deferred loading in groups, client-side caching (once), merging and
// infinite scrolling. Which props are resolved depends on the partial reload,
// reset and cache headers of the request, parsed into a RequestContext.
//
// The Middleware gates stale asset versions, adapts redirect statuses and
// carries Flash data across redirects through a FlashCarrier (see the
// inertiaflash package). Props shared with every page are kept in a
// SharedStore or attached to a single request with WithSharedProps.
//
// For detailed protocol documentation, visit https://inertiajs.com/the-protocol
package inertia

import "go.inout.gg/foundations/debug"

//nolint:gochecknoglobals
var d = debug.Debuglog("inertia")
