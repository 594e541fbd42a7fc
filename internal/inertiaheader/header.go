package inertiaheader

const (
	HeaderXInertia                 = "X-Inertia"                              // client/server
	HeaderXInertiaVersion          = "X-Inertia-Version"                      // client
	HeaderXInertiaLocation         = "X-Inertia-Location"                     // server, redirect URL
	HeaderXInertiaPartialData      = "X-Inertia-Partial-Data"                 // client, whitelist
	HeaderXInertiaPartialExcept    = "X-Inertia-Partial-Except"               // client, blacklist
	HeaderXInertiaPartialComponent = "X-Inertia-Partial-Component"            // client
	HeaderXInertiaReset            = "X-Inertia-Reset"                        // client, skip merging
	HeaderXInertiaMergeIntent      = "X-Inertia-Infinite-Scroll-Merge-Intent" // client, append|prepend
	HeaderXInertiaExceptOnceProps  = "X-Inertia-Except-Once-Props"            // client, cached once props
	HeaderXInertiaErrorBag         = "X-Inertia-Error-Bag"                    // client

	HeaderVary        = "Vary"
	HeaderContentType = "Content-Type"
	HeaderReferer     = "Referer"
	HeaderLocation    = "Location"
)

const (
	ContentTypeHTML = "text/html"
	ContentTypeJSON = "application/json"
)
