// Package page loads HTML pages into dom trees for the event layer.
//
// Pages come from local files or from http(s) URLs. HTTP fetches send a
// domevents User-Agent, time out after 30 seconds, and retry transport
// errors and 5xx responses with exponential backoff before giving up.
package page
