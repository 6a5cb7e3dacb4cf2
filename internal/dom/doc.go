// Package dom provides the DOM capability the event layer is built on.
//
// Elements are golang.org/x/net/html nodes. A Tree owns the native listener
// table for one parsed document, answers scoped selector queries through
// goquery, and delivers native events that bubble from the target up to
// the document root.
package dom
