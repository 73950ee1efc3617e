// Package pages holds the named documents a server renders.
//
// A Registry is built once at startup and passed to request handlers. Each
// page's World is created lazily on first use and then reused for the
// lifetime of the Registry. Fallbacks renders one error artifact per HTTP
// status and keeps it, so a failing page never causes a second failure
// while the error response is produced.
package pages
