// Package engine implements the folio build driver.
//
// A build has two halves. Resolution evaluates the main source and every
// input it pulls in, producing content that does not depend on layout.
// Layout then runs repeatedly: each pass reads the introspection snapshot
// of the previous pass (page count, label pages, final counter values) and
// records which of those values it looked at. When the new snapshot
// answers every recorded query the same way, the document is stable.
//
// State machine:
//
//	Resolving -> LayingOut -> Checking -> Stable
//	                  ^            |
//	                  +- Retrying -+-> Exhausted (budget spent)
//
// Any error in Resolving or LayingOut ends the build in Failed with a
// *BuildError. Exhausted is not an error: the last candidate is returned
// with a warning diagnostic.
//
// Every build is stamped with a UUIDv7 token for log correlation and a
// logical sequence number from Clock.
package engine
