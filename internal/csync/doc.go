// Package csync provides the small set of generic thread-safe collections
// tempo needs outside its core package: a Map for the Limiter facade's
// outstanding-handle tracking, and a Slice for the dashboard's event log.
package csync