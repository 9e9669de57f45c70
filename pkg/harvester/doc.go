// Package harvester orchestrates harvest runs against an OAI-PMH endpoint.
//
// Two independent modes exist. The records mode enumerates sets and record
// identifiers, then fetches every record individually through a fixed-size
// worker pool. The batch mode streams paginated ListRecords responses per
// set, single-threaded, splitting each page into per-record files.
//
// Listing failures (ListSets, ListIdentifiers) abort the run; failures on
// individual records or pages are logged and skipped.
package harvester
