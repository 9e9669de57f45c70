// Package oai implements a client for the Open Archives Initiative Protocol
// for Metadata Harvesting (OAI-PMH), version 2.0.
//
// The client covers the verbs a harvester needs: Identify, ListSets,
// ListIdentifiers, ListRecords and GetRecord. Listing verbs follow
// resumption tokens; record metadata is carried as verbatim XML and never
// interpreted.
//
// Requests are retried with a bounded, error-aware policy: transport and
// server failures back off exponentially, protocol errors reported in the
// response envelope back off linearly. The protocol codes noRecordsMatch and
// noSetHierarchy are treated as empty results, not failures.
package oai
