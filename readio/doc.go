// Package readio moves reads in and out of a pipeline as JSON Lines, one
// read object per line.
//
// Reader is a pipeline.Iterator for pipeline.Feed, Ingest is the source
// node body that prepares reads for the duplex graph, and Writer is the
// terminal node body.
package readio
