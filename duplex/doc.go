// Package duplex pairs template and complement reads into duplex reads.
//
// Encode aligns a template against the reverse complement of its partner,
// trims the alignment to the span bounded by runs of exact matches, and
// walks that span to interleave both raw signals into a 13-row stereo
// feature block. PairingEncoder is the graph node that holds reads until
// their partner arrives. ParentTagger confirms which simplex reads produced
// a duplex read.
package duplex
