// Package read defines the record that flows through a readflow graph,
// the two-dimensional stereo feature block attached to duplex reads, and
// the template/complement pair table that drives duplex pairing.
package read
