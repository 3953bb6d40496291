package read

var complement [256]byte

func init() {
	complement['A'] = 'T'
	complement['C'] = 'G'
	complement['G'] = 'C'
	complement['T'] = 'A'
	complement['U'] = 'A'
	complement['N'] = 'N'
	complement['a'] = 't'
	complement['c'] = 'g'
	complement['g'] = 'c'
	complement['t'] = 'a'
}

// ReverseComplement returns the reverse complement of seq. Unknown bases
// map to N.
func ReverseComplement(seq string) string {
	n := len(seq)
	if n == 0 {
		return ""
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		c := complement[seq[n-1-i]]
		if c == 0 {
			c = 'N'
		}
		out[i] = c
	}
	return string(out)
}

// Reverse returns s with its bytes in reverse order.
func Reverse(s string) string {
	n := len(s)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = s[n-1-i]
	}
	return string(out)
}

// BaseIndex maps a nucleotide to its one-hot channel: A 0, C 1, G 2, T 3.
// Anything else maps to 0.
func BaseIndex(b byte) int {
	switch b {
	case 'C', 'c':
		return 1
	case 'G', 'g':
		return 2
	case 'T', 't', 'U', 'u':
		return 3
	default:
		return 0
	}
}
