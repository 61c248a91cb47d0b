package hr

import "fmt"

const srNoPrefix = "HR-"

// NextSrNo returns the sequence label following the highest numeric suffix in existing.
// Numbering is recomputed from the current maximum, so deleting the highest record frees
// its number for the next create, and a manually inserted label moves the sequence.
func NextSrNo(existing []*Hindrance) string {
	highest := 0
	for _, h := range existing {
		if n := srNoNumber(h.SrNo); n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%03d", srNoPrefix, highest+1)
}

// srNoNumber extracts the leading digits after the HR- prefix. Labels without digits count as 0.
func srNoNumber(srNo string) int {
	s := srNo
	if len(s) >= len(srNoPrefix) && s[:len(srNoPrefix)] == srNoPrefix {
		s = s[len(srNoPrefix):]
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}
