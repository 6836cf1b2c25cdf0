package basedata

import "regexp"

var (
	// WKN excludes I and O.
	wknPattern  = regexp.MustCompile(`^[A-HJ-NP-Z0-9]{6}$`)
	isinPattern = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{10}$`)
)

// ValidWKN reports whether s is a well-formed six character WKN.
func ValidWKN(s string) bool {
	return wknPattern.MatchString(s)
}

// ValidISIN reports whether s is a well-formed ISIN with a correct check digit.
func ValidISIN(s string) bool {
	if !isinPattern.MatchString(s) {
		return false
	}

	// letters expand to two digits (A=10 ... Z=35), then Luhn over the digits
	digits := make([]int, 0, 24)
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits = append(digits, int(r-'0'))
		default:
			v := int(r-'A') + 10
			digits = append(digits, v/10, v%10)
		}
	}

	sum := 0
	for i := 0; i < len(digits); i++ {
		d := digits[len(digits)-1-i]
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return sum%10 == 0
}
