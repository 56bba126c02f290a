package customer

import (
	"regexp"
	"strings"
	"time"
)

var phonePattern = regexp.MustCompile(`^(\+90|0)?5[0-9]{9}$`)

// ValidNationalID checks the 11-digit national identity number: all digits,
// no leading zero, and the two trailing check digits must match.
func ValidNationalID(id string) bool {
	if len(id) != 11 || id[0] == '0' {
		return false
	}
	digits := make([]int, 11)
	for i := 0; i < 11; i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
		digits[i] = int(id[i] - '0')
	}

	oddSum := digits[0] + digits[2] + digits[4] + digits[6] + digits[8]
	evenSum := digits[1] + digits[3] + digits[5] + digits[7]
	check10 := (oddSum*7 - evenSum) % 10
	sum10 := 0
	for _, d := range digits[:10] {
		sum10 += d
	}

	return digits[9] == check10 && digits[10] == sum10%10
}

// ValidPhone accepts mobile numbers with optional +90 or 0 prefix; spaces
// are ignored.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(strings.ReplaceAll(phone, " ", ""))
}

// ValidBirthDate rejects dates in the future.
func ValidBirthDate(d time.Time) bool {
	return d.Before(time.Now())
}
