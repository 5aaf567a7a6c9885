package customer

// National identity numbers carry eleven digits, the last two being
// mod-11 check digits computed over the preceding ones. Formatting
// punctuation is tolerated on input; the stored form is digits only.

func NormalizeNationalID(s string) string {
	digits := make([]byte, 0, 11)
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			digits = append(digits, s[i])
		}
	}
	return string(digits)
}

func ValidateNationalID(s string) bool {
	id := NormalizeNationalID(s)
	if len(id) != 11 {
		return false
	}

	// All-equal sequences pass the checksum arithmetic but are not valid
	// identity numbers.
	allEqual := true
	for i := 1; i < 11; i++ {
		if id[i] != id[0] {
			allEqual = false
			break
		}
	}
	if allEqual {
		return false
	}

	return checkDigit(id, 9) == int(id[9]-'0') && checkDigit(id, 10) == int(id[10]-'0')
}

// checkDigit computes the mod-11 verifier over the first n digits, with
// weights descending from n+1.
func checkDigit(id string, n int) int {
	sum := 0
	for i := 0; i < n; i++ {
		sum += int(id[i]-'0') * (n + 1 - i)
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		return 0
	}
	return rest
}
