package phone

import (
	"fmt"
	"strings"

	"github.com/aquadic/souq4u/domain"
)

// dialCodes maps ISO 3166 alpha-2 country codes to calling codes
var dialCodes = map[string]string{
	"EG": "20",
	"SA": "966",
	"AE": "971",
	"KW": "965",
	"QA": "974",
	"BH": "973",
	"OM": "968",
	"JO": "962",
	"US": "1",
	"GB": "44",
}

// DialCode returns the calling code for country
func DialCode(country string) (string, error) {
	code, ok := dialCodes[strings.ToUpper(strings.TrimSpace(country))]
	if !ok {
		return "", fmt.Errorf("%q: %w", country, domain.ErrUnknownCountry)
	}
	return code, nil
}

// Normalize converts user input to the submitted form: digits only, the
// leading trunk 0 stripped and the country dial code prefixed. Input that
// already carries the dial code is kept as is.
func Normalize(raw, country string) (string, error) {
	code, err := DialCode(country)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, r := range raw {
		// Arabic-Indic digits are common input on Arabic keyboards
		if d, ok := toASCIIDigit(r); ok {
			b.WriteRune(d)
		}
	}
	digits := b.String()
	digits = strings.TrimPrefix(digits, "00")
	if digits == "" {
		return "", domain.ErrInvalidPhone
	}

	if strings.HasPrefix(digits, code) && len(digits) > len(code)+6 {
		return digits, nil
	}
	digits = strings.TrimLeft(digits, "0")
	if len(digits) < 6 {
		return "", fmt.Errorf("%q: %w", raw, domain.ErrInvalidPhone)
	}
	return code + digits, nil
}

func toASCIIDigit(r rune) (rune, bool) {
	switch {
	case r >= '0' && r <= '9':
		return r, true
	case r >= '٠' && r <= '٩':
		return '0' + (r - '٠'), true
	case r >= '۰' && r <= '۹':
		return '0' + (r - '۰'), true
	}
	return 0, false
}
