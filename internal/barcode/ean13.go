// Package barcode builds EAN-13 codes for showcase products.
//
// Layout: 3-digit country prefix + 4-digit company prefix + 5-digit article
// number + 1 check digit.
package barcode

import (
	"fmt"

	"github.com/kimiashop/orderflow/internal/errs"
)

const (
	CountryPrefix = "626" // Iran
	CompanyPrefix = "1075"
)

// CheckDigit computes the EAN-13 check digit for the first 12 digits:
// digits at odd positions (1-based) weigh 1, even positions weigh 3; the
// check digit brings the weighted sum to the next multiple of 10.
func CheckDigit(digits12 string) (int, error) {
	if len(digits12) != 12 {
		return 0, errs.Newf(errs.KindValidation, "want 12 digits, got %d", len(digits12))
	}
	sum := 0
	for i, r := range digits12 {
		if r < '0' || r > '9' {
			return 0, errs.Newf(errs.KindValidation, "non-digit %q at position %d", r, i)
		}
		d := int(r - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return (10 - sum%10) % 10, nil
}

// EAN13 builds the full code for an article number (0..99999).
func EAN13(article int) (string, error) {
	if article < 0 || article > 99999 {
		return "", errs.Newf(errs.KindValidation, "article %d out of range", article)
	}
	body := fmt.Sprintf("%s%s%05d", CountryPrefix, CompanyPrefix, article)
	cd, err := CheckDigit(body)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", body, cd), nil
}

// Valid reports whether code is a well-formed EAN-13 with a correct check digit.
func Valid(code string) bool {
	if len(code) != 13 {
		return false
	}
	cd, err := CheckDigit(code[:12])
	if err != nil {
		return false
	}
	return code[12] == byte('0'+cd)
}
