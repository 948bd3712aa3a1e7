// Package voucher issues and parses the codes customers redeem at a
// merchant after checkout.
package voucher

import (
	"errors"
	"fmt"
	"hash/crc32"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Prefix starts every voucher code.
const Prefix = "VCH"

// codeRegex matches: VCH-{dealRef}-{serial}
// Example: VCH-1A2B3C4D-9F8E7D6C
var codeRegex = regexp.MustCompile(`^VCH-([0-9A-F]{8})-([0-9A-F]{8})$`)

var ErrInvalidCode = errors.New("voucher: invalid code format")

// Voucher is a parsed voucher code.
type Voucher struct {
	Code    string `json:"code"`
	DealRef string `json:"deal_ref"`
	Serial  string `json:"serial"`
}

// DealRef is the short reference of a deal embedded in its voucher codes.
func DealRef(dealID string) string {
	return fmt.Sprintf("%08X", crc32.ChecksumIEEE([]byte(dealID)))
}

// Generate issues a fresh code for a deal.
func Generate(dealID string) string {
	id := uuid.New()
	serial := strings.ToUpper(fmt.Sprintf("%x", id[:4]))
	return fmt.Sprintf("%s-%s-%s", Prefix, DealRef(dealID), serial)
}

// Parse validates a code. Surrounding whitespace and lower case are
// accepted, since customers type these in by hand.
func Parse(code string) (*Voucher, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	matches := codeRegex.FindStringSubmatch(normalized)
	if matches == nil {
		return nil, fmt.Errorf("%w: %s (expected VCH-{8 hex}-{8 hex})", ErrInvalidCode, code)
	}
	return &Voucher{
		Code:    normalized,
		DealRef: matches[1],
		Serial:  matches[2],
	}, nil
}

// MatchesDeal reports whether the voucher was issued for dealID.
func (v *Voucher) MatchesDeal(dealID string) bool {
	return v.DealRef == DealRef(dealID)
}
