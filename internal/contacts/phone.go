// Package contacts resolves human contact information attached to chat
// responses when the engine cannot answer on its own.
package contacts

import "strings"

// DigitsOnly strips everything except digits and a leading plus sign.
func DigitsOnly(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatThaiPhone renders common Thai phone numbers for display. Mobile
// numbers group 3-3-4, landlines 3-3-3, the country code 66 is rewritten
// to a leading zero, and eight-digit Bangkok numbers get their implicit
// zero back. Anything else is returned with basic grouping.
func FormatThaiPhone(raw string) string {
	if raw == "" {
		return ""
	}
	d := strings.TrimPrefix(DigitsOnly(raw), "+")
	if strings.HasPrefix(d, "66") && len(d) > 2 {
		d = "0" + d[2:]
	}
	switch {
	case len(d) == 10 && strings.HasPrefix(d, "0"):
		return d[:3] + "-" + d[3:6] + "-" + d[6:]
	case len(d) == 9 && strings.HasPrefix(d, "0"):
		return d[:3] + "-" + d[3:6] + "-" + d[6:]
	case len(d) == 8 && strings.HasPrefix(d, "2"):
		return "02-" + d[1:4] + "-" + d[4:]
	}
	if len(d) > 8 {
		return d[:4] + "-" + d[4:8] + "-" + d[8:]
	}
	if len(d) > 4 {
		return d[:4] + "-" + d[4:]
	}
	return d
}
