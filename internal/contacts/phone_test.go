package contacts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "+66812345678", DigitsOnly("+66 81-234-5678"))
	assert.Equal(t, "056717100", DigitsOnly("056 717 100 ต่อ 0"))
	assert.Equal(t, "", DigitsOnly("โทรสอบถาม"))
}

func TestFormatThaiPhone(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"mobile", "0812345678", "081-234-5678"},
		{"mobile with country code", "+66812345678", "081-234-5678"},
		{"landline", "056717100", "056-717-100"},
		{"bangkok without leading zero", "22345678", "02-234-5678"},
		{"formatted input", "081-234-5678", "081-234-5678"},
		{"long number", "080123456789", "0801-2345-6789"},
		{"short number", "71710", "7171-0"},
		{"extension digits", "1234", "1234"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatThaiPhone(tc.raw))
		})
	}
}
