package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeIP(t *testing.T) {
	cases := map[string]string{
		"203.106.94.47":                "203.106.94.0",
		"10.0.0.0":                     "10.0.0.0",
		"::ffff:175.139.12.9":          "175.139.12.0",
		"2001:db8:85a3::8a2e:370:7334": "2001:0db8:85a3::",
		"":                             "unknown",
		"unknown":                      "unknown",
		"not-an-ip":                    "invalid",
	}
	for in, want := range cases {
		assert.Equal(t, want, AnonymizeIP(in), in)
	}
}
