package utility

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMobilePrefixPattern(t *testing.T) {
	tests := []struct {
		name     string
		prefixes []string
		valid    []string
		invalid  []string
	}{
		{
			name:     "two digit prefixes",
			prefixes: []string{"76", "96"},
			valid:    []string{"260761234567", "260961234567"},
			invalid:  []string{"260771234567", "26076123456", "2607612345678"},
		},
		{
			name:     "single digit prefix",
			prefixes: []string{"7"},
			valid:    []string{"260771234567", "260761234567"},
			invalid:  []string{"26077123456", "260961234567"},
		},
		{
			name:     "mixed prefix lengths",
			prefixes: []string{"977", "76"},
			valid:    []string{"260977123456", "260761234567"},
			invalid:  []string{"26097712345", "260971234567"},
		},
		{
			name:     "no prefixes falls back to any subscriber number",
			prefixes: nil,
			valid:    []string{"260771234567", "260961234567"},
			invalid:  []string{"0771234567"},
		},
		{
			name:     "blank prefixes are skipped",
			prefixes: []string{" ", "96"},
			valid:    []string{"260961234567"},
			invalid:  []string{"260761234567"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pattern := MobilePrefixPattern("260", tt.prefixes)
			for _, phone := range tt.valid {
				assert.NoError(t, ValidateMSISDN(phone, pattern), phone)
			}
			for _, phone := range tt.invalid {
				assert.Error(t, ValidateMSISDN(phone, pattern), phone)
			}
		})
	}
}
