package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenRejectsInvalidURLs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "relative", raw: "github.com/login"},
		{name: "file scheme", raw: "file:///etc/passwd"},
		{name: "javascript", raw: "javascript:alert(1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Open(tt.raw))
		})
	}
}
