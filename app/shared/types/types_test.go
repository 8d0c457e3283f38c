package sharedtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Identity
		want bool
	}{
		{name: "identical", a: "ana@example.com", b: "ana@example.com", want: true},
		{name: "case differs", a: "Ana@Example.com", b: "ana@example.com", want: true},
		{name: "different principals", a: "ana@example.com", b: "ben@example.com", want: false},
		{name: "both empty", a: "", b: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a))
		})
	}
}
