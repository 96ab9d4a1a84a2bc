package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveDisplayImage(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"placa de video", imageVideoCard},
		{"  Procesador ", imageProcessor},
		{"auricular", imageHeadset},
		{"Gaming Headsets", imageHeadset},
		{"MOUSE", imageMouse},
		{"teclado", imageKeyboard},
		{"monitores", DefaultImage},
		{"", DefaultImage},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveDisplayImage(tt.label))
		})
	}
}

func TestResolveDisplayImage_Deterministic(t *testing.T) {
	assert.Equal(t, ResolveDisplayImage("mouse"), ResolveDisplayImage("mouse"))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$ 449.000", FormatPrice(449000))
	assert.Equal(t, "$ 1.234.567", FormatPrice(1234566.6))
	assert.Equal(t, "$ 0", FormatPrice(0))
}
