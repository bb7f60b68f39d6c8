package services_test

import (
	"testing"

	"github.com/Eswarhead/handcrafted-marketplace/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hand-Carved Bowl":       "hand-carved-bowl",
		"  Asha   Devi ":         "asha-devi",
		"Café Crème Teapot":      "cafe-creme-teapot",
		"Brass & Copper -- Set!": "brass-copper-set",
		"Jaipur Blue Pottery 2":  "jaipur-blue-pottery-2",
		"???":                    "fallback",
		"":                       "fallback",
	}
	for in, want := range tests {
		assert.Equal(t, want, services.Slugify(in, "fallback"), in)
	}
}
