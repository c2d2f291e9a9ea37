package pixi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveBlend(t *testing.T) {
	tests := []struct {
		nominal BlendMode
		pm      bool
		want    BlendMode
	}{
		{BlendNormal, true, BlendNormal},
		{BlendNormal, false, BlendNormalNPM},
		{BlendAdd, true, BlendAdd},
		{BlendAdd, false, BlendAddNPM},
		{BlendScreen, true, BlendScreen},
		{BlendScreen, false, BlendScreenNPM},
		// multiply is alpha-mode independent
		{BlendMultiply, true, BlendMultiply},
		{BlendMultiply, false, BlendMultiply},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, EffectiveBlend(tc.nominal, tc.pm),
			"%s pm=%v", tc.nominal, tc.pm)
	}
}

func TestBlendModeString(t *testing.T) {
	assert.Equal(t, "normal", BlendNormal.String())
	assert.Equal(t, "screen-npm", BlendScreenNPM.String())
	assert.Equal(t, "invalid", BlendMode(42).String())
}
