package pixi

// BlendMode selects how a draw call's output combines with the framebuffer.
// The first four values are the nominal modes set on elements; the NPM
// variants are effective modes selected internally for textures whose pixels
// are not premultiplied by alpha. Multiply behaves identically for both
// alpha modes and has no NPM variant.
type BlendMode int8

const (
	BlendNormal BlendMode = iota
	BlendAdd
	BlendMultiply
	BlendScreen

	BlendNormalNPM
	BlendAddNPM
	BlendScreenNPM

	numNominalBlendModes = 4
)

var blendModeNames = [...]string{
	BlendNormal:    "normal",
	BlendAdd:       "add",
	BlendMultiply:  "multiply",
	BlendScreen:    "screen",
	BlendNormalNPM: "normal-npm",
	BlendAddNPM:    "add-npm",
	BlendScreenNPM: "screen-npm",
}

func (m BlendMode) String() string {
	if int(m) < len(blendModeNames) {
		return blendModeNames[m]
	}
	return "invalid"
}

// effectiveBlendModes maps [premultiplied][nominal mode] to the blend mode
// actually applied to the draw call.
var effectiveBlendModes = [2][numNominalBlendModes]BlendMode{
	{BlendNormalNPM, BlendAddNPM, BlendMultiply, BlendScreenNPM},
	{BlendNormal, BlendAdd, BlendMultiply, BlendScreen},
}

// EffectiveBlend returns the blend mode to apply for an element drawn with
// the given nominal mode and texture alpha mode.
func EffectiveBlend(nominal BlendMode, premultiplied bool) BlendMode {
	pm := 0
	if premultiplied {
		pm = 1
	}
	return effectiveBlendModes[pm][nominal]
}
