package main

import (
	"fmt"
	"strings"
)

const vertexShaderSrc = `#version 120
attribute vec2 aPosition;
attribute vec2 aUV;
attribute vec4 aColor;
attribute float aTextureId;

varying vec2 vUV;
varying vec4 vColor;
varying float vTextureId;

uniform mat4 uProjection;

void main()
{
	gl_Position = uProjection * vec4(aPosition, 0.0, 1.0);
	vUV = aUV;
	// the packed ARGB word arrives through the byte lanes as BGRA
	vColor = aColor.zyxw;
	vTextureId = aTextureId;
}
`

// fragmentShaderSrc generates the fragment stage for n sampler slots. GLSL
// 120 cannot index a sampler array with a varying, so selection is an
// if-else chain.
func fragmentShaderSrc(n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, `#version 120
varying vec2 vUV;
varying vec4 vColor;
varying float vTextureId;

uniform sampler2D uSamplers[%d];

void main()
{
	vec4 color;
`, n)
	for i := 0; i < n; i++ {
		switch {
		case n == 1:
			fmt.Fprintf(&b, "\tcolor = texture2D(uSamplers[0], vUV);\n")
		case i == 0:
			fmt.Fprintf(&b, "\tif (vTextureId < 0.5) color = texture2D(uSamplers[0], vUV);\n")
		case i == n-1:
			fmt.Fprintf(&b, "\telse color = texture2D(uSamplers[%d], vUV);\n", i)
		default:
			fmt.Fprintf(&b, "\telse if (vTextureId < %d.5) color = texture2D(uSamplers[%d], vUV);\n", i, i)
		}
	}
	b.WriteString("\tgl_FragColor = color * vColor;\n}\n")
	return b.String()
}
