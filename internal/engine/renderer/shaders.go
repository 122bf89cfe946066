package renderer

// Lambert shading with one ambient term and up to MaxDirectionalLights
// directional lights. Directions point from the surface towards the light.
const meshVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPosition;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec2 aUV;

uniform mat4 uModel;
uniform mat4 uViewProj;

out vec3 vNormal;
out vec2 vUV;

void main() {
	vNormal = mat3(transpose(inverse(uModel))) * aNormal;
	vUV = aUV;
	gl_Position = uViewProj * uModel * vec4(aPosition, 1.0);
}
`

const meshFragmentShader = `
#version 410 core

#define MAX_LIGHTS 4

in vec3 vNormal;
in vec2 vUV;

uniform vec4 uBaseColor;
uniform int uHasTexture;
uniform sampler2D uTexture;

uniform vec3 uAmbient;
uniform int uLightCount;
uniform vec3 uLightDir[MAX_LIGHTS];
uniform vec3 uLightColor[MAX_LIGHTS];

out vec4 FragColor;

void main() {
	vec4 base = uBaseColor;
	if (uHasTexture == 1) {
		base *= texture(uTexture, vUV);
	}

	vec3 n = normalize(vNormal);
	if (!gl_FrontFacing) {
		n = -n;
	}

	vec3 light = uAmbient;
	for (int i = 0; i < uLightCount; i++) {
		light += uLightColor[i] * max(dot(n, uLightDir[i]), 0.0);
	}

	FragColor = vec4(base.rgb * light, base.a);
}
`
