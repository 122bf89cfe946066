package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/scene"
	"github.com/BesedinAlex/guides-fusion360-client/pkg/math"
)

func TestPackLights(t *testing.T) {
	lights := []scene.Light{
		{Kind: scene.LightAmbient, Color: math.V3(1, 1, 1), Intensity: 0.4},
		{Kind: scene.LightDirectional, Color: math.V3(1, 0.75, 0.5), Intensity: 1, Position: math.V3(-100, 0, 0)},
		{Kind: scene.LightDirectional, Color: math.V3(0.5, 0.5, 1), Intensity: 0.5, Position: math.V3(0, 0, 10)},
		{Kind: scene.LightAmbient, Color: math.V3(0, 0, 1), Intensity: 0.1},
	}

	ambient, dirs, colors := packLights(lights, nil, nil)

	assert.InDelta(t, 0.4, ambient.X, 1e-6)
	assert.InDelta(t, 0.4, ambient.Y, 1e-6)
	assert.InDelta(t, 0.5, ambient.Z, 1e-6)
	assert.Equal(t, []float32{-1, 0, 0, 0, 0, 1}, dirs)
	assert.Equal(t, []float32{1, 0.75, 0.5, 0.25, 0.25, 0.5}, colors)
}

func TestPackLightsCapsDirectional(t *testing.T) {
	var lights []scene.Light
	for i := 0; i < MaxDirectionalLights+2; i++ {
		lights = append(lights, scene.Light{Kind: scene.LightDirectional, Color: math.V3(1, 1, 1), Intensity: 1, Position: math.V3(0, 1, 0)})
	}

	_, dirs, colors := packLights(lights, nil, nil)

	assert.Len(t, dirs, MaxDirectionalLights*3)
	assert.Len(t, colors, MaxDirectionalLights*3)
}

func TestPackLightsReusesBuffers(t *testing.T) {
	buf := make([]float32, 0, 12)
	lights := []scene.Light{{Kind: scene.LightDirectional, Color: math.V3(1, 1, 1), Intensity: 1, Position: math.V3(0, 2, 0)}}

	_, dirs, _ := packLights(lights, buf, nil)

	assert.Equal(t, []float32{0, 1, 0}, dirs)
	assert.Equal(t, 12, cap(dirs))
}
