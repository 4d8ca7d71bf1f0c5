package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/light"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/batch"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/material"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
)

// ErrNotPrepared is returned by the render calls before the first PrepareView.
var ErrNotPrepared = errors.New("no view prepared")

// Per-view constant indices, in declaration order.
const (
	viewConstViewMatrix = iota
	viewConstProjection
	viewConstViewProj
	viewConstDepthParameters
	viewConstCameraPosition
	viewConstAmbientColor
	viewConstFogColor
	viewConstFogParameters
	viewConstDirLightData
)

func defineViewUniforms(cb *graphics.ConstantBuffer) error {
	return cb.Define(graphics.UsageDynamic, []graphics.Constant{
		{Type: graphics.ElementMatrix3x4, Name: "viewMatrix", NumElements: 1},
		{Type: graphics.ElementMatrix4, Name: "projectionMatrix", NumElements: 1},
		{Type: graphics.ElementMatrix4, Name: "viewProjMatrix", NumElements: 1},
		{Type: graphics.ElementVector4, Name: "depthParameters", NumElements: 1},
		{Type: graphics.ElementVector4, Name: "cameraPosition", NumElements: 1},
		{Type: graphics.ElementVector4, Name: "ambientColor", NumElements: 1},
		{Type: graphics.ElementVector4, Name: "fogColor", NumElements: 1},
		{Type: graphics.ElementVector4, Name: "fogParameters", NumElements: 1},
		{Type: graphics.ElementVector4, Name: "dirLightData", NumElements: light.DirLightDataSize / 16},
	})
}

// mat3x4Bytes packs the first three rows of a transform, which is all an affine view matrix needs.
func mat3x4Bytes(m mgl32.Mat4) []byte {
	var rows [12]float32
	for row := range 3 {
		for col := range 4 {
			rows[row*4+col] = m.At(row, col)
		}
	}
	return common.SliceToBytes(rows[:])
}

func colorVec4(c colorful.Color) mgl32.Vec4 {
	return mgl32.Vec4{float32(c.R), float32(c.G), float32(c.B), 1}
}

func vec4Bytes(v mgl32.Vec4) []byte {
	return common.StructToBytes(&v)
}

// fillViewUniforms writes the camera, scene and directional light constants of a view.
func (r *renderer) fillViewUniforms(cb *graphics.ConstantBuffer, cam camera.Camera) {
	view := cam.ViewMatrix()
	proj := cam.ProjectionMatrix()
	viewProj := cam.ViewProjectionMatrix()
	near, far := cam.Near(), cam.Far()
	var ortho float32
	if cam.Orthographic() {
		ortho = 1
	}
	pos := cam.Position()

	fogStart := r.scene.FogStart() * far
	fogEnd := r.scene.FogEnd() * far
	fogRange := math32.Max(fogEnd-fogStart, common.Epsilon)

	cb.SetConstant(viewConstViewMatrix, mat3x4Bytes(view), 1)
	cb.SetConstant(viewConstProjection, common.StructToBytes(&proj), 1)
	cb.SetConstant(viewConstViewProj, common.StructToBytes(&viewProj), 1)
	cb.SetConstant(viewConstDepthParameters, vec4Bytes(mgl32.Vec4{near, far, ortho, 0}), 1)
	cb.SetConstant(viewConstCameraPosition, vec4Bytes(mgl32.Vec4{pos[0], pos[1], pos[2], 1}), 1)
	cb.SetConstant(viewConstAmbientColor, vec4Bytes(colorVec4(r.scene.AmbientColor())), 1)
	cb.SetConstant(viewConstFogColor, vec4Bytes(colorVec4(r.scene.FogColor())), 1)
	cb.SetConstant(viewConstFogParameters, vec4Bytes(mgl32.Vec4{fogEnd / far, far / fogRange, 0, 0}), 1)

	dirData := light.NewDirLightData(r.dirLight, r.camera.Far())
	cb.SetConstant(viewConstDirLightData, dirData.Marshal(), 0)
}

// shadowViewUniforms returns the pooled per-view constant buffer of the n-th shadow view drawn
// this frame. Every shadow view keeps its own buffer because all uploads land before the passes.
func (r *renderer) shadowViewUniforms(n int) (*graphics.ConstantBuffer, error) {
	for len(r.shadowPerView) <= n {
		cb := graphics.NewConstantBuffer(r.backend, fmt.Sprintf("shadow-view-%d", len(r.shadowPerView)))
		if err := defineViewUniforms(cb); err != nil {
			return nil, err
		}
		r.shadowPerView = append(r.shadowPerView, cb)
	}
	return r.shadowPerView[n], nil
}

// uploadFrameData uploads the instance transforms, light data and cluster texture once per frame.
func (r *renderer) uploadFrameData() error {
	if r.scene == nil {
		return ErrNotPrepared
	}
	if r.frameUploaded {
		return nil
	}

	if len(r.instanceData) > 0 {
		data := common.SliceToBytes(r.instanceData)
		var err error
		if r.instanceBuffer.Handle() == 0 {
			err = r.instanceBuffer.Define(graphics.UsageDynamic, common.NextPowerOfTwo(len(data)), data)
		} else {
			err = r.instanceBuffer.SetData(data)
		}
		if err != nil {
			return fmt.Errorf("upload instance transforms: %w", err)
		}
	}

	if r.lightDataBuffer.Size() == 0 {
		err := r.lightDataBuffer.Define(graphics.UsageDynamic, []graphics.Constant{
			{Type: graphics.ElementVector4, Name: "lights", NumElements: light.MaxClusterLights * light.LightDataSize / 16},
		})
		if err != nil {
			return fmt.Errorf("define light data: %w", err)
		}
	}
	if len(r.lightData) > 0 {
		r.lightDataBuffer.SetConstant(0, light.MarshalLightData(r.lightData), len(r.lightData)*light.LightDataSize/16)
	}
	if err := r.lightDataBuffer.Apply(); err != nil {
		return fmt.Errorf("upload light data: %w", err)
	}

	width := light.NumClustersX * light.NumClustersZ
	height := light.NumClustersY
	if r.clusterTexture.Handle() == 0 {
		if err := r.clusterTexture.Define(graphics.Texture2D, graphics.UsageDynamic, width, height, graphics.FormatRGBA32Uint, 1); err != nil {
			return fmt.Errorf("define light clusters: %w", err)
		}
	}
	if err := r.clusterTexture.SetData(0, common.NewIntRect(0, 0, width, height), r.clusters.data); err != nil {
		return fmt.Errorf("upload light clusters: %w", err)
	}

	r.frameUploaded = true
	return nil
}

func (r *renderer) RenderShadowMaps() error {
	if err := r.uploadFrameData(); err != nil {
		return err
	}

	// The maps can not be sampled while they are rendered into.
	r.backend.BindTexture(TUDirLightShadow, 0)
	r.backend.BindTexture(TUShadowAtlas, 0)

	drawn := 0
	for mi, m := range r.shadowMaps {
		if !m.IsDefined() || m.NumQueues() == 0 {
			continue
		}

		m.FrameBuffer().Bind()
		if err := r.backend.BeginPass(graphics.ClearOptions{Depth: true, DepthValue: 1}); err != nil {
			return fmt.Errorf("render shadow map %d: %w", mi, err)
		}
		for qi, view := range m.Views {
			q := m.Queues[qi]
			if !view.Render || q.Len() == 0 {
				continue
			}

			cb, err := r.shadowViewUniforms(drawn)
			if err != nil {
				r.backend.EndPass()
				return fmt.Errorf("render shadow map %d: %w", mi, err)
			}
			drawn++
			r.fillViewUniforms(cb, view.ShadowCamera)
			if err := cb.Apply(); err != nil {
				r.backend.EndPass()
				return fmt.Errorf("render shadow map %d: %w", mi, err)
			}
			cb.Bind(SlotPerView)

			r.backend.SetViewport(view.Viewport)
			r.backend.SetDepthBias(graphics.DepthBias{
				Constant:   view.Light.DepthBias() * r.depthBiasMul,
				SlopeScale: view.Light.SlopeScaleBias() * r.slopeScaleBiasMul,
			})
			if err := r.renderBatches(q, r.shadowBase[mi]+m.InstanceBases[qi]); err != nil {
				r.backend.EndPass()
				return fmt.Errorf("render shadow map %d: %w", mi, err)
			}
		}
		r.backend.EndPass()
	}
	return nil
}

func (r *renderer) RenderOpaque(clear bool) error {
	return r.renderView(&r.opaque, r.opaqueBase, clear)
}

func (r *renderer) RenderAlpha() error {
	return r.renderView(&r.alpha, r.alphaBase, false)
}

// renderView runs one pass over the view target with the frame's lighting resources bound.
func (r *renderer) renderView(q *batch.Queue, base int, clear bool) error {
	if err := r.uploadFrameData(); err != nil {
		return err
	}
	if r.perView.Size() == 0 {
		if err := defineViewUniforms(r.perView); err != nil {
			return fmt.Errorf("define view uniforms: %w", err)
		}
	}

	if r.viewTarget != nil {
		r.viewTarget.Bind()
	} else {
		r.backend.BindFrameBuffer(0, 0)
	}
	err := r.backend.BeginPass(graphics.ClearOptions{
		Color:      clear,
		ColorValue: r.scene.FogColor(),
		Depth:      clear,
		DepthValue: 1,
	})
	if err != nil {
		return fmt.Errorf("render view: %w", err)
	}
	defer r.backend.EndPass()

	if !r.viewport.IsEmpty() {
		r.backend.SetViewport(r.viewport)
	}
	r.backend.SetDepthBias(graphics.DepthBias{})

	r.fillViewUniforms(r.perView, r.camera)
	if err := r.perView.Apply(); err != nil {
		return fmt.Errorf("render view: %w", err)
	}
	r.perView.Bind(SlotPerView)
	r.lightDataBuffer.Bind(SlotLightData)
	r.shadowMaps[0].Texture().Bind(TUDirLightShadow)
	r.shadowMaps[1].Texture().Bind(TUShadowAtlas)
	r.clusterTexture.Bind(TULightClusterData)

	if err := r.renderBatches(q, base); err != nil {
		return fmt.Errorf("render view: %w", err)
	}
	return nil
}

// renderBatches draws a sorted queue, changing pipeline and material only when they differ from
// the previous batch.
func (r *renderer) renderBatches(q *batch.Queue, base int) error {
	var lastPass *material.Pass
	var lastMaterial material.Material
	instances := r.instanceBuffer.Handle()
	for i := range q.Batches {
		b := &q.Batches[i]
		if b.Pass != lastPass {
			r.backend.SetPipeline(b.Pass.PipelineKey())
			lastPass = b.Pass
		}
		if b.Material != lastMaterial {
			if err := b.Material.Apply(r.backend, SlotMaterial); err != nil {
				return fmt.Errorf("batch %d: %w", i, err)
			}
			lastMaterial = b.Material
		}
		r.backend.Draw(b.Geometry.DrawCommand(instances, uint32(base+b.InstanceStart), uint32(b.InstanceCount)))
	}
	return nil
}

func (r *renderer) Submit() error {
	if err := r.backend.Submit(); err != nil {
		return fmt.Errorf("submit frame %d: %w", r.frameNumber, err)
	}
	return nil
}
