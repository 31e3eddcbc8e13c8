package device

import (
	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuBuffer struct {
	label string
	size  uint64
	usage wgpu.BufferUsage
	buf   *wgpu.Buffer
}

func (b *wgpuBuffer) Label() string           { return b.label }
func (b *wgpuBuffer) Size() uint64            { return b.size }
func (b *wgpuBuffer) Usage() wgpu.BufferUsage { return b.usage }
func (b *wgpuBuffer) Release()                { b.buf.Release() }

type wgpuBindGroupLayout struct {
	label  string
	layout *wgpu.BindGroupLayout
}

func (l *wgpuBindGroupLayout) Label() string { return l.label }
func (l *wgpuBindGroupLayout) Release()      { l.layout.Release() }

type wgpuBindGroup struct {
	label string
	group *wgpu.BindGroup
}

func (g *wgpuBindGroup) Label() string { return g.label }
func (g *wgpuBindGroup) Release()      { g.group.Release() }

type wgpuRenderPipeline struct {
	label    string
	pipeline *wgpu.RenderPipeline
}

func (p *wgpuRenderPipeline) Label() string { return p.label }
func (p *wgpuRenderPipeline) Release()      { p.pipeline.Release() }

type wgpuComputePipeline struct {
	label    string
	pipeline *wgpu.ComputePipeline
	push     *pushBlock
}

func (p *wgpuComputePipeline) Label() string { return p.label }

func (p *wgpuComputePipeline) Release() {
	p.push.release()
	p.pipeline.Release()
}

// pushBlock is the uniform buffer standing in for a pipeline's push-constant window.
type pushBlock struct {
	group     uint32
	size      uint32
	layout    *wgpu.BindGroupLayout
	buffer    *wgpu.Buffer
	bindGroup *wgpu.BindGroup
}

func (p *pushBlock) release() {
	if p == nil {
		return
	}
	p.bindGroup.Release()
	p.buffer.Release()
	p.layout.Release()
}

type wgpuTextureView struct {
	view *wgpu.TextureView
}

func (v *wgpuTextureView) Release() { v.view.Release() }

type wgpuSurfaceTexture struct {
	texture *wgpu.Texture
	view    *wgpuTextureView
}

func (t *wgpuSurfaceTexture) View() TextureView { return t.view }

func (t *wgpuSurfaceTexture) Release() {
	t.view.Release()
	t.texture.Release()
}

type wgpuCommandBuffer struct {
	buf *wgpu.CommandBuffer
}

func (c *wgpuCommandBuffer) Release() { c.buf.Release() }

type wgpuCommandEncoder struct {
	queue   *wgpu.Queue
	encoder *wgpu.CommandEncoder
}

func (e *wgpuCommandEncoder) BeginComputePass(label string) ComputePass {
	pass := e.encoder.BeginComputePass(&wgpu.ComputePassDescriptor{Label: label})
	return &wgpuComputePass{queue: e.queue, pass: pass}
}

func (e *wgpuCommandEncoder) BeginRenderPass(desc RenderPassDescriptor) RenderPass {
	attachment := wgpu.RenderPassColorAttachment{
		View:       desc.View.(*wgpuTextureView).view,
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    desc.StoreOp,
		ClearValue: desc.ClearColor,
	}
	if desc.ResolveTarget != nil {
		attachment.ResolveTarget = desc.ResolveTarget.(*wgpuTextureView).view
	}
	pass := e.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:            desc.Label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{attachment},
	})
	return &wgpuRenderPass{pass: pass}
}

func (e *wgpuCommandEncoder) Finish() (CommandBuffer, error) {
	buf, err := e.encoder.Finish(nil)
	if err != nil {
		return nil, err
	}
	return &wgpuCommandBuffer{buf: buf}, nil
}

func (e *wgpuCommandEncoder) Release() { e.encoder.Release() }

type wgpuComputePass struct {
	queue    *wgpu.Queue
	pass     *wgpu.ComputePassEncoder
	pipeline *wgpuComputePipeline
}

func (p *wgpuComputePass) SetPipeline(pipeline ComputePipeline) {
	p.pipeline = pipeline.(*wgpuComputePipeline)
	p.pass.SetPipeline(p.pipeline.pipeline)
}

func (p *wgpuComputePass) SetBindGroup(index uint32, group BindGroup) {
	p.pass.SetBindGroup(index, group.(*wgpuBindGroup).group, nil)
}

func (p *wgpuComputePass) SetPushConstants(offset uint32, data []byte) {
	if p.pipeline == nil || p.pipeline.push == nil {
		panic("SetPushConstants: bound compute pipeline has no push constant range")
	}
	push := p.pipeline.push
	if offset+uint32(len(data)) > push.size {
		panic("SetPushConstants: write exceeds push constant range")
	}
	p.queue.WriteBuffer(push.buffer, uint64(offset), data)
	p.pass.SetBindGroup(push.group, push.bindGroup, nil)
}

func (p *wgpuComputePass) DispatchWorkgroups(x, y, z uint32) {
	p.pass.DispatchWorkgroups(x, y, z)
}

func (p *wgpuComputePass) End() {
	p.pass.End()
	p.pass.Release()
}

type wgpuRenderPass struct {
	pass *wgpu.RenderPassEncoder
}

func (p *wgpuRenderPass) SetPipeline(pipeline RenderPipeline) {
	p.pass.SetPipeline(pipeline.(*wgpuRenderPipeline).pipeline)
}

func (p *wgpuRenderPass) SetBindGroup(index uint32, group BindGroup) {
	p.pass.SetBindGroup(index, group.(*wgpuBindGroup).group, nil)
}

func (p *wgpuRenderPass) SetVertexBuffer(slot uint32, buf Buffer) {
	p.pass.SetVertexBuffer(slot, buf.(*wgpuBuffer).buf, 0, wgpu.WholeSize)
}

func (p *wgpuRenderPass) SetIndexBuffer(buf Buffer, format wgpu.IndexFormat) {
	p.pass.SetIndexBuffer(buf.(*wgpuBuffer).buf, format, 0, wgpu.WholeSize)
}

func (p *wgpuRenderPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.pass.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (p *wgpuRenderPass) End() {
	p.pass.End()
	p.pass.Release()
}
