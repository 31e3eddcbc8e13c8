package devicetest

import (
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/device"
	"github.com/cogentcore/webgpu/wgpu"
)

// Buffer is a recorded buffer. Contents aliases the slice passed at creation.
type Buffer struct {
	label    string
	size     uint64
	usage    wgpu.BufferUsage
	Contents []byte
	Writes   int
	Released bool
}

func (b *Buffer) Label() string           { return b.label }
func (b *Buffer) Size() uint64            { return b.size }
func (b *Buffer) Usage() wgpu.BufferUsage { return b.usage }
func (b *Buffer) Release()                { b.Released = true }

// BindGroupLayout is a recorded bind group layout.
type BindGroupLayout struct {
	label    string
	Desc     wgpu.BindGroupLayoutDescriptor
	Released bool
}

func (l *BindGroupLayout) Label() string { return l.label }
func (l *BindGroupLayout) Release()      { l.Released = true }

// BindGroup is a recorded bind group.
type BindGroup struct {
	label    string
	Desc     device.BindGroupDescriptor
	Released bool
}

func (g *BindGroup) Label() string { return g.label }
func (g *BindGroup) Release()      { g.Released = true }

// RenderPipeline is a recorded render pipeline.
type RenderPipeline struct {
	label    string
	Desc     device.RenderPipelineDescriptor
	Released bool
}

func (p *RenderPipeline) Label() string { return p.label }
func (p *RenderPipeline) Release()      { p.Released = true }

// ComputePipeline is a recorded compute pipeline.
type ComputePipeline struct {
	label    string
	Desc     device.ComputePipelineDescriptor
	Released bool
}

func (p *ComputePipeline) Label() string { return p.label }
func (p *ComputePipeline) Release()      { p.Released = true }

// TextureView is a recorded view.
type TextureView struct {
	Name     string
	Released bool
}

func (v *TextureView) Release() { v.Released = true }

// SurfaceTexture is a recorded surface image.
type SurfaceTexture struct {
	view     *TextureView
	Released bool
}

func (t *SurfaceTexture) View() device.TextureView { return t.view }

func (t *SurfaceTexture) Release() {
	t.view.Release()
	t.Released = true
}

// CommandBuffer holds the commands of a finished encoder.
type CommandBuffer struct {
	label    string
	commands []Command
}

func (c *CommandBuffer) Release() {}

// CommandEncoder records passes into a command list.
type CommandEncoder struct {
	label    string
	commands []Command
	open     bool
	Released bool
}

func (e *CommandEncoder) BeginComputePass(label string) device.ComputePass {
	if e.open {
		panic("devicetest: pass already open on encoder " + e.label)
	}
	e.open = true
	e.commands = append(e.commands, Command{Op: OpBeginComputePass, Label: label})
	return &ComputePass{enc: e}
}

func (e *CommandEncoder) BeginRenderPass(desc device.RenderPassDescriptor) device.RenderPass {
	if e.open {
		panic("devicetest: pass already open on encoder " + e.label)
	}
	e.open = true
	cmd := Command{Op: OpBeginRenderPass, Label: desc.Label, ClearColor: desc.ClearColor}
	if v, ok := desc.View.(*TextureView); ok {
		cmd.View = v
	}
	if v, ok := desc.ResolveTarget.(*TextureView); ok {
		cmd.ResolveTarget = v
	}
	e.commands = append(e.commands, cmd)
	return &RenderPass{enc: e}
}

func (e *CommandEncoder) Finish() (device.CommandBuffer, error) {
	if e.open {
		panic("devicetest: Finish with an open pass on encoder " + e.label)
	}
	return &CommandBuffer{label: e.label, commands: e.commands}, nil
}

func (e *CommandEncoder) Release() { e.Released = true }

func (e *CommandEncoder) record(c Command) {
	if !e.open {
		panic("devicetest: command recorded outside a pass: " + string(c.Op))
	}
	e.commands = append(e.commands, c)
}

func (e *CommandEncoder) end() {
	e.record(Command{Op: OpEndPass})
	e.open = false
}

// ComputePass records into its encoder.
type ComputePass struct {
	enc      *CommandEncoder
	pipeline *ComputePipeline
}

func (p *ComputePass) SetPipeline(pipeline device.ComputePipeline) {
	p.pipeline = pipeline.(*ComputePipeline)
	p.enc.record(Command{Op: OpSetPipeline, Label: p.pipeline.label})
}

func (p *ComputePass) SetBindGroup(index uint32, group device.BindGroup) {
	g := group.(*BindGroup)
	p.enc.record(Command{Op: OpSetBindGroup, Index: index, Group: g, Label: g.label})
}

func (p *ComputePass) SetPushConstants(offset uint32, data []byte) {
	if p.pipeline == nil {
		panic("devicetest: push constants without a pipeline")
	}
	var end uint32
	for _, r := range p.pipeline.Desc.PushConstantRanges {
		end = max(end, r.End)
	}
	if offset+uint32(len(data)) > end {
		panic("devicetest: push constants exceed the pipeline range")
	}
	p.enc.record(Command{Op: OpPushConstants, Index: offset, Data: append([]byte(nil), data...)})
}

func (p *ComputePass) DispatchWorkgroups(x, y, z uint32) {
	p.enc.record(Command{Op: OpDispatch, Workgroups: [3]uint32{x, y, z}})
}

func (p *ComputePass) End() { p.enc.end() }

// RenderPass records into its encoder.
type RenderPass struct {
	enc *CommandEncoder
}

func (p *RenderPass) SetPipeline(pipeline device.RenderPipeline) {
	p.enc.record(Command{Op: OpSetPipeline, Label: pipeline.Label()})
}

func (p *RenderPass) SetBindGroup(index uint32, group device.BindGroup) {
	g := group.(*BindGroup)
	p.enc.record(Command{Op: OpSetBindGroup, Index: index, Group: g, Label: g.label})
}

func (p *RenderPass) SetVertexBuffer(slot uint32, buf device.Buffer) {
	b := buf.(*Buffer)
	p.enc.record(Command{Op: OpSetVertexBuffer, Slot: slot, Buffer: b, Label: b.label})
}

func (p *RenderPass) SetIndexBuffer(buf device.Buffer, format wgpu.IndexFormat) {
	b := buf.(*Buffer)
	p.enc.record(Command{Op: OpSetIndexBuffer, Buffer: b, Label: b.label, IndexFormat: format})
}

func (p *RenderPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.enc.record(Command{
		Op:            OpDrawIndexed,
		IndexCount:    indexCount,
		InstanceCount: instanceCount,
		FirstIndex:    firstIndex,
		BaseVertex:    baseVertex,
		FirstInstance: firstInstance,
	})
}

func (p *RenderPass) End() { p.enc.end() }
