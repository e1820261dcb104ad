package renderer

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/rfsurface/internal/engine/debug"
	"github.com/Faultbox/rfsurface/internal/surface"
)

const (
	vertexStride = int32(unsafe.Sizeof(surface.Vertex{}))
	normalOffset = unsafe.Offsetof(surface.Vertex{}.Normal)
	uvOffset     = unsafe.Offsetof(surface.Vertex{}.UV)
	colorOffset  = unsafe.Offsetof(surface.Vertex{}.Color)
)

// gpuMesh is an uploaded surface mesh.
type gpuMesh struct {
	vao, vbo, ebo uint32
	count         int32
}

func newGPUMesh(m *surface.Mesh) *gpuMesh {
	g := &gpuMesh{count: int32(len(m.Indices))}

	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Vertices)*int(vertexStride), unsafe.Pointer(&m.Vertices[0]), gl.STATIC_DRAW)

	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, unsafe.Pointer(&m.Indices[0]), gl.STATIC_DRAW)

	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, vertexStride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, vertexStride, normalOffset)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, vertexStride, uvOffset)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointerWithOffset(3, 4, gl.FLOAT, false, vertexStride, colorOffset)
	gl.EnableVertexAttribArray(3)

	gl.BindVertexArray(0)
	return g
}

func (g *gpuMesh) draw() {
	gl.BindVertexArray(g.vao)
	gl.DrawElements(gl.TRIANGLES, g.count, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

func (g *gpuMesh) delete() {
	gl.DeleteVertexArrays(1, &g.vao)
	gl.DeleteBuffers(1, &g.vbo)
	gl.DeleteBuffers(1, &g.ebo)
}

// lineBatch is a static set of coloured line segments.
type lineBatch struct {
	vao, vbo uint32
	count    int32
}

func newLineBatch(lines []debug.LineVertex) *lineBatch {
	b := &lineBatch{count: int32(len(lines))}
	if b.count == 0 {
		return b
	}
	data := debug.Flatten(lines)
	stride := int32(debug.LineFloats * 4)

	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)
	gl.GenBuffers(1, &b.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)

	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)
	return b
}

func (b *lineBatch) draw() {
	if b.count == 0 {
		return
	}
	gl.BindVertexArray(b.vao)
	gl.DrawArrays(gl.LINES, 0, b.count)
	gl.BindVertexArray(0)
}

func (b *lineBatch) delete() {
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
		gl.DeleteBuffers(1, &b.vbo)
	}
}
