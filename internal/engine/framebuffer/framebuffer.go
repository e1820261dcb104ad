// Package framebuffer renders into an offscreen color+depth target so captures
// do not depend on the state of the swapped back buffer.
package framebuffer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Framebuffer is an RGBA8 color renderbuffer with a 24-bit depth attachment.
type Framebuffer struct {
	fbo    uint32
	color  uint32
	depth  uint32
	width  int32
	height int32
}

// New allocates a target of at least 1x1 pixels.
func New(width, height int) (*Framebuffer, error) {
	fb := &Framebuffer{width: int32(max(width, 1)), height: int32(max(height, 1))}

	gl.GenFramebuffers(1, &fb.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
	defer gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	gl.GenRenderbuffers(1, &fb.color)
	gl.BindRenderbuffer(gl.RENDERBUFFER, fb.color)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.RGBA8, fb.width, fb.height)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.RENDERBUFFER, fb.color)

	gl.GenRenderbuffers(1, &fb.depth)
	gl.BindRenderbuffer(gl.RENDERBUFFER, fb.depth)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, fb.width, fb.height)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, fb.depth)
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)

	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		fb.Delete()
		return nil, fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}
	return fb, nil
}

// Size returns the target dimensions in pixels.
func (fb *Framebuffer) Size() (int, int) {
	return int(fb.width), int(fb.height)
}

// Bind makes fb the render target and sets the viewport to cover it.
// The returned func restores the previous target and viewport.
func (fb *Framebuffer) Bind() (restore func()) {
	var prevFBO int32
	var prevViewport [4]int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prevFBO)
	gl.GetIntegerv(gl.VIEWPORT, &prevViewport[0])

	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
	gl.Viewport(0, 0, fb.width, fb.height)

	return func() {
		gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFBO))
		gl.Viewport(prevViewport[0], prevViewport[1], prevViewport[2], prevViewport[3])
	}
}

// ReadPixels returns the color attachment as tightly packed bottom-up RGBA rows.
func (fb *Framebuffer) ReadPixels() []byte {
	pixels := make([]byte, int(fb.width)*int(fb.height)*4)

	var prev int32
	gl.GetIntegerv(gl.READ_FRAMEBUFFER_BINDING, &prev)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fb.fbo)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, fb.width, fb.height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(prev))

	return pixels
}

// Delete releases the GL objects. It is safe to call twice.
func (fb *Framebuffer) Delete() {
	if fb.fbo != 0 {
		gl.DeleteFramebuffers(1, &fb.fbo)
		fb.fbo = 0
	}
	if fb.color != 0 {
		gl.DeleteRenderbuffers(1, &fb.color)
		fb.color = 0
	}
	if fb.depth != 0 {
		gl.DeleteRenderbuffers(1, &fb.depth)
		fb.depth = 0
	}
}
