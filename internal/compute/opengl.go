//go:build opengl

package compute

import (
	"fmt"

	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/san-kum/nbodytree/internal/layout"
	"github.com/san-kum/nbodytree/internal/octree"
)

// GLUploader keeps one shader storage buffer holding the current tree. A GL
// context must be current on the calling goroutine.
type GLUploader struct {
	SSBO    uint32
	Binding uint32
	Layout  layout.Layout

	buf         []byte
	capacity    int
	initialized bool
}

func NewGLUploader(binding uint32, l layout.Layout) *GLUploader {
	return &GLUploader{Binding: binding, Layout: l}
}

func (u *GLUploader) Available() bool { return true }

func (u *GLUploader) Init() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("compute: init opengl: %w", err)
	}
	gl.GenBuffers(1, &u.SSBO)
	u.initialized = true
	return nil
}

// Upload encodes tree and copies it into the buffer, growing the buffer
// when the tree no longer fits.
func (u *GLUploader) Upload(tree *octree.Tree) error {
	if !u.initialized {
		if err := u.Init(); err != nil {
			return err
		}
	}
	u.buf = layout.AppendEncode(u.buf[:0], tree.Nodes, u.Layout)
	if len(u.buf) == 0 {
		return nil
	}

	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, u.SSBO)
	if len(u.buf) > u.capacity {
		gl.BufferData(gl.SHADER_STORAGE_BUFFER, len(u.buf), gl.Ptr(u.buf), gl.DYNAMIC_DRAW)
		u.capacity = len(u.buf)
	} else {
		gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, len(u.buf), gl.Ptr(u.buf))
	}
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, u.Binding, u.SSBO)
	return nil
}

func (u *GLUploader) Cleanup() {
	if u.initialized {
		gl.DeleteBuffers(1, &u.SSBO)
		u.initialized = false
		u.capacity = 0
	}
}
