//go:build !opengl

package compute

import (
	"github.com/san-kum/nbodytree/internal/layout"
	"github.com/san-kum/nbodytree/internal/octree"
)

type GLUploader struct {
	Binding uint32
	Layout  layout.Layout
}

func NewGLUploader(binding uint32, l layout.Layout) *GLUploader {
	return &GLUploader{Binding: binding, Layout: l}
}

func (u *GLUploader) Available() bool             { return false }
func (u *GLUploader) Init() error                 { return ErrUnavailable }
func (u *GLUploader) Upload(_ *octree.Tree) error { return ErrUnavailable }
func (u *GLUploader) Cleanup()                    {}
