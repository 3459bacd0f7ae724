package fs

//go:generate go run go.uber.org/mock/mockgen@v0.5.2 -destination mocks/fs_mock.go -package mocks . File,Opener

import (
	"io"
)

// File is a read-only handle owned by a single operation.
type File interface {
	io.Reader
	io.Seeker
	io.Closer
}

type Opener interface {
	Open(path string) (File, error)
}

// OpenerFunc adapts a plain function to the Opener interface.
type OpenerFunc func(path string) (File, error)

func (f OpenerFunc) Open(path string) (File, error) {
	return f(path)
}

// DefaultOpener opens files through the operating system.
var DefaultOpener Opener = OpenerFunc(Open)
