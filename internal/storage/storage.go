// Package storage abstracts where uploaded listing pictures live.
package storage

import (
	"io"
	"io/fs"
)

// Object is a read-only stored object.
type Object interface {
	io.ReadCloser
}

// Storage stores named objects.
type Storage interface {
	Open(name string) (Object, error)
	Put(name string, r io.Reader) (int64, error)
	Delete(name string) error
	Exists(name string) (bool, error)
	Stat(name string) (fs.FileInfo, error)
}
