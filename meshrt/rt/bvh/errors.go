package bvh

import "errors"

var (
	// ErrEncodingOverflow is returned when a node index, triangle offset or
	// triangle count does not fit the 32-bit node encoding. The mesh is too
	// large to be traversed by the GPU kernel and no structure is produced.
	ErrEncodingOverflow = errors.New("bvh: mesh exceeds the node encoding range")

	// ErrIndexOutOfRange marks a triangle referencing a vertex that does not
	// exist. Loaders are expected to reject such meshes before building.
	ErrIndexOutOfRange = errors.New("bvh: triangle index out of range")
)
