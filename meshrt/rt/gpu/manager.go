package gpu

import (
	"fmt"

	"github.com/gekko3d/meshrt/meshrt/rt/bvh"
	"github.com/gekko3d/meshrt/meshrt/rt/core"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
)

// MeshPayload is the packed form of one mesh, ready for queue writes.
type MeshPayload struct {
	Vertices []byte
	// Original triangle order, for consumers that do not use the BVH.
	Indices    []byte
	BVHNodes   []byte
	BVHIndices []byte
}

// PackMesh packs every buffer of a mesh. It fails with
// bvh.ErrEncodingOverflow when any of them is too large.
func PackMesh(vertices []core.Vertex, indices []core.TriangleIndexData, flat *bvh.FlatBVH) (*MeshPayload, error) {
	var (
		p   MeshPayload
		err error
	)
	if p.Vertices, err = PackVertices(vertices); err != nil {
		return nil, err
	}
	if p.Indices, err = PackIndices(indices); err != nil {
		return nil, err
	}
	if p.BVHNodes, err = PackNodes(flat.Nodes); err != nil {
		return nil, err
	}
	if p.BVHIndices, err = PackIndices(flat.Indices); err != nil {
		return nil, err
	}
	return &p, nil
}

type MeshBuffers struct {
	Vertices   *wgpu.Buffer
	Indices    *wgpu.Buffer
	BVHNodes   *wgpu.Buffer
	BVHIndices *wgpu.Buffer
}

func (b *MeshBuffers) release() {
	for _, buf := range []*wgpu.Buffer{b.Vertices, b.Indices, b.BVHNodes, b.BVHIndices} {
		if buf != nil {
			buf.Release()
		}
	}
	*b = MeshBuffers{}
}

type MeshBufferManager struct {
	Device *wgpu.Device
	Meshes map[uuid.UUID]*MeshBuffers
}

func NewMeshBufferManager(device *wgpu.Device) *MeshBufferManager {
	return &MeshBufferManager{
		Device: device,
		Meshes: make(map[uuid.UUID]*MeshBuffers),
	}
}

// bufferSize rounds n up to the 4 byte copy alignment. Storage bindings may
// not be empty, so the result is at least 4.
func bufferSize(n int) uint64 {
	return max((uint64(n)+3)&^3, 4)
}

// ensureBuffer makes *buf a storage buffer of at least len(data) bytes and
// writes data to its start. It reports whether the buffer was replaced.
func (m *MeshBufferManager) ensureBuffer(label string, buf **wgpu.Buffer, data []byte) bool {
	size := bufferSize(len(data))
	replaced := *buf == nil || (*buf).GetSize() < size
	if replaced {
		if *buf != nil {
			(*buf).Release()
		}
		created, err := m.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: label,
			Size:  size,
			Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			panic(fmt.Sprintf("gpu: create %s (%d bytes): %v", label, size, err))
		}
		*buf = created
	}
	if len(data) > 0 {
		m.Device.GetQueue().WriteBuffer(*buf, 0, data)
	}
	return replaced
}

// UploadMesh packs and writes all buffers of a mesh. The result reports
// whether any buffer was recreated, in which case bind groups referencing
// the mesh must be rebuilt.
func (m *MeshBufferManager) UploadMesh(id uuid.UUID, vertices []core.Vertex, indices []core.TriangleIndexData, flat *bvh.FlatBVH) (bool, error) {
	payload, err := PackMesh(vertices, indices, flat)
	if err != nil {
		return false, err
	}

	bufs, ok := m.Meshes[id]
	if !ok {
		bufs = &MeshBuffers{}
		m.Meshes[id] = bufs
	}

	label := "Mesh[" + id.String() + "]."
	recreated := false
	for _, b := range []struct {
		name string
		buf  **wgpu.Buffer
		data []byte
	}{
		{"Vertices", &bufs.Vertices, payload.Vertices},
		{"Indices", &bufs.Indices, payload.Indices},
		{"BVHNodes", &bufs.BVHNodes, payload.BVHNodes},
		{"BVHIndices", &bufs.BVHIndices, payload.BVHIndices},
	} {
		if m.ensureBuffer(label+b.name, b.buf, b.data) {
			recreated = true
		}
	}
	return recreated, nil
}

func (m *MeshBufferManager) ReleaseMesh(id uuid.UUID) {
	if bufs, ok := m.Meshes[id]; ok {
		bufs.release()
		delete(m.Meshes, id)
	}
}

func (m *MeshBufferManager) Release() {
	for id := range m.Meshes {
		m.ReleaseMesh(id)
	}
}
