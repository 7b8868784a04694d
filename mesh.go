package meshrt

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/gekko3d/meshrt/meshrt/rt/bvh"
	"github.com/gekko3d/meshrt/meshrt/rt/core"
	"github.com/gekko3d/meshrt/meshrt/rt/gpu"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

var ErrMeshNotFound = errors.New("meshrt: mesh not found")

// Mesh owns decoded geometry and the flattened BVH built over it. A Mesh is
// not safe for concurrent Load calls; reads after a Load has returned may
// happen from any goroutine.
type Mesh struct {
	ID    uuid.UUID
	Name  string
	Color mgl32.Vec3

	logger   Logger
	config   bvh.Config
	vertices []core.Vertex
	indices  []core.TriangleIndexData
	flat     *bvh.FlatBVH
	stats    bvh.Stats
	// Bumped on every successful Load so uploads can skip unchanged meshes.
	version uint64
	// Manager holding this mesh's buffers since the last Upload.
	buffers *gpu.MeshBufferManager
}

func NewMesh(name string, cfg bvh.Config, logger Logger) *Mesh {
	return &Mesh{
		ID:     uuid.New(),
		Name:   name,
		Color:  mgl32.Vec3{1, 1, 1},
		logger: orNop(logger),
		config: cfg,
	}
}

// Load copies the geometry and builds its acceleration structure. On error
// the mesh keeps whatever it held before.
func (m *Mesh) Load(vertices []core.Vertex, indices []core.TriangleIndexData) error {
	start := time.Now()
	flat, stats, err := bvh.BuildFlat(vertices, indices, m.config)
	if err != nil {
		m.logger.Errorf("mesh %q: BVH build failed: %v", m.Name, err)
		return fmt.Errorf("mesh %q: %w", m.Name, err)
	}

	m.vertices = slices.Clone(vertices)
	m.indices = slices.Clone(indices)
	m.flat = flat
	m.stats = stats
	m.version++

	m.logger.Debugf(
		"mesh %q: BVH build time: %d ms, triangles: %d, nodes: %d, leafs: %d, maxDepth: %d, maxLeaf: %d",
		m.Name, time.Since(start).Milliseconds(),
		stats.Triangles, stats.Nodes, stats.Leaves, stats.MaxDepth, stats.MaxLeafSize,
	)
	if stats.Fallbacks > 0 {
		m.logger.Debugf("mesh %q: %d splits fell back to median on degenerate centroids", m.Name, stats.Fallbacks)
	}
	if stats.DepthCapLeaves > 0 {
		m.logger.Warnf("mesh %q: %d leaves forced at depth cap %d (largest holds %d triangles)",
			m.Name, stats.DepthCapLeaves, m.config.MaxDepth, stats.MaxLeafSize)
	}
	return nil
}

// Reload replaces the geometry and rebuilds the structure from scratch.
func (m *Mesh) Reload(vertices []core.Vertex, indices []core.TriangleIndexData) error {
	return m.Load(vertices, indices)
}

// Release drops geometry and structure, and frees the GPU buffers of the
// last Upload. The mesh can be loaded again.
func (m *Mesh) Release() {
	if m.buffers != nil {
		m.buffers.ReleaseMesh(m.ID)
		m.buffers = nil
	}
	m.vertices = nil
	m.indices = nil
	m.flat = nil
	m.stats = bvh.Stats{}
}

func (m *Mesh) Loaded() bool {
	return m.flat != nil
}

func (m *Mesh) SetColor(color mgl32.Vec3) {
	m.Color = color
}

func (m *Mesh) Vertices() []core.Vertex {
	return m.vertices
}

// Indices returns the triangles in their original order.
func (m *Mesh) Indices() []core.TriangleIndexData {
	return m.indices
}

func (m *Mesh) BVH() *bvh.FlatBVH {
	return m.flat
}

func (m *Mesh) Stats() bvh.Stats {
	return m.stats
}

func (m *Mesh) Version() uint64 {
	return m.version
}

// Bounds is the root box, or the empty box for an unloaded or empty mesh.
func (m *Mesh) Bounds() core.AABB {
	if m.flat == nil {
		return core.EmptyAABB()
	}
	return m.flat.Bounds()
}

// Intersect returns the closest hit on this mesh closer than tMax.
func (m *Mesh) Intersect(ray core.Ray, tMax float32) (bvh.Hit, bool) {
	if m.flat == nil {
		return bvh.Hit{}, false
	}
	return bvh.Intersect(m.flat, m.vertices, ray, tMax)
}

// Upload writes the mesh buffers through mgr. See gpu.MeshBufferManager.
func (m *Mesh) Upload(mgr *gpu.MeshBufferManager) (bool, error) {
	if m.flat == nil {
		return false, fmt.Errorf("mesh %q is not loaded", m.Name)
	}
	if m.buffers != nil && m.buffers != mgr {
		m.buffers.ReleaseMesh(m.ID)
	}
	m.buffers = mgr
	return mgr.UploadMesh(m.ID, m.vertices, m.indices, m.flat)
}
