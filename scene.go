package meshrt

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/gekko3d/meshrt/meshrt/rt/bvh"
	"github.com/gekko3d/meshrt/meshrt/rt/core"
	"github.com/gekko3d/meshrt/meshrt/rt/gpu"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SceneDef defines the meshes of a scene.
type SceneDef struct {
	Meshes []MeshDef
}

// MeshDef defines one mesh, either from decoded geometry or procedurally.
type MeshDef struct {
	Name     string
	Color    mgl32.Vec3
	Vertices []core.Vertex
	Indices  []core.TriangleIndexData

	IsProcedural bool
	Procedural   ProceduralDef
}

type ProceduralDef struct {
	Type   string // "quad", "box", "grid", "soup"
	Params []float32
	Seed   int64
}

// Geometry resolves the definition to vertices and indices.
func (d MeshDef) Geometry() ([]core.Vertex, []core.TriangleIndexData, error) {
	if !d.IsProcedural {
		return d.Vertices, d.Indices, nil
	}
	return d.Procedural.Geometry()
}

// SceneHit is the closest hit across all meshes of a scene.
type SceneHit struct {
	Mesh *Mesh
	bvh.Hit
}

// SceneManager owns the meshes of a scene in insertion order.
type SceneManager struct {
	logger Logger
	config bvh.Config

	meshes []*Mesh
	byID   map[uuid.UUID]*Mesh

	uploaded map[uuid.UUID]uint64
}

func NewSceneManager(cfg bvh.Config, logger Logger) *SceneManager {
	return &SceneManager{
		logger:   orNop(logger),
		config:   cfg,
		byID:     make(map[uuid.UUID]*Mesh),
		uploaded: make(map[uuid.UUID]uint64),
	}
}

// AddMesh builds a mesh from decoded geometry and adds it to the scene.
func (s *SceneManager) AddMesh(name string, vertices []core.Vertex, indices []core.TriangleIndexData) (*Mesh, error) {
	mesh := NewMesh(name, s.config, s.logger)
	if err := mesh.Load(vertices, indices); err != nil {
		return nil, err
	}
	s.add(mesh)
	return mesh, nil
}

func (s *SceneManager) add(mesh *Mesh) {
	s.meshes = append(s.meshes, mesh)
	s.byID[mesh.ID] = mesh
}

// LoadScene builds every mesh of def concurrently. Builds share no state, so
// each runs on its own goroutine. Either all meshes are added, in definition
// order, or none are and the first error is returned.
func (s *SceneManager) LoadScene(ctx context.Context, def SceneDef) ([]*Mesh, error) {
	meshes := make([]*Mesh, len(def.Meshes))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, md := range def.Meshes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			vertices, indices, err := md.Geometry()
			if err != nil {
				return fmt.Errorf("mesh %q: %w", md.Name, err)
			}
			mesh := NewMesh(md.Name, s.config, s.logger)
			if md.Color != (mgl32.Vec3{}) {
				mesh.SetColor(md.Color)
			}
			if err := mesh.Load(vertices, indices); err != nil {
				return err
			}
			meshes[i] = mesh
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	triangles := 0
	for _, mesh := range meshes {
		s.add(mesh)
		triangles += mesh.Stats().Triangles
	}
	s.logger.Infof("scene loaded: %d meshes, %d triangles", len(meshes), triangles)
	return meshes, nil
}

func (s *SceneManager) Mesh(id uuid.UUID) (*Mesh, bool) {
	m, ok := s.byID[id]
	return m, ok
}

// Meshes returns the meshes in insertion order.
func (s *SceneManager) Meshes() []*Mesh {
	out := make([]*Mesh, len(s.meshes))
	copy(out, s.meshes)
	return out
}

// RemoveMesh releases the mesh, which frees any GPU buffers uploaded for it.
func (s *SceneManager) RemoveMesh(id uuid.UUID) error {
	mesh, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrMeshNotFound)
	}
	for i, m := range s.meshes {
		if m == mesh {
			s.meshes = append(s.meshes[:i], s.meshes[i+1:]...)
			break
		}
	}
	delete(s.byID, id)
	delete(s.uploaded, id)
	mesh.Release()
	return nil
}

// Bounds is the union of all mesh boxes.
func (s *SceneManager) Bounds() core.AABB {
	box := core.EmptyAABB()
	for _, m := range s.meshes {
		box = core.Union(box, m.Bounds())
	}
	return box
}

// Intersect returns the closest hit over all meshes. Each mesh is traversed
// with the best distance found so far, like the per-mesh closest hit pass
// sharing one depth buffer.
func (s *SceneManager) Intersect(ray core.Ray) (SceneHit, bool) {
	var best SceneHit
	found := false
	closest := float32(math.Inf(1))
	for _, m := range s.meshes {
		if hit, ok := m.Intersect(ray, closest); ok {
			closest = hit.T
			best = SceneHit{Mesh: m, Hit: hit}
			found = true
		}
	}
	return best, found
}

// Upload writes every mesh that changed since its last upload. It reports
// whether any GPU buffer was recreated.
func (s *SceneManager) Upload(mgr *gpu.MeshBufferManager) (bool, error) {
	recreated := false
	for _, m := range s.meshes {
		if !m.Loaded() || s.uploaded[m.ID] == m.Version() {
			continue
		}
		r, err := m.Upload(mgr)
		if err != nil {
			return recreated, err
		}
		recreated = recreated || r
		s.uploaded[m.ID] = m.Version()
	}
	return recreated, nil
}
