package meshrt

import (
	"context"
	"errors"
	"testing"

	"github.com/gekko3d/meshrt/meshrt/rt/bvh"
	"github.com/gekko3d/meshrt/meshrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScene() SceneDef {
	return SceneDef{Meshes: []MeshDef{
		{Name: "floor", IsProcedural: true, Procedural: ProceduralDef{Type: "quad", Params: []float32{1}}},
		{Name: "crate", IsProcedural: true, Procedural: ProceduralDef{Type: "box", Params: []float32{1, 1, 1}}, Color: mgl32.Vec3{1, 0, 0}},
		{Name: "dust", IsProcedural: true, Procedural: ProceduralDef{Type: "soup", Params: []float32{500, 0.02}, Seed: 3}},
	}}
}

func TestSceneLoadScene(t *testing.T) {
	scene := NewSceneManager(bvh.DefaultConfig(), nil)
	meshes, err := scene.LoadScene(context.Background(), testScene())
	require.NoError(t, err)
	require.Len(t, meshes, 3)

	all := scene.Meshes()
	assert.Equal(t, meshes, all)
	assert.Equal(t, "floor", all[0].Name)
	assert.Equal(t, "crate", all[1].Name)
	assert.Equal(t, "dust", all[2].Name)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, all[1].Color)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, all[0].Color)

	for _, m := range all {
		got, ok := scene.Mesh(m.ID)
		require.True(t, ok)
		assert.Same(t, m, got)
		require.NoError(t, bvh.Validate(m.BVH(), m.Vertices(), m.Indices()))
	}
}

func TestSceneIntersectClosestMesh(t *testing.T) {
	scene := NewSceneManager(bvh.DefaultConfig(), nil)
	floorV, floorI := CreateQuad(1)
	_, err := scene.AddMesh("floor", floorV, floorI)
	require.NoError(t, err)
	crateV, crateI := CreateBox(mgl32.Vec3{0.25, 0.25, 0}, mgl32.Vec3{0.75, 0.75, 1})
	crate, err := scene.AddMesh("crate", crateV, crateI)
	require.NoError(t, err)

	hit, ok := scene.Intersect(core.NewRay(mgl32.Vec3{0.5, 0.5, 5}, mgl32.Vec3{0, 0, -1}))
	require.True(t, ok)
	assert.Same(t, crate, hit.Mesh)
	assert.InDelta(t, 4.0, hit.T, 1e-5)

	hit, ok = scene.Intersect(core.NewRay(mgl32.Vec3{0.1, 0.1, 5}, mgl32.Vec3{0, 0, -1}))
	require.True(t, ok)
	assert.Equal(t, "floor", hit.Mesh.Name)
	assert.InDelta(t, 5.0, hit.T, 1e-5)

	_, ok = scene.Intersect(core.NewRay(mgl32.Vec3{3, 3, 5}, mgl32.Vec3{0, 0, -1}))
	assert.False(t, ok)

	bounds := scene.Bounds()
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, bounds.Min)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, bounds.Max)
}

func TestSceneLoadSceneFailsAtomically(t *testing.T) {
	scene := NewSceneManager(bvh.DefaultConfig(), nil)
	def := testScene()
	def.Meshes = append(def.Meshes, MeshDef{Name: "broken", IsProcedural: true, Procedural: ProceduralDef{Type: "teapot"}})

	_, err := scene.LoadScene(context.Background(), def)
	require.Error(t, err)
	assert.Empty(t, scene.Meshes())

	def = SceneDef{Meshes: []MeshDef{{
		Name:     "bad-index",
		Vertices: []core.Vertex{{}, {}, {}},
		Indices:  []core.TriangleIndexData{{0, 1, 3}},
	}}}
	_, err = scene.LoadScene(context.Background(), def)
	assert.True(t, errors.Is(err, bvh.ErrIndexOutOfRange))
	assert.Empty(t, scene.Meshes())

	def = SceneDef{Meshes: []MeshDef{{
		Name:         "negative-soup",
		IsProcedural: true,
		Procedural:   ProceduralDef{Type: "soup", Params: []float32{-3}},
	}}}
	_, err = scene.LoadScene(context.Background(), def)
	assert.ErrorContains(t, err, "negative-soup")
	assert.Empty(t, scene.Meshes())
}

func TestSceneLoadSceneCancelled(t *testing.T) {
	scene := NewSceneManager(bvh.DefaultConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := scene.LoadScene(ctx, testScene())
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, scene.Meshes())
}

func TestSceneRemoveMesh(t *testing.T) {
	scene := NewSceneManager(bvh.DefaultConfig(), nil)
	v, i := CreateQuad(1)
	a, err := scene.AddMesh("a", v, i)
	require.NoError(t, err)
	v, i = CreateQuad(2)
	b, err := scene.AddMesh("b", v, i)
	require.NoError(t, err)

	require.NoError(t, scene.RemoveMesh(a.ID))
	assert.Equal(t, []*Mesh{b}, scene.Meshes())
	assert.False(t, a.Loaded())
	_, ok := scene.Mesh(a.ID)
	assert.False(t, ok)

	err = scene.RemoveMesh(uuid.New())
	assert.True(t, errors.Is(err, ErrMeshNotFound))
}

func TestMeshDefGeometry(t *testing.T) {
	vertices, indices := CreateQuad(1)
	v, i, err := MeshDef{Vertices: vertices, Indices: indices}.Geometry()
	require.NoError(t, err)
	assert.Equal(t, vertices, v)
	assert.Equal(t, indices, i)
}
