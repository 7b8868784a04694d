package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gekko3d/meshrt/meshrt/rt/bvh"
	"github.com/gekko3d/meshrt/meshrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	NodeStride     = 32
	TriangleStride = 12
	VertexStride   = 32
)

// NodeStructWGSL declares the node record PackNodes writes. The traversal
// kernel decodes offset exactly as bvh.FlatNode does: offset < 0 is a leaf
// whose first triangle is ~offset, otherwise offset is the right child and
// the left child is the next node.
const NodeStructWGSL = `struct BVHNode {
    aabb_min : vec3<f32>,
    offset   : i32,
    aabb_max : vec3<f32>,
    count    : u32,
};`

// TriangleIndexWGSL reads triangle i from a buffer written by PackIndices.
// Records are tightly packed u32 triples, which array<vec3<u32>> cannot
// express in a storage buffer (its stride is 16), so the kernel binds the
// buffer as tri_indices : array<u32> and reads three scalars at 3*i.
const TriangleIndexWGSL = `fn load_triangle(i : u32) -> vec3<u32> {
    let base = 3u * i;
    return vec3<u32>(tri_indices[base], tri_indices[base + 1u], tri_indices[base + 2u]);
}`

// Matches WGSL BVHNode
//
//	aabb_min : vec3<f32>; (12)
//	offset   : i32;       (4)
//	aabb_max : vec3<f32>; (12)
//	count    : u32;       (4)
//
// -> 32 bytes
func putNode(buf []byte, n bvh.FlatNode) {
	putVec3(buf[0:12], n.Bounds.Min)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(n.Offset))
	putVec3(buf[16:28], n.Bounds.Max)
	binary.LittleEndian.PutUint32(buf[28:32], n.Count)
}

func putVec3(buf []byte, v mgl32.Vec3) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v.X()))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v.Y()))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v.Z()))
}

func getVec3(buf []byte) mgl32.Vec3 {
	return mgl32.Vec3{
		math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4])),
		math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8])),
		math.Float32frombits(binary.LittleEndian.Uint32(buf[8:12])),
	}
}

// checkSize fails when count records of stride bytes cannot be addressed by
// a 32-bit buffer size.
func checkSize(what string, count, stride int) error {
	if count > math.MaxInt32 || uint64(count)*uint64(stride) > math.MaxUint32 {
		return fmt.Errorf("%d %s: %w", count, what, bvh.ErrEncodingOverflow)
	}
	return nil
}

// PackNodes writes the node array in the BVHNode layout. An empty array
// packs as a single empty leaf so the storage binding is never zero sized.
func PackNodes(nodes []bvh.FlatNode) ([]byte, error) {
	if err := checkSize("nodes", len(nodes), NodeStride); err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		nodes = []bvh.FlatNode{{Bounds: core.EmptyAABB(), Offset: -1}}
	}
	buf := make([]byte, len(nodes)*NodeStride)
	for i, n := range nodes {
		putNode(buf[i*NodeStride:], n)
	}
	return buf, nil
}

// UnpackNodes decodes a buffer written by PackNodes.
func UnpackNodes(buf []byte) ([]bvh.FlatNode, error) {
	if len(buf)%NodeStride != 0 {
		return nil, fmt.Errorf("gpu: node buffer of %d bytes is not a multiple of %d", len(buf), NodeStride)
	}
	nodes := make([]bvh.FlatNode, len(buf)/NodeStride)
	for i := range nodes {
		rec := buf[i*NodeStride : (i+1)*NodeStride]
		nodes[i] = bvh.FlatNode{
			Bounds: core.AABB{Min: getVec3(rec[0:12]), Max: getVec3(rec[16:28])},
			Offset: int32(binary.LittleEndian.Uint32(rec[12:16])),
			Count:  binary.LittleEndian.Uint32(rec[28:32]),
		}
	}
	return nodes, nil
}

// PackIndices writes triangles as tightly packed u32 triples, the RGB32UI
// texel layout of the index buffer texture.
func PackIndices(indices []core.TriangleIndexData) ([]byte, error) {
	if err := checkSize("triangles", len(indices), TriangleStride); err != nil {
		return nil, err
	}
	buf := make([]byte, len(indices)*TriangleStride)
	for i, tri := range indices {
		off := i * TriangleStride
		binary.LittleEndian.PutUint32(buf[off:off+4], tri[0])
		binary.LittleEndian.PutUint32(buf[off+4:off+8], tri[1])
		binary.LittleEndian.PutUint32(buf[off+8:off+12], tri[2])
	}
	return buf, nil
}

// PackVertices writes each vertex as two RGBA32F texels:
// (position.xyz, normal.x) and (normal.yz, uv.xy).
func PackVertices(vertices []core.Vertex) ([]byte, error) {
	if err := checkSize("vertices", len(vertices), VertexStride); err != nil {
		return nil, err
	}
	buf := make([]byte, len(vertices)*VertexStride)
	for i, v := range vertices {
		off := i * VertexStride
		putVec3(buf[off:off+12], v.Position)
		putVec3(buf[off+12:off+24], v.Normal)
		binary.LittleEndian.PutUint32(buf[off+24:off+28], math.Float32bits(v.TexCoord.X()))
		binary.LittleEndian.PutUint32(buf[off+28:off+32], math.Float32bits(v.TexCoord.Y()))
	}
	return buf, nil
}
