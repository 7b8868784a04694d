package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/gekko3d/meshrt"
	"github.com/gekko3d/meshrt/meshrt/rt/bvh"
	"github.com/gekko3d/meshrt/meshrt/rt/core"
	"github.com/gekko3d/meshrt/meshrt/rt/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

func main() {
	triangles := flag.Int("triangles", 100000, "Number of triangles in the generated soup")
	size := flag.Float64("size", 0.02, "Edge scale of each soup triangle")
	shape := flag.String("shape", "soup", "Procedural mesh: quad, box, grid or soup")
	leaf := flag.Int("leaf", bvh.DefaultLeafThreshold, "Leaf threshold")
	depth := flag.Int("depth", bvh.DefaultMaxDepth, "Maximum tree depth")
	policy := flag.String("policy", "sah", "Split policy: sah, middle or median")
	seed := flag.Int64("seed", 1, "Random seed")
	rays := flag.Int("rays", 1000, "Random rays to trace against the tree")
	verify := flag.Bool("verify", false, "Check every ray against a brute force scan")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logger := meshrt.NewDefaultLogger("meshrt", *debug)

	split, err := bvh.ParseSplitPolicy(*policy)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(2)
	}
	cfg := bvh.Config{LeafThreshold: *leaf, MaxDepth: *depth, Policy: split, Bins: bvh.DefaultBins}

	def := meshrt.SceneDef{Meshes: []meshrt.MeshDef{{
		Name:         *shape,
		IsProcedural: true,
		Procedural:   meshrt.ProceduralDef{Type: *shape, Params: shapeParams(*shape, *triangles, float32(*size)), Seed: *seed},
	}}}

	scene := meshrt.NewSceneManager(cfg, logger)
	start := time.Now()
	meshes, err := scene.LoadScene(context.Background(), def)
	if err != nil {
		logger.Errorf("load: %v", err)
		os.Exit(1)
	}
	mesh := meshes[0]
	flat := mesh.BVH()
	if err := bvh.Validate(flat, mesh.Vertices(), mesh.Indices()); err != nil {
		logger.Errorf("validate: %v", err)
		os.Exit(1)
	}

	stats := mesh.Stats()
	fmt.Printf("policy:      %s\n", split)
	fmt.Printf("build:       %v\n", time.Since(start))
	fmt.Printf("triangles:   %d\n", stats.Triangles)
	fmt.Printf("nodes:       %d (%d leaves)\n", stats.Nodes, stats.Leaves)
	fmt.Printf("depth:       %d\n", bvh.Depth(flat.Nodes))
	fmt.Printf("max leaf:    %d\n", stats.MaxLeafSize)
	fmt.Printf("fallbacks:   %d\n", stats.Fallbacks)
	fmt.Printf("capped:      %d\n", stats.DepthCapLeaves)
	fmt.Printf("node bytes:  %d\n", len(flat.Nodes)*gpu.NodeStride)
	fmt.Printf("index bytes: %d\n", flat.TriangleCount()*gpu.TriangleStride)

	if *rays <= 0 {
		return
	}
	hits, mismatches := trace(mesh, *rays, *seed, *verify)
	fmt.Printf("rays:        %d (%d hits)\n", *rays, hits)
	if *verify {
		fmt.Printf("mismatches:  %d\n", mismatches)
		if mismatches > 0 {
			os.Exit(1)
		}
	}
}

func shapeParams(shape string, triangles int, size float32) []float32 {
	switch shape {
	case "soup":
		return []float32{float32(triangles), size}
	case "grid":
		side := float32(math.Ceil(math.Sqrt(float64(triangles) / 2)))
		return []float32{side, side, 1 / side}
	}
	return nil
}

// trace shoots rays from a sphere around the mesh toward random points inside
// its bounds.
func trace(mesh *meshrt.Mesh, n int, seed int64, verify bool) (hits, mismatches int) {
	rng := rand.New(rand.NewSource(seed))
	bounds := mesh.Bounds()
	if bounds.IsEmpty() {
		return 0, 0
	}
	center := bounds.Center()
	radius := bounds.Extent().Len() + 1
	inf := float32(math.Inf(1))

	for i := 0; i < n; i++ {
		dir := mgl32.Vec3{rng.Float32() - 0.5, rng.Float32() - 0.5, rng.Float32() - 0.5}
		if dir.Len() == 0 {
			continue
		}
		origin := center.Add(dir.Normalize().Mul(radius))
		ext := bounds.Extent()
		target := bounds.Min.Add(mgl32.Vec3{rng.Float32() * ext.X(), rng.Float32() * ext.Y(), rng.Float32() * ext.Z()})
		ray := core.NewRay(origin, target.Sub(origin).Normalize())

		hit, ok := mesh.Intersect(ray, inf)
		if ok {
			hits++
		}
		if verify {
			ref, refOK := bvh.IntersectBruteForce(mesh.Vertices(), mesh.Indices(), ray, inf)
			if ok != refOK || (ok && math.Abs(float64(hit.T-ref.T)) > 1e-4) {
				mismatches++
			}
		}
	}
	return hits, mismatches
}
