// Package voxelfilter implements C2, the VoxelFilter: density-preserving
// downsampling by per-voxel occupancy-count threshold, in the voxel-address
// vocabulary of the teacher's pointcloud.NewVoxelGridFromPointCloud.
package voxelfilter

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/dynobstacle/obstacle"
)

// Params bundles C2's tunables (§4.2, §6).
type Params struct {
	Extent       r3.Vector // local axial filter range L = (Lx, Ly, Lz), centered on Center
	Center       r3.Vector // the axial filter is centered here (typically the ego position)
	Resolution   float64   // voxel size, default 0.1 m
	GroundHeight float64   // points below this z are dropped
	RaycastMax   float64   // points with depth beyond this are dropped
	Occupied     int       // T: occupancy count that triggers emission
}

// voxelAddress is the integer voxel index a point falls into at a given
// resolution.
type voxelAddress struct {
	x, y, z int
}

func addressOf(p r3.Vector, res float64) voxelAddress {
	return voxelAddress{
		x: int(math.Floor(p.X / res)),
		y: int(math.Floor(p.Y / res)),
		z: int(math.Floor(p.Z / res)),
	}
}

// Filter downsamples pts per §4.2: a point is considered only if its depth
// is within raycastMax, its z is >= groundHeight, and it falls within the
// axial extent around Center; it is emitted exactly on the tick its voxel's
// running counter first reaches Occupied.
func Filter(pts []obstacle.Point3, p Params) []obstacle.Point3 {
	counts := make(map[voxelAddress]int)
	out := make([]obstacle.Point3, 0, len(pts)/max(p.Occupied, 1))

	for _, pt := range pts {
		if p.RaycastMax > 0 && pt.Depth > p.RaycastMax {
			continue
		}
		if pt.Pos.Z < p.GroundHeight {
			continue
		}
		if p.Extent.X > 0 && math.Abs(pt.Pos.X-p.Center.X) > p.Extent.X {
			continue
		}
		if p.Extent.Y > 0 && math.Abs(pt.Pos.Y-p.Center.Y) > p.Extent.Y {
			continue
		}
		if p.Extent.Z > 0 && math.Abs(pt.Pos.Z-p.Center.Z) > p.Extent.Z {
			continue
		}

		addr := addressOf(pt.Pos, p.Resolution)
		counts[addr]++
		if counts[addr] == p.Occupied {
			out = append(out, pt)
		}
	}

	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
