// Package dbscan implements C3, the DBSCANClusterer: classical
// density-based clustering over the voxel-filtered point cloud, producing
// per-cluster stats and axis-aligned boxes.
package dbscan

import (
	"go.viam.com/dynobstacle/obstacle"
)

// Params bundles DBSCAN's tunables (§4.3, §6).
type Params struct {
	MinPts  int     // minimum neighbors (inclusive of self) to be a core point, default 18
	Epsilon float64 // neighborhood radius, meters, default 0.3
}

const noise = 0

// Cluster runs classical DBSCAN over pts, returning one obstacle.PointCluster
// per cluster found (cluster ids are not surfaced; order is cluster
// discovery order) and the parallel axis-aligned box per cluster, with
// box.ID set to the 1-based cluster index. Noise points (label 0) are
// dropped.
func Cluster(pts []obstacle.Point3, p Params) ([]obstacle.PointCluster, []obstacle.Box3) {
	n := len(pts)
	labels := make([]int, n)
	visited := make([]bool, n)

	eps2 := p.Epsilon * p.Epsilon
	neighbors := func(i int) []int {
		var out []int
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			d := pts[i].Pos.Sub(pts[j].Pos)
			if d.X*d.X+d.Y*d.Y+d.Z*d.Z <= eps2 {
				out = append(out, j)
			}
		}
		return out
	}

	clusterID := 0
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true

		neigh := neighbors(i)
		if len(neigh)+1 < p.MinPts {
			labels[i] = noise
			continue
		}

		clusterID++
		labels[i] = clusterID

		queue := append([]int{}, neigh...)
		for qi := 0; qi < len(queue); qi++ {
			j := queue[qi]
			if !visited[j] {
				visited[j] = true
				jNeigh := neighbors(j)
				if len(jNeigh)+1 >= p.MinPts {
					queue = append(queue, jNeigh...)
				}
			}
			if labels[j] == noise || labels[j] == 0 {
				labels[j] = clusterID
			}
		}
	}

	clusters := make([][]obstacle.Point3, clusterID)
	for i, l := range labels {
		if l == noise {
			continue
		}
		clusters[l-1] = append(clusters[l-1], pts[i])
	}

	pointClusters := make([]obstacle.PointCluster, 0, clusterID)
	boxes := make([]obstacle.Box3, 0, clusterID)
	for idx, c := range clusters {
		if len(c) == 0 {
			continue
		}
		pc := obstacle.NewPointCluster(c)
		pointClusters = append(pointClusters, pc)
		boxes = append(boxes, pc.BoundingBox(idx+1))
	}

	return pointClusters, boxes
}
