// Package boxfuser implements C6, the BoxFuser: two-pass mutual-best-IoU
// fusion across the DBSCAN, UV, and Yolo detections, producing conservative
// union boxes.
package boxfuser

import (
	"github.com/golang/geo/r3"

	"go.viam.com/dynobstacle/obstacle"
)

// Params bundles C6's tunables (§4.6, §6).
type Params struct {
	IOUThreshold          float64 // default 0.5
	YoloOverwriteDistance float64 // default 3.5 m
}

// Fused is one fusion-pass output: the box plus the DBSCAN cluster it
// carries forward, if any (Yolo-sourced and far-field-overwrite boxes carry
// no cluster).
type Fused struct {
	Box     obstacle.Box3
	Cluster *obstacle.PointCluster
}

// Fuse runs the two passes of §4.6: first UV<->DBSCAN mutual-best fusion
// into conservative unions (carrying the DBSCAN cluster), then a Yolo
// overlay pass that either replaces a matched fused entry, appends an
// unmatched far-field Yolo box, or discards an unmatched near-field one.
func Fuse(uvBoxes, dbscanBoxes []obstacle.Box3, dbscanClusters []obstacle.PointCluster, yoloBoxes []obstacle.Box3, egoPos r3.Vector, p Params) []Fused {
	filtered := fuseUVAndDBSCAN(uvBoxes, dbscanBoxes, dbscanClusters, p.IOUThreshold)
	return overlayYolo(filtered, yoloBoxes, egoPos, p)
}

func fuseUVAndDBSCAN(uvBoxes, dbscanBoxes []obstacle.Box3, dbscanClusters []obstacle.PointCluster, thresh float64) []Fused {
	if len(uvBoxes) == 0 || len(dbscanBoxes) == 0 {
		return nil
	}

	bestDBSCANForUV := make([]int, len(uvBoxes))
	for i, u := range uvBoxes {
		bestDBSCANForUV[i] = argmaxIoU(u, dbscanBoxes)
	}
	bestUVForDBSCAN := make([]int, len(dbscanBoxes))
	for j, d := range dbscanBoxes {
		bestUVForDBSCAN[j] = argmaxIoU(d, uvBoxes)
	}

	var out []Fused
	usedUV := make(map[int]bool)
	usedDBSCAN := make(map[int]bool)

	for i := range uvBoxes {
		j := bestDBSCANForUV[i]
		if j < 0 || usedUV[i] || usedDBSCAN[j] {
			continue
		}
		if bestUVForDBSCAN[j] != i {
			continue
		}
		iou := IoU(uvBoxes[i], dbscanBoxes[j])
		if iou <= thresh {
			continue
		}

		union := conservativeUnion(uvBoxes[i], dbscanBoxes[j], dbscanBoxes[j].ID)
		union.IsDynamic = false
		union.Vx, union.Vy = 0, 0

		cluster := dbscanClusters[j]
		out = append(out, Fused{Box: union, Cluster: &cluster})

		usedUV[i] = true
		usedDBSCAN[j] = true
	}

	return out
}

func overlayYolo(filtered []Fused, yoloBoxes []obstacle.Box3, egoPos r3.Vector, p Params) []Fused {
	out := append([]Fused{}, filtered...)

	for _, y := range yoloBoxes {
		boxes := make([]obstacle.Box3, len(out))
		for i, f := range out {
			boxes[i] = f.Box
		}

		bestFiltered := argmaxIoU(y, boxes)
		matched := false
		if bestFiltered >= 0 {
			iou := IoU(y, boxes[bestFiltered])
			if iou > p.IOUThreshold {
				// Check mutual-best: y must also be the filtered entry's
				// best match among all of this pass's yolo boxes.
				if argmaxIoU(boxes[bestFiltered], yoloBoxes) == indexOf(yoloBoxes, y) {
					matched = true
				}
			}
		}

		if matched {
			union := conservativeUnion(y, out[bestFiltered].Box, out[bestFiltered].Box.ID)
			union.IsDynamic = true
			out[bestFiltered] = Fused{Box: union, Cluster: nil}
			continue
		}

		if egoDistance(y, egoPos) > p.YoloOverwriteDistance {
			y.IsDynamic = true
			out = append(out, Fused{Box: y, Cluster: nil})
		}
		// else: near-field unmatched Yolo box, discarded as a likely false
		// positive.
	}

	return out
}

func egoDistance(b obstacle.Box3, egoPos r3.Vector) float64 {
	return b.DistanceTo(egoPos)
}

func argmaxIoU(box obstacle.Box3, candidates []obstacle.Box3) int {
	best := -1
	bestIoU := -1.0
	for i, c := range candidates {
		v := IoU(box, c)
		if v > bestIoU {
			bestIoU = v
			best = i
		}
	}
	return best
}

func indexOf(boxes []obstacle.Box3, target obstacle.Box3) int {
	for i, b := range boxes {
		if b == target {
			return i
		}
	}
	return -1
}
