package vectorstore

import (
	"math"
	"sort"
)

// bucketIndex is a coarse inverted-list index: vectors are assigned to
// their nearest centroid and a search scans only the closest few buckets.
// Centroids come from one assignment-and-average refinement pass over a
// strided sample, which is enough for a coarse partition.
type bucketIndex struct {
	centroids [][]float32
	buckets   [][]string // record keys per centroid
	probes    int
}

func buildBucketIndex(records []VectorRecord, keyFn func(*VectorRecord) string) *bucketIndex {
	n := len(records)
	k := int(math.Sqrt(float64(n)))
	if k < 1 {
		k = 1
	}
	if k > 256 {
		k = 256
	}

	// Seed centroids with a stride sample
	centroids := make([][]float32, k)
	for i := 0; i < k; i++ {
		src := records[i*n/k].Vector
		c := make([]float32, len(src))
		copy(c, src)
		centroids[i] = c
	}

	assign := func() [][]int {
		members := make([][]int, k)
		for i := range records {
			best, bestDist := 0, math.MaxFloat64
			for c := range centroids {
				d := euclidean(records[i].Vector, centroids[c])
				if d < bestDist {
					best, bestDist = c, d
				}
			}
			members[best] = append(members[best], i)
		}
		return members
	}

	// One refinement pass: recompute centroids from their members
	members := assign()
	for c := range centroids {
		if len(members[c]) == 0 {
			continue
		}
		mean := make([]float64, len(centroids[c]))
		for _, i := range members[c] {
			for d, v := range records[i].Vector {
				mean[d] += float64(v)
			}
		}
		for d := range mean {
			centroids[c][d] = float32(mean[d] / float64(len(members[c])))
		}
	}
	members = assign()

	buckets := make([][]string, k)
	for c := range members {
		for _, i := range members[c] {
			buckets[c] = append(buckets[c], keyFn(&records[i]))
		}
	}

	probes := k / 8
	if probes < 1 {
		probes = 1
	}

	return &bucketIndex{
		centroids: centroids,
		buckets:   buckets,
		probes:    probes,
	}
}

// probe returns the record keys in the buckets nearest the query vector.
func (idx *bucketIndex) probe(vector []float32) []string {
	type ranked struct {
		bucket int
		dist   float64
	}
	order := make([]ranked, len(idx.centroids))
	for c := range idx.centroids {
		order[c] = ranked{bucket: c, dist: euclidean(vector, idx.centroids[c])}
	}
	sort.Slice(order, func(i, j int) bool { return order[i].dist < order[j].dist })

	var keys []string
	for i := 0; i < idx.probes && i < len(order); i++ {
		keys = append(keys, idx.buckets[order[i].bucket]...)
	}
	return keys
}
