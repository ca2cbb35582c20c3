package geo

import (
	"math/rand"
	"time"
)

// DefaultMaxIterations bounds the assignment/update loop when the caller
// does not override it.
const DefaultMaxIterations = 100

// KMeansPartitioner groups points into at most K clusters using K-Means
// with K-Means++ seeding. The randomness source is injectable so callers
// can pin a seed for reproducible partitions.
type KMeansPartitioner struct {
	K             int
	MaxIterations int

	rng *rand.Rand
}

// NewKMeansPartitioner creates a partitioner seeded from the system clock.
func NewKMeansPartitioner(k int) *KMeansPartitioner {
	return NewKMeansPartitionerWithSource(k, rand.NewSource(time.Now().UnixNano()))
}

// NewKMeansPartitionerWithSource creates a partitioner with an explicit
// randomness source, for deterministic results.
func NewKMeansPartitionerWithSource(k int, src rand.Source) *KMeansPartitioner {
	if k < 1 {
		k = 1
	}
	return &KMeansPartitioner{
		K:             k,
		MaxIterations: DefaultMaxIterations,
		rng:           rand.New(src),
	}
}

// Partition clusters the points into at most K groups. An empty input
// yields an empty result; K >= len(points) yields one singleton cluster
// per point. Centroids that end an iteration without members keep their
// previous position, and are dropped from the output if still empty when
// the loop converges, so the result may hold fewer than K clusters.
func (p *KMeansPartitioner) Partition(points []GeoPoint) []Cluster {
	if len(points) == 0 {
		return nil
	}
	if p.K >= len(points) {
		return singletonClusters(points)
	}

	centroids := p.seedCentroids(points)

	maxIterations := p.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	assignments := make([]int, len(points))
	for i := range assignments {
		assignments[i] = -1
	}

	for iter := 0; iter < maxIterations; iter++ {
		next := assignToNearest(points, centroids)
		if equalAssignments(next, assignments) {
			break
		}
		assignments = next
		centroids = updateCentroids(points, assignments, centroids)
	}

	return buildClusters(points, assignments, len(centroids))
}

// seedCentroids picks K initial centroids with K-Means++: the first
// uniformly at random, each subsequent one sampled with probability
// proportional to its squared distance from the nearest chosen centroid.
func (p *KMeansPartitioner) seedCentroids(points []GeoPoint) []Coordinate {
	centroids := make([]Coordinate, 0, p.K)
	centroids = append(centroids, points[p.rng.Intn(len(points))].Coordinate())

	weights := make([]float64, len(points))
	for len(centroids) < p.K {
		var total float64
		for i, pt := range points {
			d := nearestCentroidDistance(pt, centroids)
			weights[i] = d * d
			total += weights[i]
		}

		// All remaining points coincide with a centroid; fall back to a
		// uniform draw so seeding still terminates.
		if total == 0 {
			centroids = append(centroids, points[p.rng.Intn(len(points))].Coordinate())
			continue
		}

		target := p.rng.Float64() * total
		chosen := len(points) - 1
		var acc float64
		for i, w := range weights {
			acc += w
			if target < acc {
				chosen = i
				break
			}
		}
		centroids = append(centroids, points[chosen].Coordinate())
	}
	return centroids
}

// assignToNearest maps each point to its nearest centroid. Ties go to the
// lowest centroid index so a fixed centroid order yields a fixed result.
func assignToNearest(points []GeoPoint, centroids []Coordinate) []int {
	assignments := make([]int, len(points))
	for i, pt := range points {
		best := 0
		bestDist := haversine(pt.Lat, pt.Lng, centroids[0].Lat, centroids[0].Lng)
		for c := 1; c < len(centroids); c++ {
			d := haversine(pt.Lat, pt.Lng, centroids[c].Lat, centroids[c].Lng)
			if d < bestDist {
				best = c
				bestDist = d
			}
		}
		assignments[i] = best
	}
	return assignments
}

// updateCentroids recomputes each centroid as the mean of its members. A
// centroid without members keeps its previous position.
func updateCentroids(points []GeoPoint, assignments []int, previous []Coordinate) []Coordinate {
	members := make([][]GeoPoint, len(previous))
	for i, a := range assignments {
		members[a] = append(members[a], points[i])
	}

	centroids := make([]Coordinate, len(previous))
	for c := range previous {
		if len(members[c]) == 0 {
			centroids[c] = previous[c]
			continue
		}
		centroids[c] = centroidOf(members[c])
	}
	return centroids
}

// buildClusters materializes non-empty clusters from the final assignment,
// renumbering cluster IDs sequentially. Centroids are recomputed from the
// final membership.
func buildClusters(points []GeoPoint, assignments []int, numCentroids int) []Cluster {
	members := make([][]GeoPoint, numCentroids)
	for i, a := range assignments {
		members[a] = append(members[a], points[i])
	}

	clusters := make([]Cluster, 0, numCentroids)
	for c := 0; c < numCentroids; c++ {
		if len(members[c]) == 0 {
			continue
		}
		clusters = append(clusters, Cluster{
			ClusterID: len(clusters),
			Centroid:  centroidOf(members[c]),
			Points:    members[c],
		})
	}
	return clusters
}

func singletonClusters(points []GeoPoint) []Cluster {
	clusters := make([]Cluster, len(points))
	for i, pt := range points {
		clusters[i] = Cluster{
			ClusterID: i,
			Centroid:  pt.Coordinate(),
			Points:    []GeoPoint{pt},
		}
	}
	return clusters
}

func nearestCentroidDistance(pt GeoPoint, centroids []Coordinate) float64 {
	best := haversine(pt.Lat, pt.Lng, centroids[0].Lat, centroids[0].Lng)
	for _, c := range centroids[1:] {
		if d := haversine(pt.Lat, pt.Lng, c.Lat, c.Lng); d < best {
			best = d
		}
	}
	return best
}

func equalAssignments(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
