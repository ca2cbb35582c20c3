package geo

// DefaultMinPoints is the neighborhood size threshold for core points when
// the caller does not override it.
const DefaultMinPoints = 3

// Labels used in the per-point state vector during a DBSCAN run.
// Non-negative values are cluster IDs.
const (
	labelUnclassified = -2
	labelNoise        = -1
)

// DBSCANPartitioner groups points by density: points with at least
// MinPoints neighbors within EpsilonKm form cluster cores that expand
// outward through density-connected neighbors.
//
// Unlike textbook DBSCAN, no point is discarded as noise. Leftover noise
// points are absorbed into the nearest cluster by centroid distance, and
// if the whole input is too sparse to form any cluster, each point becomes
// its own singleton cluster.
type DBSCANPartitioner struct {
	EpsilonKm float64
	MinPoints int
}

// NewDBSCANPartitioner creates a partitioner with the given neighborhood
// radius in kilometers. A non-positive minPoints falls back to the default.
func NewDBSCANPartitioner(epsilonKm float64, minPoints int) *DBSCANPartitioner {
	if minPoints <= 0 {
		minPoints = DefaultMinPoints
	}
	return &DBSCANPartitioner{EpsilonKm: epsilonKm, MinPoints: minPoints}
}

// Partition clusters the points by density. Every input point appears in
// exactly one output cluster.
func (p *DBSCANPartitioner) Partition(points []GeoPoint) []Cluster {
	if len(points) == 0 {
		return nil
	}

	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = labelUnclassified
	}
	visited := make([]bool, len(points))

	clusterCount := 0
	for i := range points {
		if visited[i] {
			continue
		}
		visited[i] = true

		neighbors := p.regionQuery(points, i)
		if len(neighbors) < p.MinPoints {
			// Provisional: a later expansion may absorb this point as a
			// border point.
			labels[i] = labelNoise
			continue
		}

		clusterID := clusterCount
		clusterCount++
		labels[i] = clusterID
		p.expandCluster(points, neighbors, labels, visited, clusterID)
	}

	return p.collectClusters(points, labels, clusterCount)
}

// expandCluster grows a cluster from the seed neighbor set. The seed set is
// an index arena consumed by a cursor; inQueue prevents duplicate insertion
// without scanning the queue.
func (p *DBSCANPartitioner) expandCluster(points []GeoPoint, seeds []int, labels []int, visited []bool, clusterID int) {
	queue := append([]int(nil), seeds...)
	inQueue := make([]bool, len(points))
	for _, s := range seeds {
		inQueue[s] = true
	}

	for cursor := 0; cursor < len(queue); cursor++ {
		j := queue[cursor]

		if labels[j] == labelNoise {
			// Border point: density-reachable but not itself a core.
			labels[j] = clusterID
		}
		if visited[j] {
			continue
		}
		visited[j] = true
		labels[j] = clusterID

		neighbors := p.regionQuery(points, j)
		if len(neighbors) < p.MinPoints {
			continue
		}
		for _, k := range neighbors {
			if !visited[k] && !inQueue[k] {
				queue = append(queue, k)
				inQueue[k] = true
			}
		}
	}
}

// regionQuery returns the indices of all other points within EpsilonKm of
// points[i].
func (p *DBSCANPartitioner) regionQuery(points []GeoPoint, i int) []int {
	var neighbors []int
	for j := range points {
		if j == i {
			continue
		}
		if Distance(points[i], points[j]) <= p.EpsilonKm {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}

// collectClusters materializes clusters in input order and reconciles
// leftover noise so the completeness invariant holds.
func (p *DBSCANPartitioner) collectClusters(points []GeoPoint, labels []int, clusterCount int) []Cluster {
	if clusterCount == 0 {
		// Nothing dense enough anywhere: every point stands alone.
		return singletonClusters(points)
	}

	members := make([][]GeoPoint, clusterCount)
	var noise []GeoPoint
	for i, pt := range points {
		if labels[i] == labelNoise {
			noise = append(noise, pt)
			continue
		}
		members[labels[i]] = append(members[labels[i]], pt)
	}

	// Absorb noise into the nearest cluster by centroid distance, first
	// encountered winning ties. Centroids are taken before absorption so
	// earlier noise points do not drag the centroid toward later ones.
	centroids := make([]Coordinate, clusterCount)
	for c := range members {
		centroids[c] = centroidOf(members[c])
	}
	for _, pt := range noise {
		best := 0
		bestDist := haversine(pt.Lat, pt.Lng, centroids[0].Lat, centroids[0].Lng)
		for c := 1; c < clusterCount; c++ {
			if d := haversine(pt.Lat, pt.Lng, centroids[c].Lat, centroids[c].Lng); d < bestDist {
				best = c
				bestDist = d
			}
		}
		members[best] = append(members[best], pt)
	}

	clusters := make([]Cluster, clusterCount)
	for c := range members {
		clusters[c] = Cluster{
			ClusterID: c,
			Centroid:  centroidOf(members[c]),
			Points:    members[c],
		}
	}
	return clusters
}
