package analytics

import (
	"math"
	"math/rand"
	"sort"

	"marketscope/data"
)

const maxIterations = 100

// Clusters groups genres by k-means over standardized (count, popularity,
// spread) features. The centroid seeding uses the configured seed, so a
// fixed input table always clusters the same way. Assignment ties go to the
// lowest-index centroid, which with a fixed scan order means the closest
// centroid seen first.
func (e *Engine) Clusters(records []data.GenreRecord) []data.Cluster {
	if len(records) == 0 {
		return nil
	}

	k := e.cfg.Clusters
	if k < 1 {
		k = 1
	}
	if k > len(records) {
		k = len(records)
	}

	vectors := standardize(records)

	rng := rand.New(rand.NewSource(e.cfg.Seed))
	centroids := make([]data.Vector, k)
	for i, idx := range rng.Perm(len(vectors))[:k] {
		centroids[i] = vectors[idx]
	}

	assignments := make([]int, len(vectors))
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, vector := range vectors {
			best, bestDistance := 0, math.Inf(1)
			for c, centroid := range centroids {
				if d := vector.Distance(centroid); d < bestDistance {
					best, bestDistance = c, d
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		for c := range centroids {
			var members []data.Vector
			for i, assigned := range assignments {
				if assigned == c {
					members = append(members, vectors[i])
				}
			}
			// an empty cluster keeps its old centroid
			if len(members) > 0 {
				centroids[c] = data.Mean(members)
			}
		}
	}

	grouped := make([][]data.GenreRecord, k)
	for i, assigned := range assignments {
		grouped[assigned] = append(grouped[assigned], records[i])
	}

	var clusters []data.Cluster
	for _, members := range grouped {
		if len(members) == 0 {
			continue
		}
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].MeanPopularity > members[j].MeanPopularity
		})
		clusters = append(clusters, data.Cluster{Genres: members})
	}

	// most popular cluster first, then renumber
	sort.SliceStable(clusters, func(i, j int) bool {
		return meanPopularity(clusters[i].Genres) > meanPopularity(clusters[j].Genres)
	})
	for i := range clusters {
		clusters[i].ID = i
	}
	return clusters
}

// standardize maps each record to a z-scored feature vector. A feature with
// zero variance contributes nothing to distances.
func standardize(records []data.GenreRecord) []data.Vector {
	n := float64(len(records))

	var meanCount, meanPop, meanSpread float64
	for _, r := range records {
		meanCount += float64(r.TrackCount)
		meanPop += r.MeanPopularity
		meanSpread += float64(r.PlaylistCount)
	}
	meanCount, meanPop, meanSpread = meanCount/n, meanPop/n, meanSpread/n

	var varCount, varPop, varSpread float64
	for _, r := range records {
		varCount += math.Pow(float64(r.TrackCount)-meanCount, 2)
		varPop += math.Pow(r.MeanPopularity-meanPop, 2)
		varSpread += math.Pow(float64(r.PlaylistCount)-meanSpread, 2)
	}
	stdCount := math.Sqrt(varCount / n)
	stdPop := math.Sqrt(varPop / n)
	stdSpread := math.Sqrt(varSpread / n)

	vectors := make([]data.Vector, len(records))
	for i, r := range records {
		vectors[i] = data.Vector{
			"count":      zscore(float64(r.TrackCount), meanCount, stdCount),
			"popularity": zscore(r.MeanPopularity, meanPop, stdPop),
			"spread":     zscore(float64(r.PlaylistCount), meanSpread, stdSpread),
		}
	}
	return vectors
}

func zscore(v, mean, std float64) float64 {
	if std == 0 {
		return 0
	}
	return (v - mean) / std
}

func meanPopularity(records []data.GenreRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, r := range records {
		sum += r.MeanPopularity
	}
	return sum / float64(len(records))
}
