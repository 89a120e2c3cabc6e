package data

import "math"

// Vector is a point in genre-feature space. The clustering code treats
// missing keys as absent dimensions, not zeros.
type Vector map[string]float64

func (this Vector) Distance(other Vector) float64 {
	var terms float64
	for k, v := range this {
		v2, has := other[k]
		if !has {
			continue
		}
		terms += math.Pow(v-v2, 2)
	}
	return math.Sqrt(terms)
}

func (this Vector) Divide(scalar float64) Vector {
	result := make(Vector, len(this))
	for k, v := range this {
		result[k] = v / scalar
	}
	return result
}

func (this Vector) Add(delta Vector) Vector {
	result := make(Vector, len(this))
	for k, v := range this {
		result[k] = v + delta[k]
	}
	return result
}

// Mean returns the centroid of the given vectors. All vectors are expected
// to share a key set; keys present in only some inputs are averaged over the
// full count anyway.
func Mean(vectors []Vector) Vector {
	if len(vectors) == 0 {
		return Vector{}
	}
	sum := Vector{}
	for _, v := range vectors {
		for k, val := range v {
			sum[k] += val
		}
	}
	return sum.Divide(float64(len(vectors)))
}
