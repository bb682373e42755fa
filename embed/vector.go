package embed

import (
	"math"

	"github.com/mus-format/mus-go/raw"
)

const float32Width = 4

// EncodeVector serializes a vector as a fixed-width sequence of 32-bit
// floats. The dimension is implied by the byte length; DecodeVector recovers
// bit-identical values.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*float32Width)
	n := 0
	for _, f := range v {
		n += raw.Float32.Marshal(f, buf[n:])
	}
	return buf
}

// DecodeVector deserializes vector bytes produced by EncodeVector.
// Returns ErrVectorSize if the input is not a whole number of floats.
func DecodeVector(data []byte) ([]float32, error) {
	if len(data)%float32Width != 0 {
		return nil, ErrVectorSize
	}

	v := make([]float32, len(data)/float32Width)
	n := 0
	for i := range v {
		f, n1, err := raw.Float32.Unmarshal(data[n:])
		if err != nil {
			return nil, err
		}
		v[i] = f
		n += n1
	}
	return v, nil
}

// Cosine computes the cosine similarity of two vectors:
// dot(a,b) / (||a|| * ||b||). A zero-magnitude vector yields 0, never NaN.
// Mismatched lengths compare over the shorter prefix.
func Cosine(a, b []float32) float32 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	var dot, magA, magB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, v := range a {
		magA += float64(v) * float64(v)
	}
	for _, v := range b {
		magB += float64(v) * float64(v)
	}

	if magA == 0 || magB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(magA) * math.Sqrt(magB)))
}

// Normalize normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func Normalize(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	// Calculate magnitude
	var magnitude float32
	for _, val := range v {
		magnitude += val * val
	}
	magnitude = float32(math.Sqrt(float64(magnitude)))

	// Can't normalize zero vector
	if magnitude == 0 {
		result := make([]float32, len(v))
		return result
	}

	// Normalize
	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}
