package model

// EmbeddingDimension is the vector dimension used across every index backend.
// All stored vectors and query vectors must use the same dimension.
const EmbeddingDimension = 768
