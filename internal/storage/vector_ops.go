package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// searchVector performs vector similarity search using cosine similarity.
// An empty projectID searches embeddings across all projects.
func searchVector(ctx context.Context, db *sql.DB, projectID string, queryVector []float32, limit int) ([]VectorResult, error) {
	// Handle edge case: negative or zero limit
	if limit <= 0 {
		return []VectorResult{}, nil
	}
	// Use optimized SQL-based search when sqlite-vec is available
	if VectorExtensionAvailable {
		return searchVectorOptimized(ctx, db, projectID, queryVector, limit)
	}
	// Fall back to Go-based computation for purego builds
	return searchVectorFallback(ctx, db, projectID, queryVector, limit)
}

// searchVectorOptimized uses sqlite-vec extension for SQL-based vector similarity search
func searchVectorOptimized(ctx context.Context, db *sql.DB, projectID string, queryVector []float32, limit int) ([]VectorResult, error) {
	// Serialize query vector for sqlite-vec
	queryVectorBlob := serializeVector(queryVector)

	// sqlite-vec's vec_distance_cosine returns distance (lower is better);
	// convert to similarity (1 - distance) to match the fallback scoring
	query := `
		SELECT
			s.id as symbol_id,
			1.0 - vec_distance_cosine(e.vector, ?) as similarity
		FROM symbols s
		INNER JOIN symbol_embeddings e ON s.id = e.symbol_id
	`
	args := []interface{}{queryVectorBlob}
	if projectID != "" {
		query += " WHERE s.project_id = ?"
		args = append(args, projectID)
	}
	query += " ORDER BY similarity DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]VectorResult, 0, limit)
	for rows.Next() {
		var result VectorResult
		if err := rows.Scan(&result.SymbolID, &result.SimilarityScore); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// searchVectorFallback performs vector search using Go-based cosine similarity computation.
// This is used when sqlite-vec extension is not available (purego builds).
func searchVectorFallback(ctx context.Context, db *sql.DB, projectID string, queryVector []float32, limit int) ([]VectorResult, error) {
	query := `
		SELECT
			s.id as symbol_id,
			e.vector
		FROM symbols s
		INNER JOIN symbol_embeddings e ON s.id = e.symbol_id
	`
	args := []interface{}{}
	if projectID != "" {
		query += " WHERE s.project_id = ?"
		args = append(args, projectID)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	// Compute similarity scores and rank in Go
	candidates, err := computeSimilarityScores(rows, queryVector)
	if err != nil {
		return nil, err
	}

	// Sort by similarity (descending)
	sortCandidates(candidates)

	// Return top K
	return buildVectorResults(candidates, limit), nil
}

// computeSimilarityScores processes rows and computes cosine similarity
func computeSimilarityScores(rows *sql.Rows, queryVector []float32) ([]candidate, error) {
	candidates := make([]candidate, 0, 1000)

	for rows.Next() {
		var symbolID int64
		var vectorBlob []byte
		if err := rows.Scan(&symbolID, &vectorBlob); err != nil {
			return nil, err
		}

		// Deserialize vector
		vector := deserializeVector(vectorBlob)
		if len(vector) != len(queryVector) {
			continue // Dimension mismatch, skip
		}

		similarity := cosineSimilarity(queryVector, vector)
		candidates = append(candidates, candidate{symbolID: symbolID, score: similarity})
	}

	return candidates, rows.Err()
}

// buildVectorResults creates VectorResult slice from candidates
func buildVectorResults(candidates []candidate, limit int) []VectorResult {
	// Handle negative or zero limit - return all candidates
	if limit <= 0 {
		limit = len(candidates)
	}
	if limit > len(candidates) {
		limit = len(candidates)
	}

	results := make([]VectorResult, limit)
	for i := 0; i < limit; i++ {
		results[i] = VectorResult{
			SymbolID:        candidates[i].symbolID,
			SimilarityScore: candidates[i].score,
		}
	}
	return results
}

// serializeVector converts a float32 slice to a byte blob (little-endian)
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}

// cosineSimilarity computes the cosine similarity between two vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// candidate represents a symbol with its similarity score
type candidate struct {
	symbolID int64
	score    float64
}

// sortCandidates sorts candidates by score in descending order
func sortCandidates(candidates []candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
}

// SerializeVector encodes a float32 vector into the little-endian BLOB
// layout of the symbol_embeddings table. The indexer uses it when
// persisting embeddings.
func SerializeVector(vector []float32) []byte {
	return serializeVector(vector)
}

// DeserializeVector decodes a BLOB written by SerializeVector
func DeserializeVector(blob []byte) []float32 {
	return deserializeVector(blob)
}

// CosineSimilarity exposes the similarity measure SearchVector ranks by
func CosineSimilarity(a, b []float32) float64 {
	return cosineSimilarity(a, b)
}
