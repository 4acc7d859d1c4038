package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/nordveil/shopsearch/internal/db"
)

// knnScoreField is where FT.SEARCH reports the vector distance for the
// embedding field (__<field>_score).
const knnScoreField = "__embedding_score"

// SearchKNN runs a KNN vector similarity search via FT.SEARCH.
// The reported score is cosine similarity (1 - distance), floored at zero.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	knnPart := fmt.Sprintf("[KNN %d @embedding $BLOB", q.K)
	if q.CandidatePool > q.K {
		knnPart += fmt.Sprintf(" EF_RUNTIME %d", q.CandidatePool)
	}
	knnPart += "]"
	queryStr := "*=>" + knnPart

	args := []string{q.IndexName, queryStr}

	if len(q.ReturnFields) > 0 {
		ret := append([]string{knnScoreField}, q.ReturnFields...)
		args = append(args, "RETURN", strconv.Itoa(len(ret)))
		args = append(args, ret...)
	}

	args = append(args,
		"SORTBY", knnScoreField,
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", "2", "BLOB", vectorToBytes(q.Vector),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, wrapSearchErr(err)
	}

	return parseKNNResult(raw)
}

// SearchText runs a scored full-text query via FT.SEARCH WITHSCORES.
func (s *Store) SearchText(ctx context.Context, q *db.Query) (*db.SearchResult, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	args := []string{q.IndexName, q.Raw}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}

	args = append(args,
		"WITHSCORES",
		"LIMIT", "0", strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, wrapSearchErr(err)
	}

	return parseScoredResult(raw)
}

// SearchMatch runs an unscored query. Entries come back in store iteration
// order and carry no score.
func (s *Store) SearchMatch(ctx context.Context, q *db.Query) (*db.SearchResult, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	args := []string{q.IndexName, q.Raw}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}

	args = append(args, "LIMIT", "0", strconv.Itoa(q.Limit), "DIALECT", "2")

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, wrapSearchErr(err)
	}

	return parseUnscoredResult(raw)
}

// wrapSearchErr maps RediSearch "no such index" replies to the sentinel so
// callers can tell a missing index apart from a transport failure.
func wrapSearchErr(err error) error {
	if isRedisErr(err, "no such index") {
		return db.ErrIndexNotFound
	}
	return &db.Error{Op: db.OpSearch, Err: err}
}

func validateQuery(q *db.Query) error {
	if q.IndexName == "" {
		return fmt.Errorf("index name is required")
	}
	if q.Raw == "" {
		return fmt.Errorf("query is required")
	}
	if q.Limit <= 0 {
		return fmt.Errorf("limit must be positive")
	}
	return nil
}

// --- Result parsing ---

func parseKNNResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	total, entries, err := parseFieldEntries(raw)
	if err != nil || entries == nil {
		return &db.SearchResult{Total: total}, err
	}

	for i := range entries {
		if scoreStr, ok := entries[i].Fields[knnScoreField]; ok {
			if d, err := strconv.ParseFloat(scoreStr, 64); err == nil {
				// cosine distance -> similarity
				entries[i].Score = max(0, 1.0-d)
				entries[i].Scored = true
			}
			delete(entries[i].Fields, knnScoreField)
		}
	}

	return &db.SearchResult{Total: total, Entries: entries}, nil
}

func parseScoredResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, total)
	// 3-stride: [total, key1, score1, fields1, key2, score2, fields2, ...]
	for i := 1; i+2 < len(raw); i += 3 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		scoreStr, err := raw[i+1].ToString()
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			continue
		}

		fields, err := raw[i+2].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Score:  score,
			Scored: true,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseUnscoredResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	total, entries, err := parseFieldEntries(raw)
	if err != nil || entries == nil {
		return &db.SearchResult{Total: total}, err
	}
	return &db.SearchResult{Total: total, Entries: entries}, nil
}

// parseFieldEntries handles the 2-stride reply shape:
// [total, key1, fields1, key2, fields2, ...]
func parseFieldEntries(raw []rueidis.RedisMessage) (int, []db.SearchEntry, error) {
	if len(raw) == 0 {
		return 0, nil, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return 0, nil, nil
	}

	entries := make([]db.SearchEntry, 0, total)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		})
	}

	return int(total), entries, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
