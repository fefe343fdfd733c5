package config

import (
	"fmt"

	"github.com/google/uuid"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AttemptAnswersKey returns the cache key holding the in-flight answer map
// of an attempt (question id -> chosen option).
func (r *CacheKeyStruct) AttemptAnswersKey(attemptID uuid.UUID) string {
	return fmt.Sprintf("attempt:%s:answers", attemptID)
}

// ExamPaperKey returns the cache key for an exam's taker-facing paper
// (questions without correct options).
func (r *CacheKeyStruct) ExamPaperKey(examID uuid.UUID) string {
	return fmt.Sprintf("exam:%s:paper", examID)
}

var CacheKey = NewCacheKeyStruct()
