package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGenerateETag(t *testing.T) {
	id := primitive.NewObjectID()
	at := time.Now()

	first := GenerateETag(id, at)
	assert.Equal(t, first, GenerateETag(id, at), "deterministic for same inputs")
	assert.NotEqual(t, first, GenerateETag(id, at.Add(time.Second)), "changes with modification time")
	assert.NotEqual(t, first, GenerateETag(primitive.NewObjectID(), at), "changes with identity")

	assert.Regexp(t, `^"[0-9a-f]{32}"$`, first)
}
