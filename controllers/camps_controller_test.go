package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildCampFilterEmpty(t *testing.T) {
	assert.Equal(t, bson.M{}, buildCampFilter(nil, nil, 0, 0, 0))
}

func TestBuildCampFilterDateRange(t *testing.T) {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)

	f := buildCampFilter(&start, &end, 0, 0, 0)
	dateRange := f["date"].(bson.M)
	assert.Equal(t, start, dateRange["$gte"])
	assert.Equal(t, end, dateRange["$lte"])

	f = buildCampFilter(&start, nil, 0, 0, 0)
	dateRange = f["date"].(bson.M)
	assert.Equal(t, start, dateRange["$gte"])
	_, hasLTE := dateRange["$lte"]
	assert.False(t, hasLTE)
}

func TestBuildCampFilterProximity(t *testing.T) {
	f := buildCampFilter(nil, nil, 17.385, 78.4867, 10)

	sphere := f["location"].(bson.M)["$geoWithin"].(bson.M)["$centerSphere"].(bson.A)
	require.Len(t, sphere, 2)

	center := sphere[0].(bson.A)
	assert.Equal(t, 78.4867, center[0], "longitude first per GeoJSON")
	assert.Equal(t, 17.385, center[1])

	radians := sphere[1].(float64)
	assert.InDelta(t, 10/6378.1, radians, 1e-9)
}
