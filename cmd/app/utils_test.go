package main

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTokenFromHeader(t *testing.T) {
	app := newBareApplication(t)

	testCases := []struct {
		name     string
		header   string
		expected string
	}{
		{name: "valid bearer token", header: "Bearer abc123", expected: "abc123"},
		{name: "missing scheme", header: "abc123", expected: ""},
		{name: "wrong scheme", header: "Basic abc123", expected: ""},
		{name: "empty header", header: "", expected: ""},
		{name: "too many parts", header: "Bearer abc 123", expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, app.extractTokenFromHeader(tc.header))
		})
	}
}

func TestReadIDListParam(t *testing.T) {
	app := newBareApplication(t)

	testCases := []struct {
		name        string
		query       string
		expected    []int
		expectedErr bool
	}{
		{name: "single id", query: "blog_ids=1", expected: []int{1}},
		{name: "multiple ids", query: "blog_ids=1,2,3", expected: []int{1, 2, 3}},
		{name: "spaces tolerated", query: "blog_ids=1,%202", expected: []int{1, 2}},
		{name: "missing", query: "", expectedErr: true},
		{name: "not a number", query: "blog_ids=1,abc", expectedErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/v1/bulk/comments?"+tc.query, nil)
			ids, err := app.readIDListParam(r, "blog_ids")
			if tc.expectedErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, ids)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	app := newBareApplication(t)

	res := httptest.NewRecorder()
	err := app.writeJSON(res, 201, envelope{"message": "created"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, 201, res.Code)
	assert.Equal(t, "application/json", res.Header().Get("Content-Type"))
	assert.Contains(t, res.Body.String(), `"message": "created"`)
}
