package calsync

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyByType(t *testing.T) {
	cases := []struct {
		err      error
		expected Category
	}{
		{NewValidationError("name is required"), CategoryValidation},
		{NewDataError("team member 7 not found"), CategoryData},
		{&NetworkError{Message: "dial tcp"}, CategoryNetwork},
		{&SyncError{Op: "update", Err: errors.New("boom")}, CategorySync},
		{&PermissionError{Message: "nope"}, CategoryPermission},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, Classify(c.err), "error: %v", c.err)
	}
}

func TestClassifyWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("failed to store event: %w", &NetworkError{Message: "timeout"})
	assert.Equal(t, CategoryNetwork, Classify(wrapped))
}

func TestClassifyByMessagePattern(t *testing.T) {
	cases := []struct {
		message  string
		expected Category
	}{
		{"connection refused", CategoryNetwork},
		{"request timeout while fetching events", CategoryNetwork},
		{"permission denied for calendar", CategoryPermission},
		{"user is unauthorized", CategoryPermission},
		{"invalid birthday format", CategoryValidation},
		{"field name is required", CategoryValidation},
		{"record not found", CategoryData},
		{"no such table", CategoryData},
		{"sync conflict detected", CategorySync},
		{"something completely different", CategoryUnknown},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, Classify(errors.New(c.message)), "message: %q", c.message)
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&NetworkError{Message: "unreachable"}))
	assert.True(t, IsRetryable(&SyncError{Op: "store", Err: errors.New("conflict")}))
	assert.False(t, IsRetryable(NewValidationError("bad input")))
	assert.False(t, IsRetryable(NewDataError("gone")))
	assert.False(t, IsRetryable(&PermissionError{Message: "forbidden"}))
	assert.False(t, IsRetryable(errors.New("who knows")), "unknown errors fail fast")
}
