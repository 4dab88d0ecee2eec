package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("SEO_TEST_STRING", "value")
	t.Setenv("SEO_TEST_INT", "12")
	t.Setenv("SEO_TEST_BAD_INT", "twelve")
	t.Setenv("SEO_TEST_FLOAT", "2.5")
	t.Setenv("SEO_TEST_BOOL", "TRUE")
	t.Setenv("SEO_TEST_SECONDS", "15")
	t.Setenv("SEO_TEST_DURATION", "1m30s")
	t.Setenv("SEO_TEST_BAD_DURATION", "soon")

	assert.Equal(t, "value", GetEnvWithDefault("SEO_TEST_STRING", "default"))
	assert.Equal(t, "default", GetEnvWithDefault("SEO_TEST_UNSET", "default"))

	assert.Equal(t, 12, GetEnvInt("SEO_TEST_INT", 3))
	assert.Equal(t, 3, GetEnvInt("SEO_TEST_BAD_INT", 3))
	assert.Equal(t, 3, GetEnvInt("SEO_TEST_UNSET", 3))

	assert.Equal(t, 2.5, GetEnvFloat("SEO_TEST_FLOAT", 0))
	assert.Equal(t, 1.5, GetEnvFloat("SEO_TEST_UNSET", 1.5))

	assert.True(t, GetEnvBool("SEO_TEST_BOOL", false))
	assert.True(t, GetEnvBool("SEO_TEST_UNSET", true))
	assert.False(t, GetEnvBool("SEO_TEST_STRING", true))

	assert.Equal(t, 15*time.Second, GetEnvDuration("SEO_TEST_SECONDS", time.Second))
	assert.Equal(t, 90*time.Second, GetEnvDuration("SEO_TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, GetEnvDuration("SEO_TEST_BAD_DURATION", time.Second))
}
