package helper_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trellisfw/trellis-monitor/internal/helper"
)

func TestResolveEnv(t *testing.T) {
	os.Setenv("HELPER_TEST_TOKEN", "s3cret")
	defer os.Unsetenv("HELPER_TEST_TOKEN")

	assert.Equal(t, "s3cret", helper.ResolveEnv("ENV:HELPER_TEST_TOKEN"))
	assert.Equal(t, "", helper.ResolveEnv("ENV:HELPER_TEST_UNSET"))
	assert.Equal(t, "plain", helper.ResolveEnv("plain"))
}

func TestGetenv(t *testing.T) {
	os.Setenv("HELPER_TEST_PORT", "9090")
	defer os.Unsetenv("HELPER_TEST_PORT")

	assert.Equal(t, "9090", helper.Getenv("HELPER_TEST_PORT", "8080"))
	assert.Equal(t, "8080", helper.Getenv("HELPER_TEST_UNSET", "8080"))
}

func TestSetDefaultStringIfEmpty(t *testing.T) {
	assert.Equal(t, "25", helper.SetDefaultStringIfEmpty("", "25", "port", "smtp"))
	assert.Equal(t, "2525", helper.SetDefaultStringIfEmpty("2525", "25"))
}
