package framework

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapturingLoggerWithPrefix(t *testing.T) {
	var captured CapturingLogger
	logger := LoggerWithPrefix(&captured, "[netmock] ")
	logger.Printf("intercepted %s %s", "GET", "/api/feedback")

	output := captured.Output()
	require.Len(t, output, 1)
	assert.Equal(t, "[netmock] intercepted GET /api/feedback", output[0].Message)

	var buf bytes.Buffer
	output.Dump(&buf, "    DEBUG ")
	assert.True(t, strings.HasPrefix(buf.String(), "    DEBUG ["))
	assert.True(t, strings.HasSuffix(buf.String(), "] [netmock] intercepted GET /api/feedback\n"))
}

func TestLoggerWithPrefixOfNilIsNull(t *testing.T) {
	assert.NotPanics(t, func() { LoggerWithPrefix(nil, "x").Printf("y") })
}

func TestMultiLogger(t *testing.T) {
	var a, b CapturingLogger
	logger := MultiLogger(&a, nil, &b)
	logger.Printf("step %d", 1)

	require.Len(t, a.Output(), 1)
	require.Len(t, b.Output(), 1)
	assert.Equal(t, "step 1", b.Output()[0].Message)
}
