package tutorkit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult_Constructors(t *testing.T) {
	ok := OK("created shape", map[string]any{"id": "s1"})
	assert.True(t, ok.IsOK())
	assert.JSONEq(t, `{"status":"ok","summary":"created shape","data":{"id":"s1"}}`, string(ok.JSON()))

	fail := Failf("invalid %s", "position")
	assert.False(t, fail.IsOK())
	assert.JSONEq(t, `{"status":"error","summary":"invalid position"}`, string(fail.JSON()))
}

func TestResult_JSON_UnserializableData(t *testing.T) {
	r := OK("bad", math.NaN())
	assert.JSONEq(t, `{"status":"ok","summary":"bad (data not serializable)"}`, string(r.JSON()))
}
