package meta

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	ts := time.Date(2013, 4, 5, 6, 7, 8, 9000, time.UTC)
	var testCases = []struct {
		description string
		input       Value
		expect      Value
	}{
		{description: "null", input: Null(), expect: String("")},
		{description: "true", input: Bool(true), expect: String("bool:True")},
		{description: "false", input: Bool(false), expect: String("bool:False")},
		{description: "time", input: Time(ts), expect: String("datetime:2013-04-05 06:07:08.000009")},
		{description: "string", input: String("abc"), expect: String("abc")},
		{description: "int", input: Int(42), expect: Int(42)},
		{description: "float", input: Float(1.5), expect: Float(1.5)},
		{description: "bytes", input: Bytes([]byte{1, 2}), expect: Bytes([]byte{1, 2})},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			actual := Encode(testCase.input)
			assert.True(t, testCase.expect.Equal(actual), "got %v", actual)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	local := time.FixedZone("X", 3600)
	values := []Value{
		Bool(true),
		Bool(false),
		Time(time.Date(2024, 2, 29, 23, 59, 59, 123456000, local)),
		String("some text"),
		Null(),
		Int(-7),
		Float(3.25),
	}
	for _, v := range values {
		decoded, err := Decode(Encode(v))
		require.NoError(t, err)
		assert.Equal(t, v.Kind(), decoded.Kind())
		assert.True(t, v.Equal(decoded), "%v != %v", v, decoded)
	}
}

func TestDecode(t *testing.T) {
	var testCases = []struct {
		description string
		input       Value
		expect      Value
		hasError    bool
	}{
		{description: "lowercase bool", input: String("bool:true"), expect: Bool(true)},
		{description: "empty bytes", input: Bytes(nil), expect: Null()},
		{description: "plain string", input: String("boolean"), expect: String("boolean")},
		{description: "bad bool", input: String("bool:maybe"), hasError: true},
		{description: "bad datetime", input: String("datetime:2013-04-05T06:07:08Z"), hasError: true},
		{description: "int passthrough", input: Int(3), expect: Int(3)},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			actual, err := Decode(testCase.input)
			if testCase.hasError {
				assert.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			assert.True(t, testCase.expect.Equal(actual), "got %v", actual)
		})
	}
}

func TestOf(t *testing.T) {
	v, err := Of(int32(5))
	require.NoError(t, err)
	assert.Equal(t, KindInt, v.Kind())
	assert.Equal(t, int64(5), v.Interface())

	v, err = Of(nil)
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	_, err = Of(struct{}{})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestNamespace(t *testing.T) {
	assert.Equal(t, "AF_gid", Namespace("AF_", "gid", true))
	assert.Equal(t, "gid", Namespace("AF_", "gid", false))
	assert.Equal(t, "gid", StripNamespace("AF_", "AF_gid"))
	assert.Equal(t, "user", StripNamespace("AF_", "user"))
}
