package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Command
	}{
		{"blank", "", Command{Op: OpNoop}},
		{"whitespace", "   \r\n", Command{Op: OpNoop}},
		{"get", "get foo\n", Command{Op: OpGet, Key: "foo"}},
		{"get trims key", "get   foo  ", Command{Op: OpGet, Key: "foo"}},
		{"del", "del foo\r\n", Command{Op: OpDel, Key: "foo"}},
		{"set", "set foo bar", Command{Op: OpSet, Key: "foo", Value: "bar"}},
		{"set value keeps inner spaces", "set foo hello big world\n", Command{Op: OpSet, Key: "foo", Value: "hello big world"}},
		{"set unicode", "set heart ❤️", Command{Op: OpSet, Key: "heart", Value: "❤️"}},
		{"prune", "prune\n", Command{Op: OpPrune}},
		{"reset", "reset", Command{Op: OpReset}},
		{"count", "count\r\n", Command{Op: OpCount}},
		{"size", "size", Command{Op: OpSize}},
		{"keys", "keys\n", Command{Op: OpKeys}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want error
	}{
		{"get key with space", "get foo bar", ErrKeyContainsSpace},
		{"del key with space", "del foo bar\n", ErrKeyContainsSpace},
		{"set without value", "set foo", ErrNoValue},
		{"set without value newline", "set foo\n", ErrNoValue},
		{"unknown", "flush", ErrUnknownOperation},
		{"case sensitive", "GET foo", ErrUnknownOperation},
		{"get without key separator", "get", ErrUnknownOperation},
		{"bare op with argument", "count 1", ErrUnknownOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.line)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "key cannot contain space", ErrKeyContainsSpace.Error())
	assert.Equal(t, "no value specified", ErrNoValue.Error())
	assert.Equal(t, "operation not defined", ErrUnknownOperation.Error())
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "get", OpGet.String())
	assert.Equal(t, "keys", OpKeys.String())
	assert.Equal(t, "unknown", Op(99).String())
}
