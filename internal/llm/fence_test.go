package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstFencedBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"tagged fence",
			"Here is the query:\n```sql\nSELECT 1;\n```\nDone.",
			"SELECT 1;\n",
		},
		{
			"untagged fence",
			"```\nSELECT 2;\n```",
			"SELECT 2;\n",
		},
		{
			"first of several",
			"```sql\nSELECT 1;\n```\n```sql\nSELECT 2;\n```",
			"SELECT 1;\n",
		},
		{
			"no fence falls back to verbatim",
			"SELECT 3;",
			"SELECT 3;",
		},
		{
			"empty input",
			"",
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FirstFencedBlock(tt.input))
		})
	}
}

func TestFirstFencedBlockTagged(t *testing.T) {
	input := "Some prose.\n```star\nchart.new(type=\"bar\", data=data)\n```\n"

	code, ok := FirstFencedBlockTagged(input, "star", "starlark")
	assert.True(t, ok)
	assert.Equal(t, `chart.new(type="bar", data=data)`, code)
}

func TestFirstFencedBlockTaggedFallsThroughTags(t *testing.T) {
	input := "```python\nchart.new(type=\"pie\", data=data)\n```"

	code, ok := FirstFencedBlockTagged(input, "star", "starlark", "python")
	assert.True(t, ok)
	assert.Equal(t, `chart.new(type="pie", data=data)`, code)
}

func TestFirstFencedBlockTaggedMissing(t *testing.T) {
	_, ok := FirstFencedBlockTagged("no code here", "star")
	assert.False(t, ok)

	_, ok = FirstFencedBlockTagged("```sql\nSELECT 1;\n```", "star")
	assert.False(t, ok, "a differently tagged fence must not match")
}
