package comment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phobologic/docextract/internal/model"
	"github.com/phobologic/docextract/internal/syntax"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tags := Parse("* Does X.\n@param {number} n - the count\n@return {boolean} ok")
	assert.Equal(t, []model.Tag{
		{Name: "@desc", Value: "Does X."},
		{Name: "@param", Value: "{number} n - the count"},
		{Name: "@return", Value: "{boolean} ok"},
	}, tags)
}

func TestParseIndentedBlock(t *testing.T) {
	t.Parallel()

	value := "*\n   * Summary line.\n   * Second line.\n   *\n   * @abstract\n   * @since 1.2.0\n   "
	assert.Equal(t, []model.Tag{
		{Name: "@desc", Value: "Summary line.\nSecond line."},
		{Name: "@abstract", Value: ""},
		{Name: "@since", Value: "1.2.0"},
	}, Parse(value))
}

func TestParseRepeatedTags(t *testing.T) {
	t.Parallel()

	tags := Parse("* @param {string} a\n * @param {string} b\n ")
	assert.Equal(t, []model.Tag{
		{Name: "@param", Value: "{string} a"},
		{Name: "@param", Value: "{string} b"},
	}, tags)
}

func TestParseFencedCode(t *testing.T) {
	t.Parallel()

	value := "* @example\n * ```js\n * @decorator\n * class A {}\n * ```\n * @see foo\n "
	assert.Equal(t, []model.Tag{
		{Name: "@example", Value: "```js\n@decorator\nclass A {}\n```"},
		{Name: "@see", Value: "foo"},
	}, Parse(value))
}

func TestParseCRLF(t *testing.T) {
	t.Parallel()

	tags := Parse("*\r\n * hello\r\n * @version 2\r\n ")
	assert.Equal(t, []model.Tag{
		{Name: "@desc", Value: "hello"},
		{Name: "@version", Value: "2"},
	}, tags)
}

func TestParseUndocumented(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []model.Tag{{Name: "@undocument", Value: ""}}, Parse(Undocumented))
}

func TestParseNotDoc(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Parse(" plain block "))
}

func TestIsDoc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		c    *syntax.Comment
		want bool
	}{
		{"doc block", &syntax.Comment{Block: true, Value: "* doc "}, true},
		{"plain block", &syntax.Comment{Block: true, Value: " doc "}, false},
		{"line", &syntax.Comment{Value: "* doc"}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDoc(tt.c))
		})
	}
}

func TestBuildRoundTrip(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"* Does X.\n@param {number} n - the count\n@return {boolean} ok",
		"*\n * Multi\n * line.\n *\n * @abstract\n * @example\n * const a = 1;\n *   indented();\n ",
		"* @typedef {Object} Opts\n * @property {string} name - the name\n ",
	}
	for _, in := range inputs {
		first := Parse(in)
		again := Parse(Build(first))
		assert.Equal(t, first, again, "input %q", in)
	}
}
