package plugin

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/docextract/internal/config"
	"github.com/phobologic/docextract/internal/model"
	"github.com/phobologic/docextract/internal/syntax"
)

type upper struct{ seen []string }

func (*upper) Name() string { return "upper" }

func (u *upper) HandleCode(path, code string) string {
	u.seen = append(u.seen, path)
	return strings.ToUpper(code)
}

func (u *upper) HandleAST(path string, _ *syntax.Program) {
	u.seen = append(u.seen, "ast:"+path)
}

type suffix string

func (s suffix) Name() string { return "suffix" }

func (s suffix) HandleCode(_, code string) string { return code + string(s) }

func (s suffix) HandleConfig(cfg *config.Config) (*config.Config, error) {
	next := *cfg
	next.Destination += string(s)
	return &next, nil
}

type failing struct{}

func (failing) Name() string { return "failing" }

func (failing) HandleConfig(*config.Config) (*config.Config, error) {
	return nil, errors.New("boom")
}

type counter struct{ n int }

func (*counter) Name() string { return "counter" }

func (c *counter) HandleComplete(recs []*model.Record) { c.n = len(recs) }

func TestEmptyChainIsIdentity(t *testing.T) {
	t.Parallel()

	var c Chain
	cfg := config.Default()
	got, err := c.HandleConfig(cfg)
	require.NoError(t, err)
	assert.Same(t, cfg, got)

	assert.Equal(t, "code", c.HandleCode("a.js", "code"))

	recs := []*model.Record{{ID: 1}}
	assert.Equal(t, recs, c.HandleDocs(recs))
	c.HandleAST("a.js", &syntax.Program{})
	c.HandleComplete(recs)
}

func TestChainOrder(t *testing.T) {
	t.Parallel()

	u := &upper{}
	c := Chain{u, suffix("!")}
	assert.Equal(t, "ABC!", c.HandleCode("a.js", "abc"))

	c = Chain{suffix("!"), u}
	assert.Equal(t, "ABC!", c.HandleCode("b.js", "abc"))

	c.HandleAST("b.js", nil)
	assert.Equal(t, []string{"a.js", "b.js", "ast:b.js"}, u.seen)

	cnt := &counter{}
	Chain{u, cnt}.HandleComplete(make([]*model.Record, 3))
	assert.Equal(t, 3, cnt.n)
}

func TestHandleConfig(t *testing.T) {
	t.Parallel()

	cfg, err := Chain{suffix("/a"), suffix("/b")}.HandleConfig(config.Default())
	require.NoError(t, err)
	assert.Equal(t, "./docs/a/b", cfg.Destination)

	_, err = Chain{suffix("/a"), failing{}}.HandleConfig(config.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plugin failing: boom")
}

func TestDropUndocumented(t *testing.T) {
	t.Parallel()

	recs := []*model.Record{
		{ID: 0, Kind: model.File},
		{ID: 1, Kind: model.Class},
		{ID: 2, Kind: model.Method, Undocument: true},
	}
	got := DropUndocumented{}.HandleDocs(recs)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[1].ID)
	assert.Len(t, recs, 3)
}

func TestAccessFilter(t *testing.T) {
	t.Parallel()

	chain, err := FromConfig([]config.PluginConfig{{
		Name:   "access-filter",
		Option: map[string]any{"access": []any{"public"}},
	}})
	require.NoError(t, err)

	recs := []*model.Record{
		{ID: 0, Kind: model.File, Access: model.Private},
		{ID: 1, Kind: model.Class},
		{ID: 2, Kind: model.Method, Access: model.Private},
		{ID: 3, Kind: model.Method, Access: model.Public},
		{ID: 4, Kind: model.Index, Access: model.Public},
	}
	got := chain.HandleDocs(recs)

	var ids []int64
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{0, 1, 3, 4}, ids)
}

func TestAccessFilterDefaults(t *testing.T) {
	t.Parallel()

	p, err := newAccessFilter(nil)
	require.NoError(t, err)
	f := p.(AccessFilter)
	assert.True(t, f.allowed[model.Public])
	assert.True(t, f.allowed[model.Protected])
	assert.False(t, f.allowed[model.Private])
}

func TestFromConfigErrors(t *testing.T) {
	t.Parallel()

	_, err := FromConfig([]config.PluginConfig{{Name: "nope"}})
	assert.EqualError(t, err, `unknown plugin "nope"`)

	_, err = FromConfig([]config.PluginConfig{{Name: "access-filter", Option: map[string]any{"access": "public"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want a list")
}

func TestNames(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"access-filter", "drop-undocumented"}, Names())
}
