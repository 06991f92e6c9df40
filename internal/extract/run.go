// Package extract turns syntax trees into documentation records.
//
// A Run covers one batch of files. Files of a run may be processed
// concurrently; they share only the record id counter and the identity table.
package extract

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/phobologic/docextract/internal/comment"
	"github.com/phobologic/docextract/internal/diag"
	"github.com/phobologic/docextract/internal/model"
	"github.com/phobologic/docextract/internal/pathresolve"
	"github.com/phobologic/docextract/internal/syntax"
)

// Run holds the state shared by every file of one extraction run.
type Run struct {
	nextID atomic.Int64

	mu    sync.Mutex
	nodes map[int64]syntax.Node
}

// NewRun returns an empty Run. Record ids start at 0.
func NewRun() *Run {
	return &Run{nodes: make(map[int64]syntax.Node)}
}

// Node returns the syntax node a record was built from. Records built from
// free-standing comments map to a nil node.
func (r *Run) Node(id int64) (syntax.Node, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[id]
	return n, ok
}

// Len returns the number of ids handed out so far.
func (r *Run) Len() int64 {
	return r.nextID.Load()
}

// NextID hands out an id for a record built without a syntax node, such as
// the index and package.json records.
func (r *Run) NextID() int64 {
	return r.add(nil)
}

func (r *Run) add(n syntax.Node) int64 {
	id := r.nextID.Add(1) - 1
	r.mu.Lock()
	r.nodes[id] = n
	r.mu.Unlock()
	return id
}

// File extracts the records of one parsed file. The first record is always
// the file record. Malformed tags are reported to rep and skipped; an
// unsupported decorator or declarator shape aborts the file with an error
// wrapping diag.ErrUnsupportedSyntax.
//
// prog is not modified, so the same tree can be extracted again.
func (r *Run) File(prog *syntax.Program, res *pathresolve.Resolver, rep diag.Reporter) ([]*model.Record, error) {
	if rep == nil {
		rep = diag.Discard
	}
	f := newFileState(r, prog, res, rep)
	if err := f.extract(); err != nil {
		return nil, fmt.Errorf("%s: %w", res.FilePath(), err)
	}
	return f.records, nil
}

// fileState is the side-table store for one file. The tree itself is never
// written to; everything learned about a node is keyed by its identity here.
type fileState struct {
	run    *Run
	prog   *syntax.Program
	root   *syntax.Program
	res    *pathresolve.Resolver
	rep    diag.Reporter
	path   string
	source string

	parent    map[syntax.Node]syntax.Node
	visited   map[syntax.Node]bool
	sanitized map[syntax.Node]bool
	pseudo    map[syntax.Node]bool
	names     map[syntax.Node]syntax.Node
	leading   map[syntax.Node][]*syntax.Comment
	trailing  map[syntax.Node][]*syntax.Comment
	classDocs map[syntax.Node]*model.Record
	imports   map[string]string
	anonymous int

	records []*model.Record
}

func newFileState(r *Run, prog *syntax.Program, res *pathresolve.Resolver, rep diag.Reporter) *fileState {
	f := &fileState{
		run:       r,
		prog:      prog,
		res:       res,
		rep:       rep,
		path:      res.FilePath(),
		source:    prog.Source,
		parent:    make(map[syntax.Node]syntax.Node),
		visited:   make(map[syntax.Node]bool),
		sanitized: make(map[syntax.Node]bool),
		pseudo:    make(map[syntax.Node]bool),
		names:     make(map[syntax.Node]syntax.Node),
		leading:   make(map[syntax.Node][]*syntax.Comment),
		trailing:  make(map[syntax.Node][]*syntax.Comment),
		classDocs: make(map[syntax.Node]*model.Record),
		imports:   make(map[string]string),
	}
	for _, n := range prog.Body {
		if imp, ok := n.(*syntax.ImportDeclaration); ok {
			for _, local := range imp.Locals {
				if _, seen := f.imports[local]; !seen {
					f.imports[local] = imp.Source
				}
			}
		}
	}
	return f
}

func (f *fileState) extract() error {
	// The working program shares statements with prog but owns its body
	// slice, so pseudo exports can be appended without touching prog.
	f.root = &syntax.Program{Base: f.prog.Base, Source: f.prog.Source, InnerComments: f.prog.InnerComments}
	f.root.Body = append([]syntax.Node(nil), f.prog.Body...)
	f.normalizeExports()

	f.records = append(f.records, f.fileRecord())

	if len(f.root.Body) == 0 && len(f.prog.InnerComments) > 0 {
		if err := f.traverseComments(f.root, nil, f.prog.InnerComments); err != nil {
			return err
		}
	}

	var walkErr error
	syntax.Walk(f.root, func(n, parent syntax.Node) bool {
		if walkErr != nil || f.sanitized[n] {
			return false
		}
		if err := f.push(n, parent); err != nil {
			walkErr = err
			return false
		}
		return true
	})
	return walkErr
}

// push visits one node: it unwraps exports, then builds records from the
// node's doc comments.
func (f *fileState) push(n, parent syntax.Node) error {
	if n == syntax.Node(f.root) || f.visited[n] {
		return nil
	}

	last := isLast(n, parent)
	f.visited[n] = true
	f.parent[n] = parent

	if decl, ok := exportedDeclaration(n); ok {
		if syntax.IsNil(decl) {
			return nil
		}
		f.leading[decl] = concatComments(f.leadingOf(decl), n.Common().Leading)
		f.trailing[decl] = concatComments(f.trailingOf(decl), n.Common().Trailing)
		parent = n
		n = decl
		f.visited[n] = true
		f.parent[n] = parent
	}

	leading := f.leadingOf(n)
	if ds := decoratorsOf(n); len(ds) > 0 && len(ds[0].Leading) > 0 && len(leading) == 0 {
		leading = ds[0].Leading
	}
	if err := f.traverseComments(parent, n, leading); err != nil {
		return err
	}

	// Trailing comments are read only from the last node of a body so a
	// comment between two siblings is not attributed twice.
	if trailing := f.trailingOf(n); len(trailing) > 0 && last {
		return f.traverseComments(parent, nil, trailing)
	}
	return nil
}

var undocumented = []*syntax.Comment{{Block: true, Value: comment.Undocumented}}

// traverseComments builds a record for each doc comment. Only the last one
// belongs to n; the others, and all comments when n is nil, describe a
// free-standing entity whose parent is parent.
func (f *fileState) traverseComments(parent, n syntax.Node, comments []*syntax.Comment) error {
	var docs []*syntax.Comment
	for _, c := range comments {
		if comment.IsDoc(c) {
			docs = append(docs, c)
		}
	}
	if len(docs) == 0 {
		docs = undocumented
	}

	for i, c := range docs {
		target := n
		if i < len(docs)-1 {
			target = nil
		}
		if err := f.createDoc(target, parent, comment.Parse(c.Value)); err != nil {
			return err
		}
	}
	return nil
}

func (f *fileState) createDoc(n, parent syntax.Node, tags []model.Tag) error {
	kind, target := f.decide(tags, n)
	if kind == kindNone {
		return nil
	}
	if target != n {
		parent = f.parent[target]
	}

	rec, err := f.build(kind, target, parent, tags)
	if err != nil {
		return err
	}
	if kind == kindClass {
		f.classDocs[target] = rec
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fileState) leadingOf(n syntax.Node) []*syntax.Comment {
	if cs, ok := f.leading[n]; ok {
		return cs
	}
	return n.Common().Leading
}

func (f *fileState) trailingOf(n syntax.Node) []*syntax.Comment {
	if cs, ok := f.trailing[n]; ok {
		return cs
	}
	return n.Common().Trailing
}

// up returns the parent of n, or start itself when n is nil.
func (f *fileState) up(n, start syntax.Node) syntax.Node {
	if syntax.IsNil(n) {
		return start
	}
	return f.parent[n]
}

// enclosingClass returns the nearest class above from, including from itself.
func (f *fileState) enclosingClass(from syntax.Node, expressions bool) *syntax.ClassDeclaration {
	for p := from; !syntax.IsNil(p); p = f.parent[p] {
		if cls, ok := p.(*syntax.ClassDeclaration); ok && (expressions || !cls.Expression) {
			return cls
		}
	}
	return nil
}

func (f *fileState) report(n syntax.Node, reason string) {
	f.rep.Report(diag.AtNode(f.path, f.source, n, reason))
}

func exportedDeclaration(n syntax.Node) (syntax.Node, bool) {
	switch e := n.(type) {
	case *syntax.ExportDefault:
		return e.Declaration, true
	case *syntax.ExportNamed:
		return e.Declaration, true
	}
	return nil, false
}

func decoratorsOf(n syntax.Node) []*syntax.Decorator {
	switch v := n.(type) {
	case *syntax.ClassDeclaration:
		return v.Decorators
	case *syntax.MethodDefinition:
		return v.Decorators
	case *syntax.FieldDefinition:
		return v.Decorators
	}
	return nil
}

func isLast(n, parent syntax.Node) bool {
	if syntax.IsNil(parent) {
		return false
	}
	body := syntax.Body(parent)
	return len(body) > 0 && body[len(body)-1] == n
}

func concatComments(a, b []*syntax.Comment) []*syntax.Comment {
	out := make([]*syntax.Comment, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
