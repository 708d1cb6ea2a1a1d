// Package rewrite turns reads of the binding's dynamic variables into calls,
// so that `mouse_x` always returns the current mouse position instead of the
// value it had when the name was bound.
package rewrite

import (
	"sort"
	"strings"

	"github.com/sketchnb/sketchnb/internal/pysyntax"
	"github.com/sketchnb/sketchnb/internal/reserved"
	"github.com/sketchnb/sketchnb/internal/source"
	"k8s.io/klog/v2"
)

// Rewriter rewrites syntax trees for a reserved-word table. It is safe for
// concurrent use.
type Rewriter struct {
	words *reserved.Words
}

// New returns a Rewriter for the dynamic variables in words.
func New(words *reserved.Words) *Rewriter {
	return &Rewriter{words: words}
}

// Rewrite returns a copy of tree where every read of a dynamic variable is
// replaced by a call without arguments to it. The tree passed is not
// modified.
//
// Names being assigned to or deleted are left alone, as are the callees of
// calls that already name a dynamic variable (`mouse_x()` is not rewritten
// to `mouse_x()()`), though their arguments are rewritten. So rewriting a
// rewritten tree changes nothing.
//
// The synthesized calls have the position of the name they wrap, and are
// marked as Implicit.
func (r *Rewriter) Rewrite(tree *pysyntax.Module) *pysyntax.Module {
	tree = pysyntax.Clone(tree)
	var count int
	var mapFn pysyntax.MapFunc
	mapFn = func(e pysyntax.Expr) (pysyntax.Expr, bool) {
		switch n := e.(type) {
		case *pysyntax.Name:
			if n.Ctx == pysyntax.Load && r.words.IsDynamic(n.Id) {
				count++
				return &pysyntax.Call{Span: n.Span, Func: n, Implicit: true}, false
			}
			return n, false
		case *pysyntax.Call:
			if fn, ok := n.Func.(*pysyntax.Name); ok && r.words.IsDynamic(fn.Id) {
				for ii := range n.Args {
					n.Args[ii] = pysyntax.MapExpr(n.Args[ii], mapFn)
				}
				for _, kw := range n.Keywords {
					kw.Value = pysyntax.MapExpr(kw.Value, mapFn)
				}
				return n, false
			}
		}
		return e, true
	}
	pysyntax.MapExprs(tree, mapFn)
	klog.V(2).Infof("rewrite: %d dynamic variable read(s) in %q", count, tree.Filename)
	return tree
}

// Render returns src with "()" inserted after every name that Rewrite turned
// into a call. tree must be the result of rewriting the tree parsed from src.
//
// Nothing else changes, in particular no line breaks are added or removed,
// so every statement keeps its line number.
func Render(src string, tree *pysyntax.Module) string {
	var offsets []int
	pysyntax.Inspect(tree, func(node pysyntax.Node) bool {
		if call, ok := node.(*pysyntax.Call); ok && call.Implicit {
			offsets = append(offsets, call.Func.End().Offset)
		}
		return true
	})
	if len(offsets) == 0 {
		return src
	}
	sort.Ints(offsets)
	var sb strings.Builder
	sb.Grow(len(src) + 2*len(offsets))
	last := 0
	for _, offset := range offsets {
		sb.WriteString(src[last:offset])
		sb.WriteString("()")
		last = offset
	}
	sb.WriteString(src[last:])
	return sb.String()
}

// Source parses unit, rewrites it and renders the result back to source code.
// A syntax error is returned as a *pysyntax.SyntaxError.
func (r *Rewriter) Source(unit *source.Unit) (string, error) {
	tree, err := pysyntax.Parse(unit.Filename, unit.Text)
	if err != nil {
		return "", err
	}
	return Render(unit.Text, r.Rewrite(tree)), nil
}
