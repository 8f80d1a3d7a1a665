// Package manifest loads catalog seed manifests written in CUE.
//
// A manifest declares products under a top-level "product" struct, keyed by
// any label:
//
//	product: cola: {
//		id:    1
//		name:  "Cola"
//		price: 100
//		stock: 10
//	}
//
// Every manifest is unified with an embedded schema before extraction, so
// type and range errors carry the CUE source position.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/shelf/internal/catalog"
)

const schema = `
#Product: {
	id:    int & >0 & <=18446744073709551615
	name:  string
	price: int & >0 & <=18446744073709551615
	stock: *0 | (int & >=0 & <=18446744073709551615)
}
product: [string]: #Product
`

// Manifest is a parsed seed manifest.
type Manifest struct {
	// Products in declaration order.
	Products []catalog.Product
	Files    int
}

// Error is a manifest problem, positioned when CUE knows where it is.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads a manifest from a .cue file or a directory holding one CUE
// package.
func Load(path string) (*Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &Error{Field: "path", Message: err.Error()}
	}

	cfg := &load.Config{Dir: path}
	args := []string{"."}
	files := 0
	if info.IsDir() {
		if files, err = countCUEFiles(path); err != nil {
			return nil, &Error{Field: "path", Message: fmt.Sprintf("scanning %s: %v", path, err)}
		}
		if files == 0 {
			return nil, &Error{Field: "path", Message: fmt.Sprintf("no CUE files found in %s", path)}
		}
	} else {
		cfg.Dir = filepath.Dir(path)
		args = []string{filepath.Base(path)}
		files = 1
	}

	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return nil, &Error{Field: "load", Message: "no CUE instances loaded"}
	}
	if err := instances[0].Err; err != nil {
		return nil, positioned("load", err)
	}

	ctx := cuecontext.New()
	m, err := extract(ctx, ctx.BuildInstance(instances[0]))
	if err != nil {
		return nil, err
	}
	m.Files = files
	return m, nil
}

// Parse reads a manifest from CUE source. filename is used in positions.
func Parse(src, filename string) (*Manifest, error) {
	ctx := cuecontext.New()
	m, err := extract(ctx, ctx.CompileString(src, cue.Filename(filename)))
	if err != nil {
		return nil, err
	}
	m.Files = 1
	return m, nil
}

func extract(ctx *cue.Context, v cue.Value) (*Manifest, error) {
	if err := v.Err(); err != nil {
		return nil, positioned("cue", err)
	}
	v = v.Unify(ctx.CompileString(schema, cue.Filename("schema.cue")))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, positioned("cue", err)
	}

	productsVal := v.LookupPath(cue.ParsePath("product"))
	if !productsVal.Exists() {
		return nil, &Error{Field: "product", Message: "no products declared", Pos: v.Pos()}
	}
	iter, err := productsVal.Fields()
	if err != nil {
		return nil, positioned("product", err)
	}

	m := &Manifest{}
	seen := map[uint64]string{}
	for iter.Next() {
		label := "product." + iter.Selector().String()
		p, err := parseProduct(iter.Value(), label)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[p.ID]; dup {
			return nil, &Error{
				Field:   label + ".id",
				Message: fmt.Sprintf("id %d already declared by %s", p.ID, prev),
				Pos:     iter.Value().LookupPath(cue.ParsePath("id")).Pos(),
			}
		}
		seen[p.ID] = label
		m.Products = append(m.Products, p)
	}
	if len(m.Products) == 0 {
		return nil, &Error{Field: "product", Message: "no products declared", Pos: productsVal.Pos()}
	}
	return m, nil
}

func parseProduct(v cue.Value, label string) (catalog.Product, error) {
	var p catalog.Product
	var err error
	if p.ID, err = v.LookupPath(cue.ParsePath("id")).Uint64(); err != nil {
		return p, positioned(label+".id", err)
	}
	if p.Name, err = v.LookupPath(cue.ParsePath("name")).String(); err != nil {
		return p, positioned(label+".name", err)
	}
	p.Name = catalog.NormalizeName(p.Name)
	if p.Price, err = v.LookupPath(cue.ParsePath("price")).Uint64(); err != nil {
		return p, positioned(label+".price", err)
	}
	if p.Stock, err = v.LookupPath(cue.ParsePath("stock")).Uint64(); err != nil {
		return p, positioned(label+".stock", err)
	}
	return p, nil
}

// positioned converts a CUE error to an *Error carrying the first position.
func positioned(field string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Field: field, Message: err.Error()}
	}
	first := errs[0]
	e := &Error{Field: field, Message: first.Error()}
	if pos := cueerrors.Positions(first); len(pos) > 0 {
		e.Pos = pos[0]
	}
	return e
}

func countCUEFiles(dir string) (int, error) {
	n := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			n++
		}
		return nil
	})
	return n, err
}
