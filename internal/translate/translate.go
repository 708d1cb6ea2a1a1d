// Package translate converts sketches between coding modes, working on the
// words of the code: string literals and comments are left untouched.
//
// Three translations are available: from imported mode to module mode, from
// module mode to imported mode, and from Processing's Python mode
// (camelCase names) to imported mode.
package translate

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/sketchnb/sketchnb/internal/reserved"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// Translator translates code from one coding mode to another.
type Translator struct {
	// Name of the translation, e.g. "imported2module".
	Name string

	// Ext is the extension of the source files translated by Dir by default.
	Ext string

	token func(token string) string
	post  func(code string) string
}

// Code translates code: each word outside string literals and comments is
// translated, and then the whole code may be fixed, e.g. adding the imports
// it needs.
func (t *Translator) Code(code string) string {
	var sb strings.Builder
	sb.Grow(len(code))
	var inComment bool
	var inQuote rune
	forEachToken(code, func(token string, isWord bool) {
		switch {
		case isWord:
			if !inComment && inQuote == 0 {
				token = t.token(token)
			}
		case (token == "'" || token == `"`) && !inComment:
			r := rune(token[0])
			if inQuote == 0 {
				inQuote = r
			} else if inQuote == r {
				inQuote = 0
			}
		case token == "#":
			inComment = true
		case token == "\n":
			inComment = false
			inQuote = 0
		}
		sb.WriteString(token)
	})
	if t.post == nil {
		return sb.String()
	}
	return t.post(sb.String())
}

// isWordRune returns whether r is part of words: identifiers, attribute
// references like `py5.width` and numbers.
func isWordRune(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// forEachToken splits code into words and single characters, and calls yield
// for each of them. Concatenating the tokens yields code.
func forEachToken(code string, yield func(token string, isWord bool)) {
	start := -1
	for ii, r := range code {
		if isWordRune(r) {
			if start < 0 {
				start = ii
			}
			continue
		}
		if start >= 0 {
			yield(code[start:ii], true)
			start = -1
		}
		yield(string(r), false)
	}
	if start >= 0 {
		yield(code[start:], true)
	}
}

// ImportedToModule returns the translator from imported mode to module mode:
// reserved words are qualified with the host package name, and the import of
// the package and the call to run_sketch() are added if missing.
func ImportedToModule(words *reserved.Words) *Translator {
	host := words.HostPackage
	importRE := regexp.MustCompile(`(?m)^import ` + regexp.QuoteMeta(host) + `$`)
	runSketchRE := regexp.MustCompile(`(?m)^(` + regexp.QuoteMeta(host) + `\.)?run_sketch\([^)]*\)$`)
	return &Translator{
		Name: "imported2module",
		Ext:  ".py",
		token: func(token string) string {
			if words.IsReserved(token) {
				return host + "." + token
			}
			return token
		},
		post: func(code string) string {
			if !importRE.MatchString(code) {
				code = "import " + host + "\n\n\n" + code
			}
			if !runSketchRE.MatchString(code) {
				code += "\n\n\n" + host + ".run_sketch()\n"
			}
			return code
		},
	}
}

// ModuleToImported returns the translator from module mode to imported mode:
// the host package qualifier is removed, as are the import of the package and
// the call to run_sketch().
func ModuleToImported(words *reserved.Words) *Translator {
	prefix := words.HostPackage + "."
	importRE := regexp.MustCompile(`(?m)^import ` + regexp.QuoteMeta(words.HostPackage) + `$`)
	runSketchRE := regexp.MustCompile(`(?m)^run_sketch\([^)]*\)$`)
	return &Translator{
		Name: "module2imported",
		Ext:  ".py",
		token: func(token string) string {
			return strings.TrimPrefix(token, prefix)
		},
		post: func(code string) string {
			code = importRE.ReplaceAllString(code, "")
			return runSketchRE.ReplaceAllString(code, "")
		},
	}
}

var (
	// processingClasses maps Processing classes to their py5 equivalent.
	processingClasses = map[string]string{
		"PApplet":   "Sketch",
		"PFont":     "Py5Font",
		"PGraphics": "Py5Graphics",
		"PImage":    "Py5Image",
		"PShader":   "Py5Shader",
		"PShape":    "Py5Shape",
		"PSurface":  "Py5Surface",
		"PVector":   "Py5Vector",
	}

	snakeCaseOverrides = map[string]string{
		"None":    "None",
		"True":    "True",
		"False":   "False",
		"println": "print",
	}

	constantRE   = regexp.MustCompile(`^[A-Z0-9_]+$`)
	hexNumberRE  = regexp.MustCompile(`^0x[\da-fA-F]{2,}`)
	capWordRE    = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
	lowerUpperRE = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// ProcessingPyToImported returns the translator from Processing's Python mode
// to imported mode: camelCase names become snake_case, except for constants,
// and Processing classes are renamed.
func ProcessingPyToImported() *Translator {
	return &Translator{
		Name:  "processingpy2imported",
		Ext:   ".pyde",
		token: snakeCase,
	}
}

func snakeCase(token string) string {
	if constantRE.MatchString(token) || hexNumberRE.MatchString(token) {
		return token
	}
	if class, found := processingClasses[token]; found {
		return class
	}
	if override, found := snakeCaseOverrides[token]; found {
		return override
	}
	token = capWordRE.ReplaceAllString(token, "${1}_${2}")
	token = lowerUpperRE.ReplaceAllString(token, "${1}_${2}")
	return strings.ToLower(token)
}

// File translates the file src and writes the result to dest, creating its
// directory if needed.
func (t *Translator) File(src, dest string) error {
	code, err := os.ReadFile(src)
	if err != nil {
		return errors.Wrapf(err, "failed to read %q", src)
	}
	if err = os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %q", dest)
	}
	if err = os.WriteFile(dest, []byte(t.Code(string(code))), 0644); err != nil {
		return errors.Wrapf(err, "failed to write %q", dest)
	}
	return nil
}

// Dir translates every file with extension ext (t.Ext if empty) in the
// directory src and its subdirectories, writing them with the same relative
// path under dest, with a ".py" extension. Files are translated in parallel.
//
// Progress is reported to out. A file that fails to translate is reported
// and skipped. It returns the number of files translated.
func (t *Translator) Dir(ctx context.Context, src, dest, ext string, out io.Writer) (int, error) {
	if ext == "" {
		ext = t.Ext
	}
	var files []string
	err := filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() && strings.HasSuffix(path, ext) {
			rel, err := filepath.Rel(src, path)
			if err != nil {
				return err
			}
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrapf(err, "failed to list files in %q", src)
	}
	_, _ = fmt.Fprintln(out, "translating code in", src)

	// Each goroutine writes only its own index.
	results := make([]error, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for ii, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			destRel := strings.TrimSuffix(rel, filepath.Ext(rel)) + ".py"
			results[ii] = t.File(filepath.Join(src, rel), filepath.Join(dest, destRel))
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return 0, errors.WithMessagef(err, "translation of %q interrupted", src)
	}

	var count int
	for ii, rel := range files {
		if results[ii] != nil {
			klog.Warningf("%s: %+v", t.Name, results[ii])
			_, _ = fmt.Fprintln(out, "error translating", rel)
			continue
		}
		_, _ = fmt.Fprintln(out, "translated", rel)
		count++
	}
	_, _ = fmt.Fprintln(out, "complete: translated", count, "files written to output directory", dest)
	return count, nil
}
