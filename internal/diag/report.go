package diag

import (
	"fmt"
	"html"
	"io"
	"slices"
	"strings"
	"text/template"

	"github.com/fatih/color"
	"github.com/pkg/errors"
)

// LinesForErrorContext indicates how many lines to display in the error context, before and after the offending line.
const LinesForErrorContext = 3

// Report is an error holding a collection of diagnostics, each with some
// context of the code around it.
//
// It can be rendered to HTML in the notebook with Report.WriteHTML, or as a
// colored Traceback.
type Report struct {
	Lines    []reportLine
	name     string
	header   string
	problems []string
	err      error
}

// reportLine describes one diagnostic, with the context around it.
type reportLine struct {
	HasContext  bool   // Whether this line has a context, usually displayed as a mouse-over content.
	Message     string // Diagnostic message.
	Location    string // `file:line_number:col_number` prefix, only if HasContext == true.
	HtmlContext string // HtmlContext to display on a mouse-over window, only if HasContext == true.
	RawContext  string // RawContext to display on a traceback, only if HasContext == true.
}

// NewReport creates a Report for the diagnostics found in filename, whose
// lines are given in codeLines. name is used as the error name (Jupyter's
// "ename") and err, if not nil, is wrapped.
func NewReport(name, filename string, codeLines []string, diagnostics []Diagnostic, err error) *Report {
	r := &Report{
		Lines:  make([]reportLine, len(diagnostics)),
		name:     name,
		header:   ProblemsHeader(len(diagnostics)),
		problems: diagnosticStrings(diagnostics),
		err:      err,
	}
	for ii, d := range diagnostics {
		r.Lines[ii] = newReportLine(filename, codeLines, d)
	}
	return r
}

func newReportLine(filename string, codeLines []string, d Diagnostic) (l reportLine) {
	l.Message = d.Message()
	lineNum := d.Line - 1 // Diagnostics lines start at 1.
	if len(codeLines) == 0 || lineNum < 0 || lineNum >= len(codeLines) {
		return
	}
	l.HasContext = true
	l.Location = fmt.Sprintf("%s:%d:%d", filename, d.Line, d.Col+1)

	fromLines := inBetween(lineNum-LinesForErrorContext, 0, len(codeLines)-1)
	toLines := inBetween(lineNum+LinesForErrorContext+1, 0, len(codeLines))
	partsHtml := make([]string, 0, toLines-fromLines)
	partsRaw := make([]string, 0, toLines-fromLines)
	for ii := fromLines; ii < toLines; ii++ {
		partRaw := fmt.Sprintf("%4d: %s\n", ii+1, codeLines[ii])
		partHtml := html.EscapeString(partRaw)
		if ii == lineNum {
			partHtml = fmt.Sprintf(`<div class="sketchnb-err-line">%s</div>`, partHtml)
			partRaw += "      " + CaretLine(codeLines[ii], d.Col) + "\n"
		}
		partsHtml = append(partsHtml, partHtml)
		partsRaw = append(partsRaw, partRaw)
	}
	l.HtmlContext = strings.Join(partsHtml, "")
	l.RawContext = strings.Join(partsRaw, "")
	return
}

// WithHeader replaces the first line of the report, by default
// ProblemsHeader. It returns the Report itself.
func (r *Report) WithHeader(header string) *Report {
	r.header = header
	return r
}

// Header returns the first line of the report.
func (r *Report) Header() string {
	return r.header
}

// Unwrap returns the underlying error, so it can be used by `errors.Unwrap`.
func (r *Report) Unwrap() error {
	return r.err
}

// Error implements golang `error` interface.
// In Jupyter protocol, it corresponds to the "evalue" field (as in "error value").
func (r *Report) Error() string {
	return FormatProblemsWithHeader(r.header, r.problems)
}

// Name corresponds to field "ename" in Jupyter.
func (r *Report) Name() string {
	return r.name
}

// Traceback corresponds to field "traceback" in Jupyter.
func (r *Report) Traceback() []string {
	traceback := make([]string, 0, len(r.Lines)+1)
	traceback = append(traceback, r.header)
	for _, line := range r.Lines {
		var message string
		if line.HasContext {
			message = line.Location + "\n" + line.RawContext
		}
		message += color.New(color.FgRed).Sprint(line.Message)
		traceback = append(traceback, message)
	}
	return traceback
}

// To check the standard Jupyter colors to choose from, see:
// https://github.com/jupyterlab/jupyterlab/blob/master/packages/theme-light-extension/style/variables.css
var templateErrorReport = template.Must(template.New("error_report").Parse(`
<style>
.sketchnb-err-location {
	background: var(--jp-err-color2);
	border-radius: 3px;
	border-style: dotted;
	border-width: 1px;
	border-color: var(--jp-border-color2);
}
.sketchnb-err-location:hover {
	border-width: 2px;
	border-style: solid;
	border-color: var(--jp-border-color2);
}
.sketchnb-err-context {
	display: none;
}
.sketchnb-err-location:hover + .sketchnb-err-context {
	background: var(--jp-dialog-background);
	border-radius: 3px;
	border-style: solid;
	border-width: 1px;
	border-color: var(--jp-border-color2);
	display: block;
	white-space: pre;
	font-family: monospace;
}
.sketchnb-err-line {
	border-radius: 3px;
	border-style: dotted;
	border-width: 1px;
	border-color: var(--jp-border-color2);
	background-color: var(--jp-rendermime-err-background);
	font-weight: bold;
}
</style>
<div class="lm-Widget p-Widget lm-Panel p-Panel jp-OutputArea-child">
<div class="lm-Widget p-Widget jp-RenderedText jp-mod-trusted jp-OutputArea-output" data-mime-type="application/vnd.jupyter.stderr" style="font-family: monospace;">
<b>{{.Header}}</b><br/>
{{range .Lines}}
{{if .HasContext}}<span class="sketchnb-err-location">{{.Location}}</span> {{.Message}}
<div class="sketchnb-err-context">
{{.HtmlContext}}
</div>
{{else}}
<span style="white-space: pre;">{{.Message}}</span>
{{end}}
<br/>
{{end}}
</div>
</div>
`))

// WriteHTML renders the report as an HTML block, with a mouse-over pop-up
// window listing the lines around each problem.
func (r *Report) WriteHTML(w io.Writer) error {
	data := struct {
		Header string
		Lines  []reportLine
	}{
		Header: html.EscapeString(r.header),
		Lines:  slices.Clone(r.Lines),
	}
	for ii := range data.Lines {
		data.Lines[ii].Message = html.EscapeString(data.Lines[ii].Message)
		data.Lines[ii].Location = html.EscapeString(data.Lines[ii].Location)
	}
	if err := templateErrorReport.Execute(w, data); err != nil {
		return errors.Wrap(err, "failed to render HTML error report")
	}
	return nil
}

// tracebackError is implemented by the errors that know how to present
// themselves in a notebook.
type tracebackError interface {
	error
	Name() string
	Traceback() []string
}

// JupyterErrorSplit takes an error and formats it into the components Jupyter
// protocol uses for it.
//
// It special cases errors that implement `Name()` and `Traceback()`, like
// Report and the syntax errors of the parser.
func JupyterErrorSplit(err error) (string, string, []string) {
	var tbErr tracebackError
	if errors.As(err, &tbErr) {
		return tbErr.Name(), tbErr.Error(), tbErr.Traceback()
	}
	return "ERROR", err.Error(), []string{err.Error()}
}
