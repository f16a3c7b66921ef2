package tableprinter

import (
	"io"
	"os"
	"strings"

	tp "github.com/cli/go-gh/v2/pkg/tableprinter"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type TablePrinter struct {
	tp.TablePrinter
	isTTY bool
}

// HeaderRow prints column titles on a terminal only, keeping piped output
// free of headers.
func (t *TablePrinter) HeaderRow(columns ...string) {
	if !t.isTTY {
		return
	}
	for _, col := range columns {
		t.AddField(ColumnTitle(col))
	}
	t.EndRow()
}

func (t *TablePrinter) IsTTY() bool {
	return t.isTTY
}

var (
	WithTruncate = tp.WithTruncate
	WithColor    = tp.WithColor

	titleCaser = cases.Title(language.English)
)

// ColumnTitle renders an API name such as AD_REQUESTS as "Ad Requests".
func ColumnTitle(name string) string {
	return titleCaser.String(strings.ReplaceAll(strings.ToLower(name), "_", " "))
}

func New(w io.Writer) *TablePrinter {
	return newTablePrinter(w, isStdoutTTY())
}

func newTablePrinter(w io.Writer, isTTY bool) *TablePrinter {
	maxWidth := 80
	if isTTY {
		width, _, _ := terminalWidth()
		if width != 0 {
			maxWidth = width
		}
	}

	return &TablePrinter{
		TablePrinter: tp.New(w, isTTY, maxWidth),
		isTTY:        isTTY,
	}
}

func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func terminalWidth() (width, height int, err error) {
	return term.GetSize(int(os.Stdout.Fd()))
}
