package charts

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/couponlens/internal/analysis"
	"github.com/KaramelBytes/couponlens/internal/segment"
	"github.com/KaramelBytes/couponlens/internal/utils"
)

// TextRenderer draws horizontal bar charts with block characters. Charts go
// to Out when it is set, otherwise to the path passed to each call.
type TextRenderer struct {
	Out io.Writer
	// Width is the length of the longest bar; 0 means 40.
	Width int
}

func (r *TextRenderer) Ext() string { return ".txt" }

func (r *TextRenderer) CountPlot(path, title string, ct *segment.CountTable) error {
	var b bytes.Buffer
	header(&b, title)
	maxN := 0
	for i := range ct.Levels {
		for _, n := range ct.Counts[i] {
			maxN = max(maxN, n)
		}
	}
	for i, lvl := range ct.Levels {
		if len(ct.HueLevels) == 0 {
			n := ct.Counts[i][0]
			fmt.Fprintf(&b, "  %-30s %s (%d)\n", truncate(lvl, 28), r.bar(n, maxN), n)
			continue
		}
		fmt.Fprintf(&b, "  %s\n", truncate(lvl, 60))
		for j, h := range ct.HueLevels {
			n := ct.Counts[i][j]
			fmt.Fprintf(&b, "    %-28s %s (%d)\n", truncate(ct.Hue+"="+h, 26), r.bar(n, maxN), n)
		}
	}
	return r.emit(path, b.Bytes())
}

func (r *TextRenderer) RateBar(path, title, xlabel string, rates []segment.Rate) error {
	var b bytes.Buffer
	header(&b, title)
	fmt.Fprintf(&b, "  %s\n", xlabel)
	for _, rt := range rates {
		n := 0
		if rt.Defined {
			n = int(rt.Value*100 + 0.5)
		}
		fmt.Fprintf(&b, "  %-30s %s %s (n=%d)\n", truncate(rt.Group, 28), r.bar(n, 100), rt, rt.Size)
	}
	return r.emit(path, b.Bytes())
}

func (r *TextRenderer) Histogram(path, title, xlabel string, bins []analysis.Bin) error {
	var b bytes.Buffer
	header(&b, title)
	fmt.Fprintf(&b, "  %s\n", xlabel)
	maxN := 0
	for _, bin := range bins {
		maxN = max(maxN, bin.Count)
	}
	for _, bin := range bins {
		fmt.Fprintf(&b, "  %-30s %s (%d)\n", bin.Label(), r.bar(bin.Count, maxN), bin.Count)
	}
	return r.emit(path, b.Bytes())
}

func (r *TextRenderer) bar(n, of int) string {
	w := r.Width
	if w <= 0 {
		w = 40
	}
	if of <= 0 || n <= 0 {
		return ""
	}
	cells := n * w / of
	if cells == 0 {
		cells = 1
	}
	return strings.Repeat("█", cells)
}

func (r *TextRenderer) emit(path string, data []byte) error {
	if r.Out != nil {
		_, err := r.Out.Write(data)
		return err
	}
	return utils.SafeWriteFile(path, data)
}

func header(w io.Writer, title string) {
	fmt.Fprintf(w, "%s\n%s\n", title, strings.Repeat("─", len([]rune(title))))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
