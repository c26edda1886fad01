package testutil

import (
	"bytes"
	"fmt"
)

// PageWidth is the MediaBox width PDF gives to the 1-based page n,
// so tests can tell pages apart after they are copied or reordered.
func PageWidth(n int) float64 {
	return float64(200 + 10*n)
}

// PageHeight is the MediaBox height of every page PDF generates.
const PageHeight = 300

// PDF builds a small, valid PDF with the given number of pages.
// Each page carries a single stroked line and no resources.
func PDF(pages int) []byte {
	var buf bytes.Buffer
	offsets := []int{}

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	// 1: catalog, 2: page tree, then (page, content) pairs
	obj("<< /Type /Catalog /Pages 2 0 R >>")

	var kids bytes.Buffer
	for i := 0; i < pages; i++ {
		if i > 0 {
			kids.WriteByte(' ')
		}
		fmt.Fprintf(&kids, "%d 0 R", 3+2*i)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids.String(), pages))

	for i := 0; i < pages; i++ {
		n := i + 1
		obj(fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %d] /Resources << >> /Contents %d 0 R >>",
			PageWidth(n), PageHeight, 4+2*i,
		))
		content := fmt.Sprintf("%d 0 0 RG 10 10 m %d 100 l S", n%2, 20+n)
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return buf.Bytes()
}
