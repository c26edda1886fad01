package pdf

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallsified/pdf-o-matico/internal/testutil"
)

func newTestEngine() *PDFCPU {
	return NewPDFCPU(Config{Logger: testutil.DiscardLogger()})
}

// pageWidths reads data back and returns each page's MediaBox width.
func pageWidths(t *testing.T, data []byte) []float64 {
	t.Helper()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	require.NoError(t, err)
	// PageCount is only populated by validation; PageDims needs it.
	require.NoError(t, api.ValidateContext(ctx))
	dims, err := ctx.PageDims()
	require.NoError(t, err)

	widths := make([]float64, len(dims))
	for i, d := range dims {
		widths[i] = d.Width
	}
	return widths
}

func TestPDFCPU_Read(t *testing.T) {
	e := newTestEngine()

	t.Run("valid document", func(t *testing.T) {
		doc, err := e.Read(testutil.PDF(3))
		require.NoError(t, err)
		assert.Equal(t, 3, doc.PageCount())
	})

	t.Run("not a pdf", func(t *testing.T) {
		_, err := e.Read([]byte("hello, this is plain text"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnreadable))
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := e.Read(nil)
		assert.True(t, errors.Is(err, ErrUnreadable))
	})

	t.Run("truncated", func(t *testing.T) {
		data := testutil.PDF(2)
		_, err := e.Read(data[:40])
		assert.Error(t, err)
	})
}

func TestPDFCPU_Extract(t *testing.T) {
	e := newTestEngine()
	doc, err := e.Read(testutil.PDF(3))
	require.NoError(t, err)

	out, err := e.Extract(doc, []int{2})
	require.NoError(t, err)
	assert.Equal(t, []float64{testutil.PageWidth(2)}, pageWidths(t, out))

	// the same document can be copied from repeatedly (split does this)
	out, err = e.Extract(doc, []int{1, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{testutil.PageWidth(1), testutil.PageWidth(3)}, pageWidths(t, out))
}

func TestPDFCPU_Merge(t *testing.T) {
	e := newTestEngine()
	a, err := e.Read(testutil.PDF(2))
	require.NoError(t, err)
	b, err := e.Read(testutil.PDF(3))
	require.NoError(t, err)

	out, err := e.Merge([]Document{a, b})
	require.NoError(t, err)

	merged, err := e.Read(out)
	require.NoError(t, err)
	assert.Equal(t, 5, merged.PageCount())
	assert.Equal(t, []float64{
		testutil.PageWidth(1), testutil.PageWidth(2),
		testutil.PageWidth(1), testutil.PageWidth(2), testutil.PageWidth(3),
	}, pageWidths(t, out))
}

func TestPDFCPU_Compress(t *testing.T) {
	e := newTestEngine()
	doc, err := e.Read(testutil.PDF(4))
	require.NoError(t, err)

	out, err := e.Compress(doc)
	require.NoError(t, err)
	assert.Equal(t, []float64{
		testutil.PageWidth(1), testutil.PageWidth(2), testutil.PageWidth(3), testutil.PageWidth(4),
	}, pageWidths(t, out))
}

func TestPDFCPU_Rotate(t *testing.T) {
	e := newTestEngine()
	doc, err := e.Read(testutil.PDF(2))
	require.NoError(t, err)

	out, err := e.Rotate(doc, 90)
	require.NoError(t, err)

	rotated, err := e.Read(out)
	require.NoError(t, err)
	assert.Equal(t, 2, rotated.PageCount())
	assert.NotEqual(t, testutil.PDF(2), out)
}

func TestPDFCPU_ForeignDocument(t *testing.T) {
	e := newTestEngine()
	_, err := e.Extract(fakeDoc{}, []int{1})
	assert.ErrorIs(t, err, ErrForeignDocument)
}

func TestPDFCPU_RasterizeWithoutRasterizer(t *testing.T) {
	e := newTestEngine()
	doc, err := e.Read(testutil.PDF(1))
	require.NoError(t, err)

	_, err = e.Rasterize(context.Background(), doc, 1)
	assert.Error(t, err)
}

type fakeDoc struct{}

func (fakeDoc) PageCount() int { return 1 }
