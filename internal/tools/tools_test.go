package tools

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallsified/pdf-o-matico/internal/pdf"
)

type fakeDoc struct{ pages int }

func (d fakeDoc) PageCount() int { return d.pages }

// fakeEngine records calls and returns short descriptive payloads.
type fakeEngine struct {
	mu      sync.Mutex
	calls   []string
	extract [][]int
	fail    error
}

func (e *fakeEngine) record(call string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, call)
	return e.fail
}

func (e *fakeEngine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

func (e *fakeEngine) Read(data []byte) (pdf.Document, error) {
	if err := e.record("read"); err != nil {
		return nil, err
	}
	return fakeDoc{pages: len(data)}, nil
}

func (e *fakeEngine) Extract(doc pdf.Document, pages []int) ([]byte, error) {
	if err := e.record("extract"); err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.extract = append(e.extract, pages)
	e.mu.Unlock()
	return []byte(fmt.Sprint(pages)), nil
}

func (e *fakeEngine) Merge(docs []pdf.Document) ([]byte, error) {
	if err := e.record("merge"); err != nil {
		return nil, err
	}
	total := 0
	for _, d := range docs {
		total += d.PageCount()
	}
	return []byte(fmt.Sprintf("merged:%d", total)), nil
}

func (e *fakeEngine) Compress(doc pdf.Document) ([]byte, error) {
	if err := e.record("compress"); err != nil {
		return nil, err
	}
	return []byte("compressed"), nil
}

func (e *fakeEngine) Rotate(doc pdf.Document, degrees int) ([]byte, error) {
	if err := e.record("rotate"); err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("rotated:%d", degrees)), nil
}

func (e *fakeEngine) Rasterize(ctx context.Context, doc pdf.Document, page int) ([]byte, error) {
	if err := e.record("rasterize"); err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("png:%d", page)), nil
}

func input(name string, pages int) []Input {
	return []Input{{Name: name, Doc: fakeDoc{pages: pages}}}
}

func zipEntries(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		rc.Close()
		require.NoError(t, err)
		out[f.Name] = buf.String()
	}
	return out
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(Options{})

	assert.Equal(t, []string{"compress", "extract", "merge", "rasterize", "rotate", "split"}, r.Names())

	infos := r.Infos()
	require.Len(t, infos, 6)
	assert.Equal(t, "split", infos[0].Name)
	for _, info := range infos {
		assert.Equal(t, info.Name == "merge", info.Multi, info.Name)
		assert.NotEmpty(t, info.Title)
		assert.NotEmpty(t, info.Route)
	}

	_, err := r.Get("shred")
	assert.Error(t, err)

	raster, err := r.Get("rasterize")
	require.NoError(t, err)
	assert.Greater(t, raster.(*Rasterize).Workers, 0)
}

func TestCheck(t *testing.T) {
	tests := []struct {
		tool   Tool
		params Params
		docs   int
		want   error
	}{
		{&Split{}, Params{Ranges: "1-2"}, 0, ErrNoFileSelected},
		{&Split{}, Params{}, 1, ErrEmptySelection},
		{&Split{}, Params{Ranges: "   "}, 1, ErrEmptySelection},
		{&Split{}, Params{Ranges: "1"}, 1, nil},
		{&Extract{}, Params{}, 1, ErrEmptySelection},
		{&Extract{}, Params{Ranges: "2"}, 1, nil},
		{&Compress{}, Params{}, 0, ErrNoFileSelected},
		{&Compress{}, Params{}, 1, nil},
		{&Rasterize{}, Params{}, 0, ErrNoFileSelected},
		{&Rotate{}, Params{Angle: 45}, 1, ErrInvalidRotation},
		{&Rotate{}, Params{}, 1, nil},
		{&Rotate{}, Params{Angle: 360}, 1, ErrInvalidRotation},
		{&Rotate{}, Params{Angle: 270}, 0, ErrNoFileSelected},
		{&Rotate{}, Params{Angle: 180}, 1, nil},
		{&Merge{}, Params{}, 0, ErrInsufficientFiles},
		{&Merge{}, Params{}, 1, ErrInsufficientFiles},
		{&Merge{}, Params{}, 2, nil},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("%s/%+v/%d", Name(tt.tool), tt.params, tt.docs)
		t.Run(name, func(t *testing.T) {
			err := tt.tool.Check(tt.params, tt.docs)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestSplit(t *testing.T) {
	ctx := context.Background()

	t.Run("one entry per group", func(t *testing.T) {
		e := &fakeEngine{}
		art, err := (&Split{}).Run(ctx, e, input("report.pdf", 3), Params{Ranges: "1,2"})
		require.NoError(t, err)

		assert.Equal(t, "report_split.zip", art.Name)
		assert.Equal(t, ContentTypeZip, art.ContentType)
		assert.Equal(t, map[string]string{
			"report_part_1.pdf": "[1]",
			"report_part_2.pdf": "[2]",
		}, zipEntries(t, art.Data))
	})

	t.Run("ranges within a group", func(t *testing.T) {
		e := &fakeEngine{}
		art, err := (&Split{}).Run(ctx, e, input("a.pdf", 10), Params{Ranges: "1-3, 4-10"})
		require.NoError(t, err)
		assert.Equal(t, [][]int{{1, 2, 3}, {4, 5, 6, 7, 8, 9, 10}}, e.extract)
		assert.Len(t, zipEntries(t, art.Data), 2)
	})

	t.Run("bad group fails before any extraction", func(t *testing.T) {
		e := &fakeEngine{}
		_, err := (&Split{}).Run(ctx, e, input("a.pdf", 3), Params{Ranges: "1,5-2"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidRange))
		assert.Equal(t, "Invalid page range: 5-2", err.Error())
		assert.Zero(t, e.Calls())
	})

	t.Run("engine failure", func(t *testing.T) {
		e := &fakeEngine{fail: errors.New("boom")}
		_, err := (&Split{}).Run(ctx, e, input("a.pdf", 3), Params{Ranges: "1"})
		assert.True(t, errors.Is(err, ErrProcessing))
		assert.Contains(t, err.Error(), "An error occurred during splitting")
	})
}

func TestExtract(t *testing.T) {
	ctx := context.Background()

	t.Run("selection is sorted and deduplicated", func(t *testing.T) {
		e := &fakeEngine{}
		art, err := (&Extract{}).Run(ctx, e, input("doc.pdf", 6), Params{Ranges: "5,1-2,2"})
		require.NoError(t, err)
		assert.Equal(t, "doc_extracted.pdf", art.Name)
		assert.Equal(t, ContentTypePDF, art.ContentType)
		assert.Equal(t, [][]int{{1, 2, 5}}, e.extract)
	})

	t.Run("out of bounds", func(t *testing.T) {
		e := &fakeEngine{}
		_, err := (&Extract{}).Run(ctx, e, input("doc.pdf", 3), Params{Ranges: "4"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidRange))
		assert.Contains(t, err.Error(), "Invalid page selection: '4'")
		assert.Zero(t, e.Calls())
	})
}

func TestMerge(t *testing.T) {
	e := &fakeEngine{}
	inputs := []Input{
		{Name: "a.pdf", Doc: fakeDoc{pages: 2}},
		{Name: "b.pdf", Doc: fakeDoc{pages: 3}},
	}
	art, err := (&Merge{}).Run(context.Background(), e, inputs, Params{})
	require.NoError(t, err)
	assert.Equal(t, MergedName, art.Name)
	assert.Equal(t, "merged:5", string(art.Data))
}

func TestCompress(t *testing.T) {
	art, err := (&Compress{}).Run(context.Background(), &fakeEngine{}, input("big.file.pdf", 1), Params{})
	require.NoError(t, err)
	assert.Equal(t, "big.file_compressed.pdf", art.Name)
}

func TestRotate(t *testing.T) {
	e := &fakeEngine{}
	tool := &Rotate{}

	// invalid angle is rejected without engine work
	require.Error(t, tool.Check(Params{Angle: 45}, 1))
	assert.Zero(t, e.Calls())

	art, err := tool.Run(context.Background(), e, input("scan.pdf", 2), Params{Angle: 90})
	require.NoError(t, err)
	assert.Equal(t, "scan_rotated.pdf", art.Name)
	assert.Equal(t, "rotated:90", string(art.Data))

	// an omitted angle rotates by the default
	require.NoError(t, tool.Check(Params{}, 1))
	art, err = tool.Run(context.Background(), e, input("scan.pdf", 2), Params{})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("rotated:%d", DefaultAngle), string(art.Data))
}

func TestRasterize(t *testing.T) {
	ctx := context.Background()

	t.Run("one image per page", func(t *testing.T) {
		e := &fakeEngine{}
		art, err := (&Rasterize{Workers: 2}).Run(ctx, e, input("deck.pdf", 4), Params{})
		require.NoError(t, err)
		assert.Equal(t, "deck_images.zip", art.Name)

		entries := zipEntries(t, art.Data)
		require.Len(t, entries, 4)
		for i := 1; i <= 4; i++ {
			assert.Equal(t, fmt.Sprintf("png:%d", i), entries[fmt.Sprintf("deck_page_%d.png", i)])
		}
	})

	t.Run("entries are in page order", func(t *testing.T) {
		art, err := (&Rasterize{Workers: 3}).Run(ctx, &fakeEngine{}, input("d.pdf", 5), Params{})
		require.NoError(t, err)
		zr, err := zip.NewReader(bytes.NewReader(art.Data), int64(len(art.Data)))
		require.NoError(t, err)
		for i, f := range zr.File {
			assert.Equal(t, fmt.Sprintf("d_page_%d.png", i+1), f.Name)
		}
	})

	t.Run("render failure", func(t *testing.T) {
		e := &fakeEngine{fail: errors.New("pdftoppm exited 1")}
		_, err := (&Rasterize{}).Run(ctx, e, input("d.pdf", 2), Params{})
		assert.True(t, errors.Is(err, ErrProcessing))
	})
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "", KindOf(nil))
	assert.Equal(t, "invalid_rotation", KindOf(Errorf(ErrInvalidRotation, "x")))
	assert.Equal(t, "invalid_range", KindOf(fmt.Errorf("wrapped: %w", ErrInvalidRange)))
	assert.Equal(t, "processing_error", KindOf(errors.New("other")))
	assert.Equal(t, "processing_error", KindOf(Wrap(ErrProcessing, ErrInvalidRange, "x")))
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "report", BaseName("report.pdf"))
	assert.Equal(t, "report", BaseName("/tmp/x/report.pdf"))
	assert.Equal(t, "noext", BaseName("noext"))
}
