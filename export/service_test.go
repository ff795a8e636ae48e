package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ByLCY/eventpass/asset"
	"github.com/ByLCY/eventpass/config"
	"github.com/ByLCY/eventpass/fonts"
	"github.com/ByLCY/eventpass/layout"
	"github.com/ByLCY/eventpass/registration"
	canvasrenderer "github.com/ByLCY/eventpass/renderer/canvas"
	"github.com/ByLCY/eventpass/storage"
)

type fakeRepo struct {
	records []registration.Record
	err     error
}

func (f *fakeRepo) Create(_ context.Context, rec *registration.Record) error {
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeRepo) ListAll(context.Context) ([]registration.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

// recordingRenderer 记录最后一次渲染的布局，不产生真实 PDF。
type recordingRenderer struct {
	last      *layout.Result
	renderErr error
}

func (r *recordingRenderer) Render(result *layout.Result) ([]byte, error) {
	r.last = result
	if r.renderErr != nil {
		return nil, r.renderErr
	}
	return []byte("%PDF-fake"), nil
}

func (r *recordingRenderer) LayoutLines(content string, width float64, _ layout.FontResource, fontSize, lineHeight float64, _ string) ([]layout.TextLine, error) {
	return []layout.TextLine{{Content: content, Width: width, Height: fontSize}}, nil
}

func sampleRecords(n int) []registration.Record {
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	out := make([]registration.Record, n)
	for i := range out {
		out[i] = registration.Record{
			ID:        string(rune('a' + i%26)),
			Name:      "Participant",
			Cluster:   "Cluster",
			Unit:      "Unit",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
	}
	return out
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Cards")
	require.NoError(t, err)
	assert.Equal(t, KindCards, k)
	assert.Equal(t, "idcards.pdf", k.Filename())

	k, err = ParseKind("registrations")
	require.NoError(t, err)
	assert.Equal(t, KindTable, k)
	assert.Equal(t, "registrations.pdf", k.Filename())

	_, err = ParseKind("badges")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestExport_SnapshotFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	core, logs := observer.New(zapcore.ErrorLevel)
	r := &recordingRenderer{}
	svc := NewService(&fakeRepo{err: errors.New("db down")}, nil, r, zap.New(core), WithMetrics(m))

	data, err := svc.RegistrationTable(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSnapshot)
	assert.Nil(t, data)
	assert.Nil(t, r.last, "renderer must not run after snapshot failure")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exports.WithLabelValues("table", "snapshot_error")))
	assert.Equal(t, 1, logs.FilterMessage("export failed").Len())
}

func TestExport_RenderFailure(t *testing.T) {
	r := &recordingRenderer{renderErr: errors.New("disk full")}
	svc := NewService(&fakeRepo{records: sampleRecords(2)}, nil, r, nil)

	data, err := svc.IDCards(context.Background())
	assert.ErrorIs(t, err, ErrRender)
	assert.Nil(t, data)
}

func TestExport_TitleFromEvent(t *testing.T) {
	r := &recordingRenderer{}
	svc := NewService(&fakeRepo{}, nil, r, nil, WithEvent(config.EventConfig{
		Organization: "Org",
		Name:         "Summit 2026",
		Section:      "Delegates",
	}))

	_, err := svc.RegistrationTable(context.Background())
	require.NoError(t, err)
	require.NotNil(t, r.last)
	require.Len(t, r.last.Pages, 1)
	assert.Equal(t, "Summit 2026 - Registrations", r.last.Meta.Title)

	var contents []string
	for _, tb := range r.last.Pages[0].Texts {
		contents = append(contents, tb.Content)
	}
	assert.Contains(t, contents, "Org")
	assert.Contains(t, contents, "Delegates")
}

func TestExport_CardsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	r := &recordingRenderer{}
	svc := NewService(&fakeRepo{records: sampleRecords(26)}, nil, r, nil, WithMetrics(m))

	_, err := svc.IDCards(context.Background())
	require.NoError(t, err)
	require.Len(t, r.last.Pages, 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exports.WithLabelValues("cards", "ok")))
	assert.Equal(t, 26.0, testutil.ToFloat64(m.Records.WithLabelValues("cards")))
}

// countingProvider 统计底层解析次数，用来验证单次导出内的缓存。
type countingProvider struct {
	calls map[string]int
}

func (c *countingProvider) Resolve(_ context.Context, path string) asset.Lookup {
	c.calls[path]++
	return asset.Lookup{Status: asset.NotFound, Path: path}
}

func TestExport_MemoPerExport(t *testing.T) {
	records := sampleRecords(3)
	for i := range records {
		records[i].PhotoPath = "photos/shared.png"
	}
	p := &countingProvider{calls: map[string]int{}}
	svc := NewService(&fakeRepo{records: records}, p, &recordingRenderer{}, nil)

	_, err := svc.RegistrationTable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, p.calls["photos/shared.png"])

	_, err = svc.RegistrationTable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, p.calls["photos/shared.png"], "cache must not outlive a single export")
}

func writePNG(t *testing.T, store storage.Store, key string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, store.Save(context.Background(), key, &buf, "image/png"))
}

func TestExport_EndToEndPDF(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), nil)
	require.NoError(t, err)
	writePNG(t, store, "photos/alice.png")
	require.NoError(t, store.Save(context.Background(), "photos/broken.jpg", bytes.NewReader([]byte("not an image")), "image/jpeg"))

	records := sampleRecords(3)
	records[0].PhotoPath = "photos/alice.png"
	records[0].Designations = []string{"Lead", "Speaker"}
	records[1].PhotoPath = "photos/broken.jpg"
	records[2].PhotoPath = "photos/missing.png"

	svc := NewService(&fakeRepo{records: records}, asset.NewResolver(store, nil), canvasrenderer.NewRenderer(), nil)
	for _, kind := range []Kind{KindTable, KindCards} {
		data, err := svc.Export(context.Background(), kind)
		require.NoError(t, err, kind)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF")), "kind %s should produce a PDF", kind)
	}
}

func TestLayout_ZeroRecords(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil, &recordingRenderer{}, nil)
	for _, kind := range []Kind{KindTable, KindCards} {
		res, err := svc.Layout(context.Background(), kind)
		require.NoError(t, err)
		assert.Len(t, res.Pages, 1)
	}
}

func TestExport_ConfiguredFonts(t *testing.T) {
	dir := t.TempDir()
	bold, err := fonts.Load("go-bold")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Heading.ttf"), bold, 0o644))

	fc := config.FontsConfig{Dir: dir, Bold: "Heading.ttf"}
	r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{BaseDir: fc.Dir})
	svc := NewService(&fakeRepo{records: sampleRecords(2)}, nil, r, nil, WithFonts(fc))

	res, err := svc.Layout(context.Background(), KindTable)
	require.NoError(t, err)
	assert.Equal(t, "Heading.ttf", res.Resources.Fonts[layout.FontBold].Src)
	assert.Equal(t, "embed:go-regular", res.Resources.Fonts[layout.FontBody].Src)

	data, err := svc.Export(context.Background(), KindTable)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}
