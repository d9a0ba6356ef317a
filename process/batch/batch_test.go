package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"facturaocr/pkg/pipeline"
)

type fakeProcessor struct {
	mu    sync.Mutex
	seen  []string
	pages map[string]int
	fail  map[string]bool
}

func (f *fakeProcessor) ProcessFile(ctx context.Context, path string) ([]*pipeline.Page, error) {
	name := filepath.Base(path)
	f.mu.Lock()
	f.seen = append(f.seen, name)
	f.mu.Unlock()
	if f.fail[name] {
		return nil, errors.New("bad scan")
	}
	n := f.pages[name]
	if n == 0 {
		n = 1
	}
	var out []*pipeline.Page
	for i := 0; i < n; i++ {
		p := &pipeline.Page{Index: i, Report: "report " + name}
		if n > 1 {
			p.Suffix = "_pag_" + string(rune('1'+i))
		}
		out = append(out, p)
	}
	return out, nil
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("scan"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestListInputFilesSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b.pdf", "a.png", "notes.txt", ".hidden.jpg", "c.HEIC"} {
		touch(t, dir, n)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755); err != nil {
		t.Fatal(err)
	}
	got, err := listInputFiles(dir)
	if err != nil {
		t.Fatalf("listInputFiles: %v", err)
	}
	want := []string{"a.png", "b.pdf", "c.HEIC"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestRunWritesReports(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	touch(t, in, "factura.jpg")
	touch(t, in, "lote.pdf")
	touch(t, in, "roto.png")
	proc := &fakeProcessor{
		pages: map[string]int{"lote.pdf": 2},
		fail:  map[string]bool{"roto.png": true},
	}
	sum, err := New(proc, Config{InputDir: in, OutputDir: out, Workers: 2}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Processed != 2 || sum.Failed != 1 || sum.Reports != 3 {
		t.Fatalf("summary = %+v", sum)
	}
	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	want := "factura.txt,lote_pag_1.txt,lote_pag_2.txt"
	if strings.Join(names, ",") != want {
		t.Fatalf("reports = %v, want %s", names, want)
	}
	b, err := os.ReadFile(filepath.Join(out, "factura.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "report factura.jpg" {
		t.Fatalf("report content = %q", b)
	}
}

func TestRunMovesProcessed(t *testing.T) {
	in, out, done := t.TempDir(), t.TempDir(), filepath.Join(t.TempDir(), "hechos")
	touch(t, in, "ok.png")
	touch(t, in, "bad.png")
	proc := &fakeProcessor{fail: map[string]bool{"bad.png": true}}
	if _, err := New(proc, Config{InputDir: in, OutputDir: out, ProcessedDir: done, Workers: 1}).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(done, "ok.png")); err != nil {
		t.Fatalf("ok.png not moved: %v", err)
	}
	if _, err := os.Stat(filepath.Join(in, "ok.png")); !os.IsNotExist(err) {
		t.Fatalf("ok.png still in input dir")
	}
	if _, err := os.Stat(filepath.Join(in, "bad.png")); err != nil {
		t.Fatalf("failed file should stay in input: %v", err)
	}
}

func TestRunMissingInputDir(t *testing.T) {
	_, err := New(&fakeProcessor{}, Config{InputDir: filepath.Join(t.TempDir(), "nope")}).Run(context.Background())
	if err == nil {
		t.Fatalf("expected error for missing input dir")
	}
}

func TestRunCanceled(t *testing.T) {
	in := t.TempDir()
	touch(t, in, "a.png")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	proc := &fakeProcessor{}
	if _, err := New(proc, Config{InputDir: in}).Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(proc.seen) != 0 {
		t.Fatalf("processed %v after cancel", proc.seen)
	}
}

func TestCopyRemove(t *testing.T) {
	src := touch(t, t.TempDir(), "a.pdf")
	dst := filepath.Join(t.TempDir(), "a.pdf")
	if err := copyRemove(src, dst); err != nil {
		t.Fatalf("copyRemove: %v", err)
	}
	if b, err := os.ReadFile(dst); err != nil || string(b) != "scan" {
		t.Fatalf("dst = %q, %v", b, err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("src not removed")
	}
}

func TestWatchPicksUpNewFiles(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	r := New(&fakeProcessor{}, Config{InputDir: in, OutputDir: out, Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- r.Watch(ctx) }()

	// give the watcher time to register
	time.Sleep(200 * time.Millisecond)
	touch(t, in, "nueva.jpg")
	touch(t, in, "ignorar.txt")

	report := filepath.Join(out, "nueva.txt")
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(report); err == nil {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("report for new file never appeared")
		}
		time.Sleep(50 * time.Millisecond)
	}
	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Watch: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Watch did not stop after cancel")
	}
	if _, err := os.Stat(filepath.Join(out, "ignorar.txt")); !os.IsNotExist(err) {
		t.Fatalf("unsupported file was processed")
	}
}
