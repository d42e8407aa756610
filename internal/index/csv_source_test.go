package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeIndex(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sampleIndex = `url,warc_filename,warc_record_offset,warc_record_length
http://a.example/x.pdf,crawl-data/seg0/file0.warc.gz,100,50
http://b.example/y.pdf,crawl-data/seg0/file1.warc.gz,200,60
url,warc_filename,warc_record_offset,length
http://c.example/z.pdf,crawl-data/seg1/file2.warc.gz,300,70
`

func TestCSVSourceYieldsRowsWithPositions(t *testing.T) {
	src, err := OpenCSV(writeIndex(t, sampleIndex))
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}
	defer src.Close()

	ctx := context.Background()
	wantURLs := []string{"http://a.example/x.pdf", "http://b.example/y.pdf", "http://c.example/z.pdf"}
	for i, want := range wantURLs {
		cand, pos, ok, err := src.Next(ctx)
		if err != nil || !ok {
			t.Fatalf("Next %d: ok=%v err=%v", i, ok, err)
		}
		if pos != uint64(i) {
			t.Fatalf("Next %d: pos=%d", i, pos)
		}
		if cand.SourceURL != want {
			t.Fatalf("Next %d: url=%s want %s", i, cand.SourceURL, want)
		}
	}
	if _, _, ok, err := src.Next(ctx); ok || err != nil {
		t.Fatalf("expected exhaustion, ok=%v err=%v", ok, err)
	}
}

func TestCSVSourceParsesDescriptor(t *testing.T) {
	src, err := OpenCSV(writeIndex(t, sampleIndex))
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}
	defer src.Close()

	cand, _, _, err := src.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if cand.ArchiveFile != "crawl-data/seg0/file0.warc.gz" || cand.ByteOffset != 100 || cand.ByteLength != 50 {
		t.Fatalf("unexpected candidate: %+v", cand)
	}
}

func TestCSVSourceSkipResumesAtCursor(t *testing.T) {
	src, err := OpenCSV(writeIndex(t, sampleIndex))
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}
	defer src.Close()

	if err := src.Skip(2); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	cand, pos, ok, err := src.Next(context.Background())
	if err != nil || !ok {
		t.Fatalf("Next after Skip: ok=%v err=%v", ok, err)
	}
	if pos != 2 || cand.SourceURL != "http://c.example/z.pdf" {
		t.Fatalf("pos=%d url=%s", pos, cand.SourceURL)
	}
}

func TestCSVSourceSkipPastEnd(t *testing.T) {
	src, err := OpenCSV(writeIndex(t, sampleIndex))
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}
	defer src.Close()

	if err := src.Skip(10); err == nil {
		t.Fatal("expected error seeking past end")
	}
}

func TestCSVSourceMalformedRowsSkipped(t *testing.T) {
	content := "url,warc_filename,warc_record_offset,warc_record_length\n" +
		"http://a.example/x.pdf,f.warc.gz,notanumber,50\n" +
		"http://b.example/short.pdf,f.warc.gz\n" +
		"http://c.example/ok.pdf,f.warc.gz,10,20\n"
	src, err := OpenCSV(writeIndex(t, content))
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}
	defer src.Close()

	cand, pos, ok, err := src.Next(context.Background())
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	if pos != 0 || cand.SourceURL != "http://c.example/ok.pdf" {
		t.Fatalf("pos=%d url=%s", pos, cand.SourceURL)
	}
}
