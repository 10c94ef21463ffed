package markdown

import (
	"strings"
	"testing"
)

func TestRenderKeepsFieldOrder(t *testing.T) {
	t.Parallel()
	out, err := Render([]Field{{Key: "id", Value: "sess-1"}, {Key: "state", Value: "completed"}, {Key: "count", Value: 3}}, "# body\n")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "---\nid: sess-1\nstate: completed\ncount: 3\n---\n\n# body\n"
	if out != want {
		t.Fatalf("unexpected render:\n%q\nwant\n%q", out, want)
	}
}

func TestSplitRoundTripAndCRLF(t *testing.T) {
	t.Parallel()
	meta, body, err := Split(strings.ReplaceAll("---\nid: sess-1\ncount: 3\n---\n\nhello\n", "\n", "\r\n"))
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if meta["id"] != "sess-1" || meta["count"] != 3 {
		t.Fatalf("unexpected meta %#v", meta)
	}
	if body != "\nhello\n" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestSplitWithoutFrontmatter(t *testing.T) {
	t.Parallel()
	meta, body, err := Split("plain note")
	if err != nil || len(meta) != 0 || body != "plain note" {
		t.Fatalf("meta=%v body=%q err=%v", meta, body, err)
	}
	if _, _, err := Split("---\nid: x\n"); err == nil {
		t.Fatalf("expected missing separator error")
	}
}
