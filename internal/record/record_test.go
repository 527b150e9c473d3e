package record

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/valpere/tear/internal"
)

func TestFromResult(t *testing.T) {
	res := &internal.Result{
		Source:          "我们走吧。",
		Hypothesis:      "We walk.",
		Correction:      "Let's go.",
		NeedsCorrection: true,
		Report:          `{"major": "mistranslation"}`,
	}

	r := FromResult(7, "Let's go!", res)

	want := Record{ID: 7, Src: "我们走吧。", Ref: "Let's go!", Hyp: "We walk.", Cor: "Let's go.", NeedCorrection: 1, MQMInfo: `{"major": "mistranslation"}`}
	if r != want {
		t.Errorf("expected %+v, got %+v", want, r)
	}
}

func TestFile_AppendAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result", "gpt-4_zh-en_few-shot_few-shot_beta.json")

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if f.Len() != 0 {
		t.Errorf("expected empty file, got %d records", f.Len())
	}

	if err := f.Append(Record{ID: 0, Src: "你好", Hyp: "Hello", Cor: "Hello"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := f.Append(Record{ID: 2, Src: "谢谢", Hyp: "Thanks", Cor: "Thank you", NeedCorrection: 1}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := f.Append(Record{ID: 2}); err == nil {
		t.Error("expected error for duplicate id")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{`"need correction": 1`, "你好", "\n    {\n        \"id\": 0,"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	ids := reopened.IDs()
	if len(ids) != 2 || ids[0] != 0 || ids[1] != 2 {
		t.Errorf("unexpected ids %v", ids)
	}
	if !reopened.Has(2) || reopened.Has(1) {
		t.Error("Has does not match stored ids")
	}
}

func TestOpen_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if f.Len() != 0 {
		t.Error("expected no records")
	}
}

func TestOpen_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := os.WriteFile(path, []byte(`{"id": 1}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(path); err == nil {
		t.Error("expected error for a non-array file")
	}
}

func TestFile_ConcurrentAppend(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "out.json"))
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := f.Append(Record{ID: id}); err != nil {
				t.Errorf("Append(%d): %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	reopened, err := Open(f.Path())
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Len() != 20 {
		t.Errorf("expected 20 records, got %d", reopened.Len())
	}
}
