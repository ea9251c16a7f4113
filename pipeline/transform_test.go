package pipeline

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/kbukum/pullstream/errors"
	"github.com/kbukum/pullstream/loop"
)

func TestMap_Upper(t *testing.T) {
	l := loop.New()
	up := Map(l, NewSource(l, []byte("abcdEFGh\n")), Upper)

	want := []Chunk{
		{Data: []byte("ABCD")},
		{Data: []byte("EFGH")},
		{Data: []byte("\n"), End: true},
	}
	for i, w := range want {
		got, err := pull(t, l, up, 4)
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if !bytes.Equal(got.Data, w.Data) || got.End != w.End {
			t.Errorf("read %d: got (%q, %v), want (%q, %v)", i, got.Data, got.End, w.Data, w.End)
		}
	}
	if up.InFlight() {
		t.Error("in-flight slot should be clear after settlement")
	}
}

func TestMap_UpstreamErrorPassesThrough(t *testing.T) {
	l := loop.New()
	cause := errors.New(errors.ErrCodeInternal, "disk on fire")
	called := false
	tr := Map(l, &failing{sched: l, err: cause}, func(b []byte) ([]byte, error) {
		called = true
		return b, nil
	})

	_, err := pull(t, l, tr, 4)
	if err != error(cause) {
		t.Fatalf("expected the upstream error unchanged, got %v", err)
	}
	if called {
		t.Error("transform function should not run on upstream failure")
	}
	if tr.InFlight() {
		t.Error("in-flight slot should be clear after rejection")
	}
}

func TestMap_ReadPastEndPassesThrough(t *testing.T) {
	l := loop.New()
	tr := Map(l, NewSource(l, []byte("ab")), Identity)
	if _, err := pull(t, l, tr, 4); err != nil {
		t.Fatal(err)
	}
	if _, err := pull(t, l, tr, 4); !errors.HasCode(err, errors.ErrCodeReadPastEnd) {
		t.Errorf("expected READ_PAST_END, got %v", err)
	}
}

func TestMap_FunctionError(t *testing.T) {
	l := loop.New()
	cause := fmt.Errorf("bad byte")
	tr := Map(l, NewSource(l, []byte("abcd")), func([]byte) ([]byte, error) {
		return nil, cause
	}, WithName("strict"))

	_, err := pull(t, l, tr, 4)
	if err != cause {
		t.Fatalf("expected the function's error unchanged, got %v", err)
	}
	if tr.InFlight() {
		t.Error("in-flight slot should be clear after a failure")
	}
}

func TestMap_FunctionPanic(t *testing.T) {
	l := loop.New()
	tr := Map(l, NewSource(l, []byte("abcd")), func([]byte) ([]byte, error) {
		panic("boom")
	}, WithName("fragile"))

	_, err := pull(t, l, tr, 4)
	if !errors.HasCode(err, errors.ErrCodeTransformFailed) {
		t.Fatalf("expected TRANSFORM_FAILED, got %v", err)
	}
	appErr, _ := errors.AsAppError(err)
	if appErr.Details["stage"] != "fragile" {
		t.Errorf("stage detail = %v, want fragile", appErr.Details["stage"])
	}
	if !errors.HasCode(err, errors.ErrCodeInternal) {
		t.Errorf("expected an INTERNAL_ERROR cause, got %v", err)
	}
	if tr.InFlight() {
		t.Error("in-flight slot should be clear after a panic")
	}
}

func TestMap_OversizedChunk(t *testing.T) {
	l := loop.New()
	tr := Map(l, &fixed{sched: l, chunk: Chunk{Data: []byte("abcdef")}}, Identity)

	_, err := pull(t, l, tr, 4)
	if !errors.HasCode(err, errors.ErrCodeOversizedChunk) {
		t.Fatalf("expected OVERSIZED_CHUNK, got %v", err)
	}
}

func TestMap_OverlappingRead(t *testing.T) {
	l := loop.New()
	src := &recorder{up: NewSource(l, []byte("abcdefgh"))}
	tr := Map(l, src, Upper)

	first := tr.Read(4)
	second := tr.Read(4)
	if err := l.Run(t.Context()); err != nil {
		t.Fatal(err)
	}

	if c, _, err := first.Poll(); err != nil || string(c.Data) != "ABCD" {
		t.Errorf("first read: got (%q, %v)", c.Data, err)
	}
	if _, _, err := second.Poll(); !errors.HasCode(err, errors.ErrCodeOverlappingRead) {
		t.Errorf("expected OVERLAPPING_READ, got %v", err)
	}
	if src.reads != 1 {
		t.Errorf("upstream saw %d reads, want 1", src.reads)
	}
}

func TestMap_InvalidReadSize(t *testing.T) {
	l := loop.New()
	src := &recorder{up: NewSource(l, []byte("abcd"))}
	tr := Map(l, src, Upper)

	if _, err := pull(t, l, tr, -3); !errors.HasCode(err, errors.ErrCodeInvalidReadSize) {
		t.Fatalf("expected INVALID_READ_SIZE, got %v", err)
	}
	if src.reads != 0 {
		t.Error("invalid read should not reach upstream")
	}
}

func TestMap_DefaultReadSize(t *testing.T) {
	l := loop.New()
	tr := Map(l, NewSource(l, []byte("abcdefgh")), Identity)
	got, err := pull(t, l, tr, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Data) != DefaultReadSize {
		t.Errorf("got %d units, want %d", len(got.Data), DefaultReadSize)
	}
}

func TestBuiltinTransforms(t *testing.T) {
	tests := []struct {
		name string
		fn   TransformFunc
		in   string
		want string
	}{
		{"upper", Upper, "abC1\n", "ABC1\n"},
		{"lower", Lower, "AbC1\n", "abc1\n"},
		{"upper leaves non-ascii bytes", Upper, "日本語 ok ɐé", "日本語 OK ɐé"},
		{"lower leaves non-ascii bytes", Lower, "ÉCOLE Ü", "École Ü"},
		{"upper on a split rune", Upper, "\xe6\x97", "\xe6\x97"},
		{"identity", Identity, "aB\n", "aB\n"},
		{"rot13", ROT13, "Hello, World!", "Uryyb, Jbeyq!"},
		{"rot13 empty", ROT13, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := []byte(tt.in)
			got, err := tt.fn(in)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if len(got) != len(in) {
				t.Errorf("output has %d bytes, input %d", len(got), len(in))
			}
			if string(in) != tt.in {
				t.Error("transform modified its input")
			}
		})
	}
}

func TestTransformRegistry(t *testing.T) {
	for _, name := range []string{"upper", "lower", "identity", "rot13"} {
		if _, err := LookupTransform(name); err != nil {
			t.Errorf("LookupTransform(%q): %v", name, err)
		}
	}

	if _, err := LookupTransform("reverse"); !errors.HasCode(err, errors.ErrCodeUnknownTransform) {
		t.Errorf("expected UNKNOWN_TRANSFORM, got %v", err)
	}

	RegisterTransform("test-double", func(b []byte) ([]byte, error) {
		return append(bytes.Clone(b), b...), nil
	})
	fn, err := LookupTransform("test-double")
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := fn([]byte("ab")); string(got) != "abab" {
		t.Errorf("got %q, want abab", got)
	}

	names := TransformNames()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("names not sorted: %v", names)
		}
	}
}

func TestChain(t *testing.T) {
	l := loop.New()
	stage := Chain(l, NewSource(l, []byte("Hello")), []TransformFunc{Upper, ROT13, ROT13, Lower})

	got, err := pull(t, l, stage, 8)
	if err != nil {
		t.Fatal(err)
	}
	if string(got.Data) != "hello" || !got.End {
		t.Errorf("got (%q, %v), want (hello, true)", got.Data, got.End)
	}
}

func TestChainNamed(t *testing.T) {
	l := loop.New()
	src := NewSource(l, []byte("abc"))

	stage, err := ChainNamed(l, src, []string{"upper", "rot13"})
	if err != nil {
		t.Fatal(err)
	}
	got, err := pull(t, l, stage, 4)
	if err != nil {
		t.Fatal(err)
	}
	if string(got.Data) != "NOP" {
		t.Errorf("got %q, want NOP", got.Data)
	}

	if _, err := ChainNamed(l, src, []string{"upper", "nope"}); !errors.HasCode(err, errors.ErrCodeUnknownTransform) {
		t.Errorf("expected UNKNOWN_TRANSFORM, got %v", err)
	}
}

func TestChain_Empty(t *testing.T) {
	l := loop.New()
	src := NewSource(l, []byte("abc"))
	if Chain(l, src, nil) != Stage(src) {
		t.Error("empty chain should return upstream")
	}
}
