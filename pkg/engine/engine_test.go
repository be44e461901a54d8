package engine

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chazu/kerf/pkg/scene"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func partNames(s *scene.Scene) []string {
	names := make([]string, 0, s.PartCount())
	for _, p := range s.Parts {
		names = append(names, p.Name)
	}
	return names
}

func TestEvaluateScenes(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{name: "empty", source: "", want: []string{}},
		{name: "blank lines", source: "  \n\t\n", want: []string{}},
		{name: "comments only", source: ";; shop notes\n; nothing to cut yet\n", want: []string{}},
		{name: "arithmetic only", source: "(def w 40) (* w 2)", want: []string{}},
		{
			name:   "definitions feed a part",
			source: "(def w 40)\n(defpart \"shelf\" (box :size (vec3 w 20 2)))",
			want:   []string{"shelf"},
		},
		{
			name: "parts keep script order",
			source: `
(defpart "top" (box :size (vec3 600 300 18)))
(defpart "side" (box :size (vec3 300 400 18)))
(defpart "back" (box :size (vec3 600 400 6)))`,
			want: []string{"top", "side", "back"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, evalErrs, err := NewEngine().Evaluate(tt.source)
			if err != nil {
				t.Fatalf("fatal error: %v", err)
			}
			if len(evalErrs) > 0 {
				t.Fatalf("eval errors: %v", evalErrs)
			}
			if s == nil {
				t.Fatal("expected a scene")
			}
			got := partNames(s)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("parts = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateShelfDimensions(t *testing.T) {
	s := mustEvaluate(t, `
(def width 600)
(def thick 18)
(defpart "shelf" (box :size (vec3 width 250 thick))
  (cut "dado" (box :size (vec3 width 6 9) :at (vec3 0 120 (- thick 9)))))
`)
	p := s.Lookup("shelf")
	if p == nil {
		t.Fatal("expected part named 'shelf'")
	}
	if p.Body.Size != (scene.Vec3{X: 600, Y: 250, Z: 18}) {
		t.Errorf("body size = %v", p.Body.Size)
	}
	dado := p.Ops[0]
	if dado.Tool.At != (scene.Vec3{Y: 120, Z: 9}) {
		t.Errorf("dado at = %v", dado.Tool.At)
	}
	if got := s.Get(p.ID); got != p {
		t.Error("scene index does not resolve the part id")
	}
}

func TestEvaluateFreshSandbox(t *testing.T) {
	eng := NewEngine()

	mustScene := func(source string) *scene.Scene {
		t.Helper()
		s, evalErrs, err := eng.Evaluate(source)
		if err != nil || len(evalErrs) > 0 {
			t.Fatalf("evaluate %q: %v %v", source, err, evalErrs)
		}
		return s
	}

	first := mustScene(`(def w 40) (defpart "a" (box :size (vec3 w 10 10)))`)

	// Definitions do not leak into the next call.
	s, evalErrs, err := eng.Evaluate(`(defpart "b" (box :size (vec3 w 10 10)))`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if s != nil || len(evalErrs) == 0 {
		t.Fatalf("expected an eval error for w, got scene=%v errs=%v", s, evalErrs)
	}

	// Parts do not leak either: redefining "a" is not a duplicate.
	again := mustScene(`(defpart "a" (box :size (vec3 5 5 5)))`)
	if again == first {
		t.Fatal("evaluations share a scene")
	}
	if again.PartCount() != 1 || again.Lookup("a").Body.Size.X != 5 {
		t.Errorf("second scene = %v", partNames(again))
	}
	if first.Lookup("a").Body.Size.X != 40 {
		t.Error("earlier scene changed after a later evaluation")
	}
}

func TestEvaluateReportsErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		substr string
	}{
		{name: "unclosed defpart", source: "(defpart \"p\" (box :size (vec3 1 1 1))\n", substr: ""},
		{name: "undefined dimension", source: `(defpart "p" (box :size (vec3 depth 1 1)))`, substr: ""},
		{name: "short vector on a later line", source: "(def w 10)\n\n(defpart \"p\" (box :size (vec3 w 1)))", substr: "exactly 3 arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, evalErrs, err := NewEngine().Evaluate(tt.source)
			if err != nil {
				t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
			}
			if s != nil {
				t.Fatal("a failed script must not yield a partial scene")
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected eval errors")
			}
			e := evalErrs[0]
			if e.Message == "" {
				t.Error("eval error message should not be empty")
			}
			if !strings.Contains(e.Message, tt.substr) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.substr)
			}
			if e.Line > 0 && !strings.HasPrefix(e.Error(), "line ") {
				t.Errorf("Error() = %q, want line prefix", e.Error())
			}
		})
	}
}

func TestEvalErrorString(t *testing.T) {
	tests := []struct {
		err  EvalError
		want string
	}{
		{err: EvalError{Line: 3, Message: "box requires :size"}, want: "line 3: box requires :size"},
		{err: EvalError{Message: "unexpected end of input"}, want: "unexpected end of input"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

// oneBoard returns a scene holding a single part.
func oneBoard(t *testing.T) *scene.Scene {
	t.Helper()
	s := scene.New()
	if err := s.AddPart(&scene.PartSpec{Name: "board", Body: scene.BoxSpec{Size: scene.Vec3{X: 1, Y: 1, Z: 1}}}); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestAwait(t *testing.T) {
	t.Run("current result is delivered", func(t *testing.T) {
		var gens generations
		gen := gens.next()
		ch := make(chan evalResult, 1)
		ch <- evalResult{scene: oneBoard(t)}

		s, _, err := await(ch, gen, &gens, time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s == nil || s.Lookup("board") == nil {
			t.Fatal("expected the delivered scene")
		}
	})

	t.Run("stale scene is dropped", func(t *testing.T) {
		var gens generations
		stale := gens.next()
		gens.next()
		ch := make(chan evalResult, 1)
		ch <- evalResult{scene: oneBoard(t)}

		s, evalErrs, err := await(ch, stale, &gens, time.Second)
		if !errors.Is(err, ErrSuperseded) {
			t.Fatalf("err = %v, want ErrSuperseded", err)
		}
		if s != nil || evalErrs != nil {
			t.Error("a superseded evaluation must not hand back its scene")
		}
	})

	t.Run("stuck evaluation times out", func(t *testing.T) {
		var gens generations
		gen := gens.next()
		ch := make(chan evalResult)

		start := time.Now()
		_, _, err := await(ch, gen, &gens, 20*time.Millisecond)
		if !errors.Is(err, ErrTimeout) {
			t.Fatalf("err = %v, want ErrTimeout", err)
		}
		if !strings.Contains(err.Error(), "20ms") {
			t.Errorf("timeout error should name the limit, got %q", err)
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("await took %s", elapsed)
		}
	})
}

func TestGenerations(t *testing.T) {
	var gens generations
	a := gens.next()
	b := gens.next()
	if b != a+1 {
		t.Errorf("generations = %d, %d, want consecutive", a, b)
	}
	if gens.latest(a) || !gens.latest(b) {
		t.Error("only the newest generation is latest")
	}
}

func TestEvaluateLogs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	eng := NewEngine(WithLogger(zap.New(core)))

	mustEvaluateWith(t, eng, `(defpart "a" (box :size (vec3 1 1 1))) (defpart "b" (box :size (vec3 2 2 2)))`)
	finished := logs.FilterMessage("evaluation finished").All()
	if len(finished) != 1 {
		t.Fatalf("expected one finished entry, got %d", len(finished))
	}
	if parts := finished[0].ContextMap()["parts"]; parts != int64(2) {
		t.Errorf("parts field = %v, want 2", parts)
	}

	if _, evalErrs, _ := eng.Evaluate(`(vec3 1 2)`); len(evalErrs) == 0 {
		t.Fatal("expected eval errors")
	}
	if n := logs.FilterMessage("evaluation reported errors").Len(); n != 1 {
		t.Errorf("expected one error report entry, got %d", n)
	}
}

func mustEvaluateWith(t *testing.T, eng *Engine, source string) *scene.Scene {
	t.Helper()
	s, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	return s
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "line marker",
			msg:      "Error on line 4: unexpected token\n",
			wantLine: 4,
			wantMsg:  "unexpected token",
		},
		{
			name:     "builtin message before the marker",
			msg:      "cut requires a tool box\nerror on line 7: in call to cut",
			wantLine: 7,
			wantMsg:  "cut requires a tool box",
		},
		{
			name:     "short form",
			msg:      "line 2: vec3 requires exactly 3 arguments",
			wantLine: 2,
			wantMsg:  "exactly 3 arguments",
		},
		{
			name:    "no position",
			msg:     "  defpart requires a name and a body  ",
			wantMsg: "defpart requires a name and a body",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) != 1 {
				t.Fatalf("expected one error, got %d", len(errs))
			}
			e := errs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}

type errString string

func (e errString) Error() string { return string(e) }

func TestOptions(t *testing.T) {
	eng := NewEngine(WithTimeout(50*time.Millisecond), WithTimeout(0), WithLogger(nil))
	if eng.timeout != 50*time.Millisecond {
		t.Errorf("timeout = %s, want 50ms", eng.timeout)
	}
	if eng.logger == nil {
		t.Error("a nil logger must not replace the default")
	}
	if NewEngine().timeout != EvalTimeout {
		t.Errorf("default timeout = %s, want %s", NewEngine().timeout, EvalTimeout)
	}
}
