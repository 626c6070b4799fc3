package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forPelevin/dips/internal/asset"
	"github.com/forPelevin/dips/internal/ports"
	"github.com/forPelevin/dips/internal/types"
)

const dataDir = "/var/lib/dips-test"

func TestSelectInput_Selected(t *testing.T) {
	t.Parallel()

	dialogs := &fakeDialogs{open: []pick{{sel: types.Selected("/tmp/in.mov")}}}
	backend := &fakeBackend{}
	surface := &recordingSurface{}
	s := newSession(dialogs, backend, surface)

	if err := s.SelectInput(context.Background()); err != nil {
		t.Fatalf("select input: %v", err)
	}

	st := s.State()
	if got, _ := st.Input.Path(); got != "/tmp/in.mov" {
		t.Fatalf("expected input /tmp/in.mov, got %q", got)
	}
	if st.Phase != types.PhaseThumbnailShown {
		t.Fatalf("expected thumbnail-shown phase, got %s", st.Phase)
	}
	if len(backend.thumbs) != 1 {
		t.Fatalf("expected 1 thumbnail call, got %d", len(backend.thumbs))
	}
	wantCache := filepath.Join(dataDir, ThumbnailFile)
	if backend.thumbs[0] != [2]string{"/tmp/in.mov", wantCache} {
		t.Fatalf("unexpected thumbnail call: %v", backend.thumbs[0])
	}
	if dialogs.openOpts[0].Directory || dialogs.openOpts[0].Multiple {
		t.Fatalf("expected single non-directory pick, got %+v", dialogs.openOpts[0])
	}

	ev := surface.last(t)
	if ev.Kind != types.EventPreview {
		t.Fatalf("expected preview event, got %s", ev.Kind)
	}
	if ev.Preview.Path != "/tmp/in.mov" {
		t.Fatalf("unexpected preview path %q", ev.Preview.Path)
	}
	if !strings.HasPrefix(ev.Preview.ImageURL, "file://") || !strings.HasSuffix(ev.Preview.ImageURL, ThumbnailFile) {
		t.Fatalf("unexpected preview url %q", ev.Preview.ImageURL)
	}
}

func TestSelectInput_CancelKeepsPrevious(t *testing.T) {
	t.Parallel()

	dialogs := &fakeDialogs{open: []pick{
		{sel: types.Selected("/tmp/first.mov")},
		{sel: types.Cancelled()},
	}}
	backend := &fakeBackend{}
	surface := &recordingSurface{}
	s := newSession(dialogs, backend, surface)

	if err := s.SelectInput(context.Background()); err != nil {
		t.Fatalf("first select: %v", err)
	}
	if err := s.SelectInput(context.Background()); err != nil {
		t.Fatalf("cancelled select: %v", err)
	}

	if got, _ := s.State().Input.Path(); got != "/tmp/first.mov" {
		t.Fatalf("expected previous input to survive cancel, got %q", got)
	}
	if len(backend.thumbs) != 1 {
		t.Fatalf("expected no thumbnail call for cancelled pick, got %d calls", len(backend.thumbs))
	}
	if len(surface.events) != 1 {
		t.Fatalf("expected cancelled pick to render nothing, got %d events", len(surface.events))
	}
}

func TestSelectInput_Failures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		prior       *pick
		open        pick
		thumbErr    error
		wantErr     error
		wantPhase   types.Phase
		wantInput   string
		wantPreview types.Preview
	}{
		{
			name:      "dialog error",
			open:      pick{err: errors.New("portal unavailable")},
			wantPhase: types.PhaseNoInput,
		},
		{
			name:      "thumbnail error",
			open:      pick{sel: types.Selected("/tmp/broken.avi")},
			thumbErr:  errors.New("no video stream"),
			wantErr:   ErrBackendFailed,
			wantPhase: types.PhaseThumbnailFailed,
			wantInput: "/tmp/broken.avi",
		},
		{
			name:      "thumbnail error drops previous preview",
			prior:     &pick{sel: types.Selected("/tmp/a.mov")},
			open:      pick{sel: types.Selected("/tmp/b.mov")},
			thumbErr:  errors.New("no video stream"),
			wantErr:   ErrBackendFailed,
			wantPhase: types.PhaseThumbnailFailed,
			wantInput: "/tmp/b.mov",
		},
		{
			name:      "dialog error keeps previous preview",
			prior:     &pick{sel: types.Selected("/tmp/a.mov")},
			open:      pick{err: errors.New("portal unavailable")},
			wantPhase: types.PhaseThumbnailShown,
			wantInput: "/tmp/a.mov",
			wantPreview: types.Preview{
				ImageURL: asset.Locator(filepath.Join(dataDir, ThumbnailFile)),
				Path:     "/tmp/a.mov",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			picks := []pick{tc.open}
			if tc.prior != nil {
				picks = []pick{*tc.prior, tc.open}
			}
			backend := &fakeBackend{}
			surface := &recordingSurface{}
			s := newSession(&fakeDialogs{open: picks}, backend, surface)

			if tc.prior != nil {
				if err := s.SelectInput(context.Background()); err != nil {
					t.Fatalf("prior select: %v", err)
				}
			}
			backend.thumbErr = tc.thumbErr

			err := s.SelectInput(context.Background())
			if err == nil {
				t.Fatalf("expected error")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			st := s.State()
			if st.Phase != tc.wantPhase {
				t.Fatalf("expected phase %s, got %s", tc.wantPhase, st.Phase)
			}
			if got, _ := st.Input.Path(); got != tc.wantInput {
				t.Fatalf("expected input %q, got %q", tc.wantInput, got)
			}
			if st.Preview != tc.wantPreview {
				t.Fatalf("expected preview %+v, got %+v", tc.wantPreview, st.Preview)
			}
			ev := surface.last(t)
			if ev.Kind != types.EventError || ev.Message == "" {
				t.Fatalf("expected error rendered on surface, got %+v", ev)
			}
		})
	}
}

func TestSelectOutput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		pick    pick
		want    types.Selection
		wantErr bool
	}{
		{name: "selected", pick: pick{sel: types.Selected("/tmp/out.mp4")}, want: types.Selected("/tmp/out.mp4")},
		{name: "cancelled", pick: pick{sel: types.Cancelled()}, want: types.Cancelled()},
		{name: "error", pick: pick{err: errors.New("dialog crashed")}, want: types.Cancelled(), wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			dialogs := &fakeDialogs{save: []pick{{sel: types.Selected("/tmp/previous.mov")}, tc.pick}}
			s := newSession(dialogs, &fakeBackend{}, &recordingSurface{})

			if err := s.SelectOutput(context.Background()); err != nil {
				t.Fatalf("first select output: %v", err)
			}
			err := s.SelectOutput(context.Background())
			if (err != nil) != tc.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if got := s.State().Output; got != tc.want {
				t.Fatalf("expected output %s, got %s", tc.want, got)
			}
			opts := dialogs.saveOpts[1]
			if opts.Title != "Save Video File" || !opts.Allows("mov") || opts.Allows("gif") {
				t.Fatalf("unexpected save options: %+v", opts)
			}
		})
	}
}

func TestRun_WithStickyOutput(t *testing.T) {
	t.Parallel()

	dialogs := &fakeDialogs{
		open: []pick{{sel: types.Selected("/tmp/in.mov")}},
		save: []pick{{sel: types.Selected("/tmp/out.mp4")}},
	}
	backend := &fakeBackend{}
	s := newSession(dialogs, backend, &recordingSurface{})
	ctx := context.Background()

	if err := s.SelectInput(ctx); err != nil {
		t.Fatalf("select input: %v", err)
	}
	if err := s.SelectOutput(ctx); err != nil {
		t.Fatalf("select output: %v", err)
	}
	if err := s.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(dialogs.saveOpts) != 1 {
		t.Fatalf("expected no extra save prompt, got %d prompts", len(dialogs.saveOpts))
	}
	want := [][2]string{{"/tmp/in.mov", "/tmp/out.mp4"}}
	if !equalCalls(backend.runs, want) {
		t.Fatalf("unexpected conversion calls: %v", backend.runs)
	}
}

func TestRun_PromptsForMissingOutput(t *testing.T) {
	t.Parallel()

	dialogs := &fakeDialogs{
		open: []pick{{sel: types.Selected("/tmp/in.mov")}},
		save: []pick{{sel: types.Selected("/tmp/out.mp4")}},
	}
	backend := &fakeBackend{}
	surface := &recordingSurface{}
	s := newSession(dialogs, backend, surface)
	ctx := context.Background()

	if err := s.SelectInput(ctx); err != nil {
		t.Fatalf("select input: %v", err)
	}
	if err := s.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(dialogs.saveOpts) != 1 {
		t.Fatalf("expected exactly one save prompt, got %d", len(dialogs.saveOpts))
	}
	if !equalCalls(backend.runs, [][2]string{{"/tmp/in.mov", "/tmp/out.mp4"}}) {
		t.Fatalf("unexpected conversion calls: %v", backend.runs)
	}
	if ev := surface.last(t); ev.Kind != types.EventDispatched {
		t.Fatalf("expected dispatched event, got %s", ev.Kind)
	}
}

func TestRun_SkipsWhenOutputPromptCancelled(t *testing.T) {
	t.Parallel()

	dialogs := &fakeDialogs{
		open: []pick{{sel: types.Selected("/tmp/in.mov")}},
		save: []pick{{sel: types.Cancelled()}},
	}
	backend := &fakeBackend{}
	surface := &recordingSurface{}
	s := newSession(dialogs, backend, surface)
	ctx := context.Background()

	if err := s.SelectInput(ctx); err != nil {
		t.Fatalf("select input: %v", err)
	}
	err := s.Run(ctx)
	if !errors.Is(err, ErrNoOutput) {
		t.Fatalf("expected ErrNoOutput, got %v", err)
	}
	if len(backend.runs) != 0 {
		t.Fatalf("expected conversion to be skipped, got %v", backend.runs)
	}
	if ev := surface.last(t); ev.Kind != types.EventError {
		t.Fatalf("expected error event, got %s", ev.Kind)
	}
}

func TestRun_RepeatedDispatchesAreNotDeduplicated(t *testing.T) {
	t.Parallel()

	dialogs := &fakeDialogs{
		open: []pick{{sel: types.Selected("/tmp/in.mov")}},
		save: []pick{{sel: types.Selected("/tmp/out.mp4")}},
	}
	backend := &fakeBackend{}
	s := newSession(dialogs, backend, &recordingSurface{})
	ctx := context.Background()

	if err := s.SelectInput(ctx); err != nil {
		t.Fatalf("select input: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := s.Run(ctx); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	want := [][2]string{{"/tmp/in.mov", "/tmp/out.mp4"}, {"/tmp/in.mov", "/tmp/out.mp4"}}
	if !equalCalls(backend.runs, want) {
		t.Fatalf("expected two identical dispatches, got %v", backend.runs)
	}
	if got := s.State().Dispatches; got != 2 {
		t.Fatalf("expected dispatch count 2, got %d", got)
	}
	if !s.State().Ready() {
		t.Fatalf("expected session to be ready again after dispatch")
	}
}

func TestRun_Preconditions(t *testing.T) {
	t.Parallel()

	t.Run("not mounted", func(t *testing.T) {
		t.Parallel()
		backend := &fakeBackend{}
		s := New(Deps{Dialogs: &fakeDialogs{}, Backend: backend, DataDir: staticDir(dataDir)})
		for name, op := range map[string]func(context.Context) error{
			"input":  s.SelectInput,
			"output": s.SelectOutput,
			"run":    s.Run,
		} {
			if err := op(context.Background()); !errors.Is(err, ErrNotMounted) {
				t.Fatalf("%s: expected ErrNotMounted, got %v", name, err)
			}
		}
		if len(backend.runs)+len(backend.thumbs) != 0 {
			t.Fatalf("expected no backend calls")
		}
	})

	t.Run("no input", func(t *testing.T) {
		t.Parallel()
		dialogs := &fakeDialogs{}
		backend := &fakeBackend{}
		s := newSession(dialogs, backend, &recordingSurface{})
		if err := s.Run(context.Background()); !errors.Is(err, ErrNoInput) {
			t.Fatalf("expected ErrNoInput, got %v", err)
		}
		if len(dialogs.saveOpts) != 0 || len(backend.runs) != 0 {
			t.Fatalf("expected no prompt and no dispatch")
		}
	})
}

func TestRun_BackendFailureIsRendered(t *testing.T) {
	t.Parallel()

	dialogs := &fakeDialogs{
		open: []pick{{sel: types.Selected("/tmp/in.mov")}},
		save: []pick{{sel: types.Selected("/tmp/out.mp4")}},
	}
	backend := &fakeBackend{runErr: errors.New("gpu lost")}
	surface := &recordingSurface{}
	s := newSession(dialogs, backend, surface)
	ctx := context.Background()

	if err := s.SelectInput(ctx); err != nil {
		t.Fatalf("select input: %v", err)
	}
	err := s.Run(ctx)
	if !errors.Is(err, ErrBackendFailed) {
		t.Fatalf("expected ErrBackendFailed, got %v", err)
	}
	ev := surface.last(t)
	if ev.Kind != types.EventError || !strings.Contains(ev.Message, "gpu lost") {
		t.Fatalf("expected rendered backend error, got %+v", ev)
	}
	if _, ok := s.State().Output.Path(); !ok {
		t.Fatalf("expected output to stay selected after a failed dispatch")
	}
}

func TestRun_RejectsReentrantCalls(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	release := make(chan struct{})
	backend := &fakeBackend{block: func() {
		close(entered)
		<-release
	}}
	dialogs := &fakeDialogs{
		open: []pick{{sel: types.Selected("/tmp/in.mov")}},
		save: []pick{{sel: types.Selected("/tmp/out.mp4")}},
	}
	s := newSession(dialogs, backend, &recordingSurface{})
	ctx := context.Background()
	if err := s.SelectInput(ctx); err != nil {
		t.Fatalf("select input: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	<-entered

	if err := s.Run(ctx); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy for overlapping run, got %v", err)
	}
	if err := s.SelectInput(ctx); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy for overlapping select, got %v", err)
	}
	if !s.State().Busy {
		t.Fatalf("expected busy snapshot")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(backend.runs) != 1 {
		t.Fatalf("expected a single dispatch, got %d", len(backend.runs))
	}
}

func newSession(d ports.Dialogs, b ports.Backend, surface ports.Surface) *Session {
	s := New(Deps{Dialogs: d, Backend: b, DataDir: staticDir(dataDir)})
	s.Mount(surface)
	return s
}

func staticDir(dir string) ports.DataDir {
	return ports.DataDirFunc(func() (string, error) { return dir, nil })
}

type pick struct {
	sel types.Selection
	err error
}

type fakeDialogs struct {
	open     []pick
	save     []pick
	openOpts []types.OpenOptions
	saveOpts []types.SaveOptions
}

func (f *fakeDialogs) PickOpenPath(_ context.Context, opts types.OpenOptions) (types.Selection, error) {
	f.openOpts = append(f.openOpts, opts)
	return next(&f.open)
}

func (f *fakeDialogs) PickSavePath(_ context.Context, opts types.SaveOptions) (types.Selection, error) {
	f.saveOpts = append(f.saveOpts, opts)
	return next(&f.save)
}

func next(q *[]pick) (types.Selection, error) {
	if len(*q) == 0 {
		return types.Cancelled(), nil
	}
	p := (*q)[0]
	*q = (*q)[1:]
	return p.sel, p.err
}

type fakeBackend struct {
	thumbs   [][2]string
	runs     [][2]string
	thumbErr error
	runErr   error
	block    func()
}

func (f *fakeBackend) GenerateThumbnail(_ context.Context, in, cache string) error {
	f.thumbs = append(f.thumbs, [2]string{in, cache})
	return f.thumbErr
}

func (f *fakeBackend) RunConversion(_ context.Context, in, out string) error {
	f.runs = append(f.runs, [2]string{in, out})
	if f.block != nil {
		f.block()
	}
	return f.runErr
}

type recordingSurface struct {
	events []types.Event
}

func (r *recordingSurface) Render(ev types.Event) { r.events = append(r.events, ev) }

func (r *recordingSurface) last(t *testing.T) types.Event {
	t.Helper()
	if len(r.events) == 0 {
		t.Fatalf("expected at least one rendered event")
	}
	return r.events[len(r.events)-1]
}

func equalCalls(got, want [][2]string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
