package play

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/robalobadob/imagematch/internal/countdown"
	"github.com/robalobadob/imagematch/internal/generate/placeholder"
	"github.com/robalobadob/imagematch/internal/httpserver"
	"github.com/robalobadob/imagematch/internal/presets"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type session struct {
	t     *testing.T
	in    *io.PipeWriter
	out   *syncBuffer
	sched *countdown.Manual
	done  chan error
}

func startSession(t *testing.T, serverURL string) *session {
	t.Helper()
	return startSessionIn(t, serverURL, t.TempDir())
}

// startSessionIn runs a game writing images to dir; "" lets Run pick a temp dir.
func startSessionIn(t *testing.T, serverURL, dir string) *session {
	t.Helper()
	pr, pw := io.Pipe()
	s := &session{t: t, in: pw, out: &syncBuffer{}, sched: countdown.NewManual(), done: make(chan error, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		pw.Close()
	})
	go func() {
		s.done <- Run(ctx, Options{
			ServerURL: serverURL,
			Timeout:   2 * time.Second,
			Scheduler: s.sched,
			ImageDir:  dir,
			In:        pr,
			Out:       s.out,
		})
	}()
	return s
}

func (s *session) send(line string) {
	s.t.Helper()
	if _, err := io.WriteString(s.in, line+"\n"); err != nil {
		s.t.Fatalf("write %q: %v", line, err)
	}
}

func (s *session) waitFor(want string) {
	s.t.Helper()
	s.waitForN(want, 1)
}

// waitForN waits until want has been printed at least n times.
func (s *session) waitForN(want string, n int) {
	s.t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Count(s.out.String(), want) >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	s.t.Fatalf("timed out waiting for %q x%d; output:\n%s", want, n, s.out.String())
}

func (s *session) finish() {
	s.t.Helper()
	s.send(":quit")
	select {
	case err := <-s.done:
		if err != nil {
			s.t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		s.t.Fatal("run did not return after :quit")
	}
}

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	cat, err := presets.Load("")
	if err != nil {
		t.Fatalf("presets: %v", err)
	}
	srv := httptest.NewServer(httpserver.New(httpserver.Options{
		Provider:     placeholder.New(),
		ProviderName: "placeholder",
		Presets:      cat,
	}).Router())
	t.Cleanup(srv.Close)
	return srv
}

func TestPlayInstantSubmit(t *testing.T) {
	s := startSession(t, newBackend(t).URL)
	s.waitFor("Type :start to begin")

	s.send("a cat")
	s.waitFor("No game running")

	s.send(":start")
	s.waitFor("Reference image:")

	s.send(":retry")
	s.waitFor("Please enter a prompt.")

	s.send("a yellow circle with a smile")
	s.waitFor("Game Complete!")
	s.waitFor("Score: 100 points")
	s.waitFor("generated-")

	s.send("another prompt")
	s.waitFor("This game is over")
	s.finish()
}

func TestPlayTimeUp(t *testing.T) {
	s := startSession(t, newBackend(t).URL)
	s.send(":start")
	s.waitFor("Reference image:")

	deadline := time.Now().Add(5 * time.Second)
	for fired := 0; fired < 60; {
		if time.Now().After(deadline) {
			t.Fatalf("only %d ticks delivered", fired)
		}
		if s.sched.Fire() == 1 {
			fired++
			continue
		}
		time.Sleep(time.Millisecond)
	}
	s.waitFor("Time's Up!")
	out := s.out.String()
	for _, want := range []string{"0:50 left", "0:10 left", "0:01 left"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}

	s.send(":again")
	s.waitForN("You have 1:00", 2)
	s.finish()
}

func TestPlayServerDown(t *testing.T) {
	backend := newBackend(t)
	url := backend.URL
	backend.Close()

	s := startSession(t, url)
	s.waitFor("Type :start to begin")
	s.send(":start")
	s.waitFor("Reference image:")
	s.send("a diamond")
	s.waitFor("Error: Could not reach the image server")
	s.waitFor("Type :retry")
	if strings.Contains(s.out.String(), "dial tcp") {
		t.Fatalf("transport details shown to player:\n%s", s.out.String())
	}
	s.finish()
}

func TestPlayRemovesTempImageDir(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	s := startSessionIn(t, newBackend(t).URL, "")
	s.waitFor("removed when you quit")
	s.send(":start")
	s.waitFor("reference-")
	entries, _ := filepath.Glob(filepath.Join(tmp, "imagematch-*"))
	if len(entries) != 1 {
		t.Fatalf("expected one image dir while playing, got %v", entries)
	}
	s.finish()

	entries, _ = filepath.Glob(filepath.Join(tmp, "imagematch-*"))
	if len(entries) != 0 {
		t.Fatalf("image dir left behind: %v", entries)
	}
}

func TestPlayKeepsCallerImageDir(t *testing.T) {
	dir := t.TempDir()
	s := startSessionIn(t, newBackend(t).URL, dir)
	s.waitFor("kept after you quit")
	s.send(":start")
	s.waitFor("reference-")
	s.finish()

	if entries, _ := filepath.Glob(filepath.Join(dir, "reference-*.svg")); len(entries) == 0 {
		t.Fatal("caller-supplied image dir was emptied")
	}
}

// endless yields lines forever.
type endless struct{}

func (endless) Read(p []byte) (int, error) {
	n := copy(p, "line\n")
	return n, nil
}

func TestReadLinesStopsWhenDone(t *testing.T) {
	done := make(chan struct{})
	lines := readLines(done, endless{})
	<-lines
	close(done)

	closed := make(chan struct{})
	go func() {
		for range lines {
		}
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("reader kept sending after done was closed")
	}
}
