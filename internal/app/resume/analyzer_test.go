package resume_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/futurenavigators/pathpilot/internal/app/resume"
	"github.com/futurenavigators/pathpilot/internal/domain"
)

type fakeCompleter struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

type fakeArchive struct {
	err  error
	keys []string
}

func (a *fakeArchive) Put(_ context.Context, filename, _ string, _ []byte) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	key := "resumes/" + filename
	a.keys = append(a.keys, key)
	return key, nil
}

type fakeRecorder struct {
	mu   sync.Mutex
	rows []string
}

func (r *fakeRecorder) RecordResume(_ context.Context, filename, kind, key string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, filename+"|"+kind+"|"+key)
	return nil
}

const analysis = `1. Key skills: Go, SQL
2. Suggested job roles: Backend Engineer, Data Engineer, Backend Engineer
3. Suggested learning paths: Kubernetes`

func TestAnalyze_TextResume(t *testing.T) {
	defer goleak.VerifyNone(t)
	c := &fakeCompleter{reply: "  " + analysis + "\n"}
	arch := &fakeArchive{}
	rec := &fakeRecorder{}
	an := resume.New(c, resume.WithArchive(arch), resume.WithRecorder(rec))

	report, err := an.Analyze(context.Background(), "cv.txt", "text/plain", []byte("Jane Doe\nGo developer"))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if report.Analysis != analysis {
		t.Errorf("Analysis = %q", report.Analysis)
	}
	if report.Kind != "txt" || report.Filename != "cv.txt" {
		t.Errorf("kind/filename = %q/%q", report.Kind, report.Filename)
	}
	if report.ArchiveKey != "resumes/cv.txt" {
		t.Errorf("ArchiveKey = %q", report.ArchiveKey)
	}
	if diff := cmp.Diff([]string{"Backend Engineer", "Data Engineer"}, report.Roles); diff != "" {
		t.Errorf("roles mismatch (-want +got):\n%s", diff)
	}
	if c.prompt != resume.Prompt("Jane Doe\nGo developer") {
		t.Errorf("unexpected prompt:\n%s", c.prompt)
	}
	if diff := cmp.Diff([]string{"cv.txt|txt|resumes/cv.txt"}, rec.rows); diff != "" {
		t.Errorf("recorder mismatch (-want +got):\n%s", diff)
	}
}

func TestPrompt_FivePoints(t *testing.T) {
	p := resume.Prompt("TEXT")
	for _, want := range []string{
		"You are a career advisor.",
		"1. Key skills",
		"2. Suggested job roles",
		"3. Suggested learning paths",
		"4. Suggestions for improvement",
		"5. Suggested LinkedIn profile headline and summary based on the resume",
		"Resume Content:\nTEXT",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAnalyze_Errors(t *testing.T) {
	ok := &fakeCompleter{reply: analysis}
	tests := []struct {
		name     string
		c        domain.Completer
		filename string
		mime     string
		data     string
		want     error
	}{
		{"unsupported", ok, "photo.png", "image/png", "x", domain.ErrUnsupportedDocument},
		{"empty", ok, "cv.txt", "text/plain", "   \n", domain.ErrEmptyDocument},
		{"no completer", nil, "cv.txt", "text/plain", "Jane", domain.ErrServiceUnavailable},
		{"completer error", &fakeCompleter{err: errors.New("429")}, "cv.txt", "", "Jane", domain.ErrServiceUnavailable},
		{"empty analysis", &fakeCompleter{reply: " "}, "cv.txt", "", "Jane", domain.ErrServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			an := resume.New(tt.c)
			_, err := an.Analyze(context.Background(), tt.filename, tt.mime, []byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAnalyze_ArchiveFailureNotFatal(t *testing.T) {
	defer goleak.VerifyNone(t)
	an := resume.New(&fakeCompleter{reply: analysis},
		resume.WithArchive(&fakeArchive{err: errors.New("bucket missing")}))

	report, err := an.Analyze(context.Background(), "cv.txt", "text/plain", []byte("Jane"))
	if err != nil {
		t.Fatalf("archive failure surfaced: %v", err)
	}
	if report.ArchiveKey != "" {
		t.Errorf("ArchiveKey = %q, want empty", report.ArchiveKey)
	}
}

func TestSuggestedRoles(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Suggested Job Roles: Data Analyst, ML Engineer", []string{"Data Analyst", "ML Engineer"}},
		{"**Suggested job roles:** • Cloud Architect • SRE\nnext", []string{"Cloud Architect", "SRE"}},
		{"no roles here", nil},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, resume.SuggestedRoles(tt.in)); diff != "" {
			t.Errorf("SuggestedRoles(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}
