package main

import (
	"bytes"
	"sync"
	"testing"

	"github.com/nao1215/websummary/internal/model"
)

func TestConsoleObserver(t *testing.T) {
	t.Parallel()

	t.Run("prints visits and link counts", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		o := newConsoleObserver(&buf)
		o.OnVisit("http://example.com/")
		o.OnLinks("http://example.com/", 3)
		o.OnLinks("http://example.com/empty", 0)

		want := "Visiting: http://example.com/\nFound 3 links on http://example.com/\n"
		if got := buf.String(); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("prints technology results", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name   string
			result model.TechnologyResult
			want   string
		}{
			{
				name: "detected",
				result: model.TechnologyResult{
					Status: model.TechnologyDetected,
					Names:  []string{"jQuery", "WordPress"},
				},
				want: "Detected plugins or libraries:\n- jQuery\n- WordPress\n",
			},
			{
				name:   "none detected",
				result: model.TechnologyResult{Status: model.TechnologyNoneDetected},
				want:   "No common plugins detected. Likely pure HTML, JavaScript, and CSS.\n",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()
				var buf bytes.Buffer
				newConsoleObserver(&buf).OnTechnologies(tt.result)
				if got := buf.String(); got != tt.want {
					t.Errorf("got %q, want %q", got, tt.want)
				}
			})
		}
	})

	t.Run("prints failures", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		o := newConsoleObserver(&buf)
		o.OnFailure(model.PageFailure{URL: "http://example.com/a", StatusCode: 404, Error: "404 Not Found"})
		o.OnFailure(model.PageFailure{URL: "http://example.com/b", Error: "connection refused"})

		want := "HTTP error visiting http://example.com/a: 404 Not Found\n" +
			"Error visiting http://example.com/b: connection refused\n"
		if got := buf.String(); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("concurrent writes produce whole lines", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		o := newConsoleObserver(&buf)

		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				o.OnVisit("http://example.com/")
			}()
		}
		wg.Wait()

		line := "Visiting: http://example.com/\n"
		if got := buf.String(); got != string(bytes.Repeat([]byte(line), 50)) {
			t.Errorf("unexpected interleaving: %q", got)
		}
	})
}
