package vespa

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/cnsky2016/vespa/reference"
	"github.com/stretchr/testify/assert"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return NewLogger(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLoggerHelpers(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		log  func(l *Logger)
		want []string
	}{
		{
			name: "resolve",
			log: func(l *Logger) {
				l.LogResolve(ctx, "person", reference.ResolveReport{Built: 2, Carried: 1}, nil)
			},
			want: []string{"level=DEBUG", "resolve completed", "doc_type=person", "built=2", "carried=1"},
		},
		{
			name: "resolve error",
			log: func(l *Logger) {
				l.LogResolve(ctx, "person", reference.ResolveReport{}, errors.New("boom"))
			},
			want: []string{"level=ERROR", "resolve failed", "error=boom"},
		},
		{
			name: "teardown",
			log:  func(l *Logger) { l.LogTeardown(ctx, "person", "company") },
			want: []string{"teardown completed", "manager=company"},
		},
		{
			name: "missing parent",
			log: func(l *Logger) {
				l.LogMissingParent(ctx, "person", reference.MissingParent{ReferenceField: "company_id", Target: "company"})
			},
			want: []string{"level=WARN", "reference_field=company_id", "target=company"},
		},
		{
			name: "reconfigure",
			log:  func(l *Logger) { l.LogReconfigure(ctx, "company", time.Millisecond, 2, nil) },
			want: []string{"level=INFO", "reconfigure completed", "rebound_children=2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(newBufferLogger(&buf))
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestLoggerWithDocType(t *testing.T) {
	var buf bytes.Buffer
	newBufferLogger(&buf).WithDocType("person").Info("hello")
	assert.Contains(t, buf.String(), "doc_type=person")
}

func TestNoopLogger(t *testing.T) {
	l := NoopLogger()
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
}
