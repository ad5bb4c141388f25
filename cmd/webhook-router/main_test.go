package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const banner = "\n==================================================\n" +
	"📡 Webhook Event Router\n" +
	"==================================================\n\n"

func TestRun(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{
			name:     "issue opened",
			args:     []string{"issue", "opened", "42"},
			wantCode: 0,
			wantStdout: banner +
				"🎫 Processing issue event: opened for #42\n" +
				"  → New issue opened: #42\n" +
				"  → Triggering analysis workflow...\n" +
				"\n✅ Event processed successfully\n\n",
		},
		{
			name:     "push without sha",
			args:     []string{"push", "main"},
			wantCode: 1,
			wantStdout: banner +
				"📤 Processing push event: main @ \n" +
				"  → Branch: main\n",
			wantStderr: "\n❌ Error processing event: INVALID_INPUT: Missing commit SHA: push events take <branch> <commit-sha>\n",
		},
		{
			name:       "no event type",
			args:       nil,
			wantCode:   1,
			wantStdout: banner,
			wantStderr: "Error: No event type specified\n",
		},
		{
			name:       "unknown event type",
			args:       []string{"bogus", "x", "y"},
			wantCode:   1,
			wantStdout: banner,
			wantStderr: "Error: Unknown event type: bogus\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer

			code := run(context.Background(), tt.args, &stdout, &stderr)

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStdout, stdout.String())
			assert.Equal(t, tt.wantStderr, stderr.String())
		})
	}
}

func TestRun_PushesEventMetrics(t *testing.T) {
	var (
		mu     sync.Mutex
		paths  []string
		bodies []string
	)
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		paths = append(paths, r.URL.Path)
		bodies = append(bodies, string(body))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	t.Setenv("METRICS_PUSHGATEWAY_URL", gateway.URL)
	t.Setenv("METRICS_JOB", "webhook-router")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"comment", "9", "octocat"}, &stdout, &stderr)
	assert.Equal(t, 0, code)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, paths, 1)
	assert.Equal(t, "/metrics/job/webhook-router", paths[0])
	assert.Contains(t, bodies[0], "webhook_events_total")
	assert.Contains(t, bodies[0], "comment")
}
