package assistant_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/clerk/internal/assistant"
	"github.com/JaimeStill/clerk/internal/workflow"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

var fields = []workflow.Placeholder{
	{Name: "Company Name", Question: "What should I fill in for [Company Name]?"},
	{Name: "Investor Name", Question: "What should I fill in for [Investor Name]?"},
	{Name: "Purchase Amount in $", Question: "What should I fill in for [Purchase Amount in $]?"},
}

func assistantTurn(msg string) workflow.Turn {
	return workflow.Turn{Role: workflow.RoleAssistant, Message: msg}
}

func userTurn(msg string) workflow.Turn {
	return workflow.Turn{Role: workflow.RoleUser, Message: msg}
}

func TestExtractValues(t *testing.T) {
	tests := []struct {
		name    string
		history []workflow.Turn
		want    map[string]string
	}{
		{
			name:    "empty",
			history: nil,
			want:    map[string]string{},
		},
		{
			name: "seed answered",
			history: []workflow.Turn{
				assistantTurn("I've analyzed your document and found 3 placeholders to fill. Let's complete them one by one.\n\nWhat should I fill in for [Company Name]?"),
				userTurn("  Acme Inc. "),
			},
			want: map[string]string{"Company Name": "Acme Inc."},
		},
		{
			name: "question without answer",
			history: []workflow.Turn{
				assistantTurn("What should I fill in for [Company Name]?"),
				userTurn("Acme"),
				assistantTurn("Thank you! Now, What should I fill in for [Investor Name]?"),
			},
			want: map[string]string{"Company Name": "Acme"},
		},
		{
			name: "bracketed mention wins over substring",
			history: []workflow.Turn{
				assistantTurn("Got the company name. Now, what is the [Investor Name]?"),
				userTurn("Jane"),
			},
			want: map[string]string{"Investor Name": "Jane"},
		},
		{
			name: "case insensitive mention",
			history: []workflow.Turn{
				assistantTurn("Please share the purchase amount in $ for this SAFE."),
				userTurn("100,000"),
			},
			want: map[string]string{"Purchase Amount in $": "100,000"},
		},
		{
			name: "later answer overwrites",
			history: []workflow.Turn{
				assistantTurn("[Company Name]?"),
				userTurn("Acme"),
				assistantTurn("Let's correct [Company Name]."),
				userTurn("Acme Corp"),
			},
			want: map[string]string{"Company Name": "Acme Corp"},
		},
		{
			name: "bracketed answer value",
			history: []workflow.Turn{
				assistantTurn("What should I fill in for [Company Name]?"),
				userTurn("It should be [ Acme Corp ] please"),
			},
			want: map[string]string{"Company Name": "Acme Corp"},
		},
		{
			name: "empty brackets keep whole answer",
			history: []workflow.Turn{
				assistantTurn("What should I fill in for [Company Name]?"),
				userTurn(" Acme [] "),
			},
			want: map[string]string{"Company Name": "Acme []"},
		},
		{
			name: "assistant followed by assistant",
			history: []workflow.Turn{
				assistantTurn("[Company Name]?"),
				assistantTurn("hello"),
			},
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, assistant.ExtractValues(tt.history, fields))
		})
	}
}

func TestNext(t *testing.T) {
	next, ok := assistant.Next(fields, map[string]string{"Company Name": "Acme"})
	require.True(t, ok)
	assert.Equal(t, "Investor Name", next.Name)

	_, ok = assistant.Next(fields, map[string]string{
		"Company Name":         "a",
		"Investor Name":        "b",
		"Purchase Amount in $": "c",
	})
	assert.False(t, ok)
}

func TestRespondFixedReplies(t *testing.T) {
	a := assistant.New(nil, discard)
	ctx := context.Background()

	history := []workflow.Turn{
		assistantTurn(fields[0].Question),
		userTurn("Acme"),
	}

	reply := a.Respond(ctx, history, fields)
	assert.Equal(t, "Thank you! Now, What should I fill in for [Investor Name]?", reply.Response)
	assert.False(t, reply.AllFilled)
	assert.Equal(t, 1, reply.FilledCount)
	assert.Equal(t, 3, reply.TotalCount)

	history = append(history,
		assistantTurn(reply.Response), userTurn("Jane"),
		assistantTurn(fields[2].Question), userTurn("100"),
	)

	reply = a.Respond(ctx, history, fields)
	assert.True(t, reply.AllFilled)
	assert.Equal(t, "Great! I have all the information I need. Your document is ready to download.", reply.Response)
	assert.Equal(t, 3, reply.FilledCount)
}

func TestRespondNoPlaceholders(t *testing.T) {
	reply := assistant.New(nil, discard).Respond(context.Background(), []workflow.Turn{userTurn("hi")}, nil)
	assert.True(t, reply.AllFilled)
	assert.Zero(t, reply.TotalCount)
}

type stubPhraser struct {
	text string
	err  error
	got  assistant.PhraseRequest
}

func (s *stubPhraser) Phrase(_ context.Context, req assistant.PhraseRequest) (string, error) {
	s.got = req
	return s.text, s.err
}

func TestRespondPhrasing(t *testing.T) {
	history := []workflow.Turn{assistantTurn(fields[0].Question), userTurn("Acme")}

	tests := []struct {
		name    string
		phraser *stubPhraser
		want    string
	}{
		{
			name:    "phrased",
			phraser: &stubPhraser{text: "  Thanks! Who is the [Investor Name]?  "},
			want:    "Thanks! Who is the [Investor Name]?",
		},
		{
			name:    "error falls back",
			phraser: &stubPhraser{err: errors.New("rate limited")},
			want:    "Thank you! Now, What should I fill in for [Investor Name]?",
		},
		{
			name:    "empty falls back",
			phraser: &stubPhraser{text: "   "},
			want:    "Thank you! Now, What should I fill in for [Investor Name]?",
		},
		{
			name:    "missing placeholder falls back",
			phraser: &stubPhraser{text: "Who is investing?"},
			want:    "Thank you! Now, What should I fill in for [Investor Name]?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := assistant.New(tt.phraser, discard).Respond(context.Background(), history, fields)
			assert.Equal(t, tt.want, reply.Response)
			assert.False(t, reply.AllFilled)

			require.NotNil(t, tt.phraser.got.Next)
			assert.Equal(t, "Investor Name", tt.phraser.got.Next.Name)
			assert.Equal(t, map[string]string{"Company Name": "Acme"}, tt.phraser.got.Values)
		})
	}
}

func TestComposePrompt(t *testing.T) {
	next := fields[1]
	msgs := assistant.ComposePrompt(assistant.PhraseRequest{
		History:      []workflow.Turn{assistantTurn("q"), userTurn("Acme")},
		Placeholders: fields,
		Values:       map[string]string{"Company Name": "Acme"},
		Next:         &next,
	})

	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "[Company Name], [Investor Name], [Purchase Amount in $]")
	assert.Contains(t, msgs[0].Content, "[Company Name]=`Acme`")
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Equal(t, "user", msgs[2].Role)
	assert.Contains(t, msgs[3].Content, "Ask for the value of [Investor Name]")

	done := assistant.ComposePrompt(assistant.PhraseRequest{Placeholders: fields})
	assert.Contains(t, done[0].Content, "none yet")
	assert.Contains(t, done[len(done)-1].Content, "Everything is filled")
}

func completionServer(t *testing.T, failures int32, content string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		if n <= failures {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])

		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)

	return srv, &calls
}

func newOpenAI(url string) *assistant.OpenAI {
	return assistant.NewOpenAI(assistant.OpenAIOptions{
		APIKey:      "sk-test",
		BaseURL:     url + "/v1",
		Model:       "gpt-4o-mini",
		Temperature: 0.2,
		Timeout:     5 * time.Second,
		Retry: assistant.RetryConfig{
			MaxAttempts:       3,
			BackoffBase:       time.Millisecond,
			BackoffMultiplier: 2,
			MaxBackoff:        5 * time.Millisecond,
		},
	}, discard)
}

func TestOpenAIPhrase(t *testing.T) {
	srv, calls := completionServer(t, 0, "Who is the [Investor Name]?")
	next := fields[1]

	text, err := newOpenAI(srv.URL).Phrase(context.Background(), assistant.PhraseRequest{
		Placeholders: fields,
		Next:         &next,
	})

	require.NoError(t, err)
	assert.Equal(t, "Who is the [Investor Name]?", text)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAIRetriesServerErrors(t *testing.T) {
	srv, calls := completionServer(t, 2, "Done.")

	text, err := newOpenAI(srv.URL).Phrase(context.Background(), assistant.PhraseRequest{Placeholders: fields})

	require.NoError(t, err)
	assert.Equal(t, "Done.", text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenAIGivesUp(t *testing.T) {
	srv, calls := completionServer(t, 10, "unused")

	_, err := newOpenAI(srv.URL).Phrase(context.Background(), assistant.PhraseRequest{Placeholders: fields})

	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}
