package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeChatCreator struct {
	mu    sync.Mutex
	calls []chatCallRecord
	queue map[string][]fakeChatResponse
}

type chatCallRecord struct {
	model  string
	config *genai.GenerateContentConfig
	chat   *fakeChat
}

type fakeChatResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeChat struct {
	mu       sync.Mutex
	response fakeChatResponse
	messages []string
}

func (f *fakeChat) SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, part := range parts {
		f.messages = append(f.messages, part.Text)
	}
	return f.response.resp, f.response.err
}

func newFakeChatCreator() *fakeChatCreator {
	return &fakeChatCreator{queue: make(map[string][]fakeChatResponse)}
}

func (f *fakeChatCreator) enqueue(model string, resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue[model] = append(f.queue[model], fakeChatResponse{resp: resp, err: err})
}

func (f *fakeChatCreator) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	responses := f.queue[model]
	if len(responses) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := responses[0]
	f.queue[model] = responses[1:]
	chat := &fakeChat{response: res}
	f.calls = append(f.calls, chatCallRecord{model: model, config: config, chat: chat})
	return chat, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func TestGeneratorGenerateContent(t *testing.T) {
	originalSleep := sleep
	var slept []time.Duration
	sleep = func(d time.Duration) { slept = append(slept, d) }
	defer func() { sleep = originalSleep }()

	internal := genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}
	longQuota := genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry after 60 seconds",
	}

	cases := []struct {
		name       string
		maxRetries int
		responses  []fakeChatResponse
		want       string
		wantErr    bool
		calls      int
		sleeps     int
	}{
		{
			name:       "retries temporary error",
			maxRetries: 2,
			responses:  []fakeChatResponse{{err: internal}, {resp: textResponse("retry ok")}},
			want:       "retry ok",
			calls:      2,
			sleeps:     1,
		},
		{
			name:       "stops after retries exhausted",
			maxRetries: 2,
			responses:  []fakeChatResponse{{err: internal}, {err: internal}},
			wantErr:    true,
			calls:      2,
			sleeps:     1,
		},
		{
			name:       "long quota delay is not retried",
			maxRetries: 3,
			responses:  []fakeChatResponse{{err: longQuota}},
			wantErr:    true,
			calls:      1,
		},
		{
			name:       "empty answer is an error",
			maxRetries: 1,
			responses:  []fakeChatResponse{{resp: textResponse("   ")}},
			wantErr:    true,
			calls:      1,
		},
		{
			name:       "parts are joined",
			maxRetries: 1,
			responses: []fakeChatResponse{{resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{
					Content: &genai.Content{Parts: []*genai.Part{{Text: "{\"fit\":"}, nil, {Text: "true}"}}},
				}},
			}}},
			want:  "{\"fit\":\ntrue}",
			calls: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			slept = nil
			chats := newFakeChatCreator()
			for _, r := range tc.responses {
				chats.enqueue("gemini-2.5-flash", r.resp, r.err)
			}

			g := &Generator{
				chats:      chats,
				model:      "gemini-2.5-flash",
				maxRetries: tc.maxRetries,
				logger:     zap.NewNop(),
			}

			output, err := g.GenerateContent(context.Background(), "rank strictly", "[Inputs]")
			if (err != nil) != tc.wantErr {
				t.Fatalf("unexpected error: %v", err)
			}
			if output != tc.want {
				t.Fatalf("unexpected output: %q", output)
			}
			if len(chats.calls) != tc.calls {
				t.Fatalf("expected %d calls, got %d", tc.calls, len(chats.calls))
			}
			if len(slept) != tc.sleeps {
				t.Fatalf("expected %d sleeps, got %d", tc.sleeps, len(slept))
			}

			for _, call := range chats.calls {
				if call.config == nil || call.config.SystemInstruction == nil {
					t.Fatalf("expected system instruction to be set")
				}
				if got := call.config.SystemInstruction.Parts[0].Text; got != "rank strictly" {
					t.Fatalf("unexpected system instruction: %q", got)
				}
				if len(call.chat.messages) != 1 || call.chat.messages[0] != "[Inputs]" {
					t.Fatalf("unexpected chat message: %+v", call.chat.messages)
				}
			}
		})
	}
}

func TestRetryDelay(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		err     error
		attempt int
		delay   time.Duration
		retry   bool
	}{
		{name: "not api error", err: errors.New("boom"), attempt: 1},
		{name: "bad request", err: genai.APIError{Code: http.StatusBadRequest}, attempt: 1},
		{name: "unavailable first", err: genai.APIError{Code: http.StatusServiceUnavailable}, attempt: 1, delay: 2 * time.Second, retry: true},
		{name: "unavailable third", err: genai.APIError{Code: http.StatusServiceUnavailable}, attempt: 3, delay: 8 * time.Second, retry: true},
		{name: "quota short", err: genai.APIError{Code: http.StatusTooManyRequests, Message: "retry in 5s"}, attempt: 1, delay: 5 * time.Second, retry: true},
		{name: "quota without hint", err: genai.APIError{Code: http.StatusTooManyRequests}, attempt: 2, delay: 4 * time.Second, retry: true},
		{name: "wrapped", err: fmt.Errorf("generate content: %w", genai.APIError{Code: http.StatusBadGateway}), attempt: 1, delay: 2 * time.Second, retry: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			delay, retry := retryDelay(tc.err, tc.attempt)
			if retry != tc.retry || delay != tc.delay {
				t.Fatalf("got (%v, %v), want (%v, %v)", delay, retry, tc.delay, tc.retry)
			}
		})
	}
}

func TestGeneratorRejectsEmptyMessage(t *testing.T) {
	t.Parallel()

	chats := newFakeChatCreator()
	g := &Generator{chats: chats, model: "gemini-pro", maxRetries: 1, logger: zap.NewNop()}

	if _, err := g.GenerateContent(context.Background(), "sys", "  \n"); err == nil {
		t.Fatal("expected error for empty message")
	}
	if len(chats.calls) != 0 {
		t.Fatalf("expected no calls, got %d", len(chats.calls))
	}
}
