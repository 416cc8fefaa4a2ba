package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

func TestBuildMessages(t *testing.T) {
	history := []Message{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "hi there"},
		{Role: "garbage", Content: "unknown role turns into user"},
	}

	messages := buildMessages("be brief", history, "what now?")
	require.Len(t, messages, 5)
	require.Equal(t, openai.ChatMessageRoleSystem, messages[0].Role)
	require.Equal(t, "be brief", messages[0].Content)
	require.Equal(t, RoleUser, messages[1].Role)
	require.Equal(t, RoleAssistant, messages[2].Role)
	require.Equal(t, RoleUser, messages[3].Role)
	require.Equal(t, RoleUser, messages[4].Role)
	require.Equal(t, "what now?", messages[4].Content)
}

func TestBuildMessagesWithoutSystemPrompt(t *testing.T) {
	messages := buildMessages("", nil, "solo")
	require.Len(t, messages, 1)
	require.Equal(t, RoleUser, messages[0].Role)
}

func TestCompleteRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "test-model", req.Model)
		require.NotEmpty(t, req.Messages)
		require.Equal(t, "transcribed question", req.Messages[len(req.Messages)-1].Content)

		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: RoleAssistant, Content: "an answer"}},
			},
		})
	}))
	defer server.Close()

	client := New("sk-test", server.URL, "test-model", "be brief", nil)
	reply, err := client.Complete(context.Background(), nil, "transcribed question")
	require.NoError(t, err)
	require.Equal(t, "an answer", reply)
}

func TestCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{})
	}))
	defer server.Close()

	client := New("sk-test", server.URL, "", "", nil)
	_, err := client.Complete(context.Background(), nil, "prompt")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no choices")
}
