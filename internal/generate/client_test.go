package generate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/neutantr-dot/dual-narrative/internal/config"
)

// #region mock
type mockConn struct {
	method string
	req    *structpb.Struct
	resp   *structpb.Struct
	err    error
	calls  int
}

func (m *mockConn) Invoke(_ context.Context, method string, args, reply any, _ ...grpc.CallOption) error {
	m.calls++
	m.method = method
	m.req = proto.Clone(args.(*structpb.Struct)).(*structpb.Struct)
	if m.err != nil {
		return m.err
	}
	proto.Merge(reply.(*structpb.Struct), m.resp)
	return nil
}

func (m *mockConn) NewStream(context.Context, *grpc.StreamDesc, string, ...grpc.CallOption) (grpc.ClientStream, error) {
	return nil, errors.New("streaming not supported")
}

func textResponse(t *testing.T, text string) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(map[string]any{"text": text})
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	return s
}

func testConfig() config.GenerativeConfig {
	return config.DefaultConfig().Generative
}
// #endregion mock

// #region constructor-tests
func TestNewClient(t *testing.T) {
	cfg := testConfig()
	cfg.Addr = "localhost:0"
	c, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}
	defer c.Close()
}

func TestNewClient_BadTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = "whenever"
	if _, err := NewClient(cfg); err == nil {
		t.Fatal("expected timeout parse error")
	}
}

func TestNewClientWithConn_CloseIsNoop(t *testing.T) {
	c := NewClientWithConn(&mockConn{}, testConfig())
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
// #endregion constructor-tests

// #region generate-tests
func TestGenerate_Success(t *testing.T) {
	conn := &mockConn{resp: textResponse(t, "She waits.\nHe turns away.\nClassification: M2\n")}
	c := NewClientWithConn(conn, testConfig())

	story, err := c.Generate(context.Background(), []string{"you never listen"}, []string{"push", "hold"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Story{Lines: []string{"She waits.", "He turns away."}, Classification: "M2"}
	if diff := cmp.Diff(want, story); diff != "" {
		t.Errorf("story mismatch (-want +got):\n%s", diff)
	}
	if conn.method != GenerateMethod {
		t.Errorf("method = %q", conn.method)
	}
	fields := conn.req.GetFields()
	if fields["model"].GetStringValue() != "openai-gpt4" {
		t.Errorf("model = %v", fields["model"])
	}
	if fields["max_tokens"].GetNumberValue() != 800 {
		t.Errorf("max_tokens = %v", fields["max_tokens"])
	}
	if !strings.Contains(fields["prompt"].GetStringValue(), "Voice Inputs:\nyou never listen") {
		t.Errorf("prompt missing voice inputs: %q", fields["prompt"].GetStringValue())
	}
}

func TestGenerate_Error(t *testing.T) {
	rpcErr := errors.New("rpc failed")
	c := NewClientWithConn(&mockConn{err: rpcErr}, testConfig())

	_, err := c.Generate(context.Background(), nil, nil)
	if !errors.Is(err, rpcErr) {
		t.Errorf("expected wrapped rpc error, got: %v", err)
	}
}

func TestGenerate_EmptyResponse(t *testing.T) {
	c := NewClientWithConn(&mockConn{resp: textResponse(t, "  ")}, testConfig())
	if _, err := c.Generate(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestBuildPrompt(t *testing.T) {
	cfg := testConfig()
	got := BuildPrompt(cfg, []string{"a", "b"}, []string{"c"})
	for _, want := range []string{
		"You are a storytelling assistant.\n\nVoice Inputs:\na\nb\n\nBackground Inputs:\nc",
		"Generate a dual narrative story in 20 lines.",
		"labels: F0, F1, F2, F3, M0, M1, M2, M3, N/A.",
		"prefixed with 'Classification:'",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q:\n%s", want, got)
		}
	}

	cfg.IncludeClassification = false
	if strings.Contains(BuildPrompt(cfg, nil, nil), "Classify") {
		t.Error("classification instruction present when disabled")
	}
}

func TestSplitStory(t *testing.T) {
	cfg := testConfig()
	tests := []struct {
		name string
		text string
		want Story
	}{
		{"labelled", "one\ntwo\nClassification: F1", Story{Lines: []string{"one", "two"}, Classification: "F1"}},
		{"unknown label", "one\nClassification: X9", Story{Lines: []string{"one"}, Classification: "N/A"}},
		{"no label line", "one\ntwo", Story{Lines: []string{"one", "two"}, Classification: "N/A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, SplitStory(tt.text, cfg)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}

	cfg.IncludeClassification = false
	got := SplitStory("one\nClassification: F1", cfg)
	if len(got.Lines) != 2 || got.Classification != "N/A" {
		t.Errorf("disabled classification: %+v", got)
	}
}
// #endregion generate-tests

// #region refine-tests
func TestRefine_OffTopic(t *testing.T) {
	conn := &mockConn{}
	c := NewClientWithConn(conn, testConfig())

	got, err := c.Refine(context.Background(), "narrative", "what's the weather?")
	if !errors.Is(err, ErrOffTopic) {
		t.Fatalf("err = %v, want ErrOffTopic", err)
	}
	if got != OffTopicReply {
		t.Errorf("reply = %q", got)
	}
	if conn.calls != 0 {
		t.Error("narrator called for off-topic request")
	}
}

func TestRefine_Success(t *testing.T) {
	conn := &mockConn{resp: textResponse(t, "The kitchen becomes a refuge.\n")}
	c := NewClientWithConn(conn, testConfig())

	got, err := c.Refine(context.Background(), "Story:\nShe waits.", "Move the Story to the kitchen")
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	want := "[AI Prompt Response]\nYou asked: Move the Story to the kitchen\n\nThe kitchen becomes a refuge."
	if got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
	if !strings.Contains(conn.req.GetFields()["prompt"].GetStringValue(), "Narrative:\nStory:\nShe waits.") {
		t.Error("prompt missing narrative")
	}
}
// #endregion refine-tests
