package generate

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/neutantr-dot/dual-narrative/internal/config"
)

// #region types
// GenerateMethod is the full gRPC method name served by the narrator.
const GenerateMethod = "/dualnarrative.v1.Narrator/Generate"

// UnavailableMarker prefixes the narrative when the narrator could not be reached.
const UnavailableMarker = "[Generative AI unavailable]"

// OffTopicReply is returned by Refine for requests that are not about the story.
const OffTopicReply = "[AI Prompt] Please interact with the storyline. General topics are not supported."

// ErrOffTopic marks a refine request that does not mention the story.
var ErrOffTopic = errors.New("refine request is not about the story")

// Story is a generated storyline plus the label the narrator assigned.
type Story struct {
	Lines          []string `json:"lines"`
	Classification string   `json:"classification"`
}
// #endregion types

// #region client-struct
// Client wraps the gRPC connection to the remote narrator. Messages are
// google.protobuf.Struct so no generated stubs are needed.
type Client struct {
	conn    *grpc.ClientConn
	cc      grpc.ClientConnInterface
	cfg     config.GenerativeConfig
	timeout time.Duration
}
// #endregion client-struct

// #region constructor
// NewClient connects to the narrator at cfg.Addr.
func NewClient(cfg config.GenerativeConfig) (*Client, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	conn, err := grpc.NewClient(cfg.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", cfg.Addr, err)
	}
	return &Client{conn: conn, cc: conn, cfg: cfg, timeout: timeout}, nil
}

// NewClientWithConn creates a Client over an injected connection.
// Used for testing without a real gRPC server.
func NewClientWithConn(cc grpc.ClientConnInterface, cfg config.GenerativeConfig) *Client {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		timeout = 30 * time.Second
	}
	return &Client{cc: cc, cfg: cfg, timeout: timeout}
}
// #endregion constructor

// #region close
// Close shuts down the gRPC connection, if the client owns one.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
// #endregion close

// #region generate
// Generate asks the narrator for a storyline built from the voice and
// background inputs.
func (c *Client) Generate(ctx context.Context, voice, background []string) (Story, error) {
	text, err := c.call(ctx, BuildPrompt(c.cfg, voice, background))
	if err != nil {
		return Story{}, err
	}
	return SplitStory(text, c.cfg), nil
}

// BuildPrompt assembles the user prompt sent to the narrator.
func BuildPrompt(cfg config.GenerativeConfig, voice, background []string) string {
	var sb strings.Builder
	sb.WriteString(cfg.SystemPrompt)
	sb.WriteString("\n\nVoice Inputs:\n")
	sb.WriteString(strings.Join(voice, "\n"))
	sb.WriteString("\n\nBackground Inputs:\n")
	sb.WriteString(strings.Join(background, "\n"))
	fmt.Fprintf(&sb, "\n\nGenerate a %s story in %d lines.\n", cfg.Format, cfg.Lines)
	if cfg.IncludeClassification {
		fmt.Fprintf(&sb, "\nClassify the story using one of the following labels: %s.\n", strings.Join(cfg.ClassificationLabels, ", "))
		sb.WriteString("Return the story first, then the classification label on a new line prefixed with 'Classification:'")
	}
	return sb.String()
}

// SplitStory separates the trailing "Classification:" line from the story.
// Labels outside the configured set become the fallback label.
func SplitStory(text string, cfg config.GenerativeConfig) Story {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	story := Story{Lines: lines, Classification: cfg.FallbackLabel}
	if !cfg.IncludeClassification || len(lines) == 0 {
		return story
	}
	last := strings.TrimSpace(lines[len(lines)-1])
	label, ok := strings.CutPrefix(last, "Classification:")
	if !ok {
		return story
	}
	story.Lines = lines[:len(lines)-1]
	label = strings.TrimSpace(label)
	if len(cfg.ClassificationLabels) == 0 || slices.Contains(cfg.ClassificationLabels, label) {
		story.Classification = label
	}
	return story
}
// #endregion generate

// #region refine
// Refine expands an existing narrative on request. Requests that do not
// mention the story are refused with OffTopicReply and ErrOffTopic.
func (c *Client) Refine(ctx context.Context, narrative, request string) (string, error) {
	if err := CheckRefine(request); err != nil {
		return OffTopicReply, err
	}
	prompt := fmt.Sprintf("%s\n\nNarrative:\n%s\n\nRequest: %s\nRespond with a symbolic expansion of the story only.",
		c.cfg.SystemPrompt, narrative, request)
	text, err := c.call(ctx, prompt)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("[AI Prompt Response]\nYou asked: %s\n\n%s", request, strings.TrimSpace(text)), nil
}

// CheckRefine enforces the story-only rule.
func CheckRefine(request string) error {
	if !strings.Contains(strings.ToLower(request), "story") {
		return ErrOffTopic
	}
	return nil
}
// #endregion refine

// #region call
func (c *Client) call(ctx context.Context, prompt string) (string, error) {
	req, err := structpb.NewStruct(map[string]any{
		"model":         c.cfg.Model,
		"system_prompt": c.cfg.SystemPrompt,
		"prompt":        prompt,
		"temperature":   c.cfg.Temperature,
		"max_tokens":    float64(c.cfg.MaxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, GenerateMethod, req, resp); err != nil {
		return "", fmt.Errorf("generate rpc: %w", err)
	}
	text := resp.GetFields()["text"].GetStringValue()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("generate rpc: empty response")
	}
	return text, nil
}
// #endregion call
