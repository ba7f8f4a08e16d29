package main

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/fpang/media-hooks/internal/pipeline"
)

type runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// GenerateHooksInput is the generate_hooks argument object.
type GenerateHooksInput struct {
	Path     string `json:"path" jsonschema:"absolute path of a local image or video file"`
	Language string `json:"language,omitempty" jsonschema:"optional BCP 47 language hint, default en"`
}

// GenerateHooksOutput mirrors the HTTP response body.
type GenerateHooksOutput struct {
	Captions []string `json:"captions" jsonschema:"title, engaging question and witty caption, in that order"`
	Hashtags string   `json:"hashtags" jsonschema:"space separated hashtags"`
}

func newServer(r runner, maxBytes int64) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "media-hooks", Version: commitHash}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_hooks",
		Description: "Describe a local photo or video and return a title, a question, a witty caption and hashtags for a social media post.",
	}, generateHooks(r, maxBytes))
	return server
}

func generateHooks(r runner, maxBytes int64) mcp.ToolHandlerFor[GenerateHooksInput, GenerateHooksOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in GenerateHooksInput) (*mcp.CallToolResult, GenerateHooksOutput, error) {
		req, err := pipeline.RequestFromFile(in.Path, in.Language, maxBytes)
		if err != nil {
			return nil, GenerateHooksOutput{}, err
		}
		res, err := r.Run(ctx, req)
		if err != nil {
			log.Warn().Err(err).Str("path", in.Path).Msg("generate_hooks failed")
			return nil, GenerateHooksOutput{}, err
		}
		return nil, GenerateHooksOutput{
			Captions: res.Captions[:],
			Hashtags: res.Hashtags,
		}, nil
	}
}
