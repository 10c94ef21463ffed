package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	classifierrpc "mindtrack/internal/modules/emotion/adapter/out/rpc"

	"github.com/hashicorp/go-plugin"
)

// darkThreshold is the mean luminance (0-255) under which a frame reads as tired.
const darkThreshold = 50

type server struct{}

func (s *server) GetMetadata(_ context.Context, _ *classifierrpc.Empty) (*classifierrpc.Metadata, error) {
	return &classifierrpc.Metadata{
		Name:    "reference",
		Version: "1.0.0",
		Labels:  []string{"neutral", "tired"},
	}, nil
}

func (s *server) Classify(_ context.Context, in *classifierrpc.ClassifyRequest) (*classifierrpc.ClassifyResponse, error) {
	img, _, err := image.Decode(bytes.NewReader(in.Frame))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	mean := meanLuminance(img)
	if mean < darkThreshold {
		return &classifierrpc.ClassifyResponse{Label: "tired", Confidence: 1 - mean/darkThreshold}, nil
	}
	return &classifierrpc.ClassifyResponse{Label: "neutral", Confidence: 0.5}, nil
}

func meanLuminance(img image.Image) float64 {
	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return 0
	}
	total := 0.0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			total += (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257
		}
	}
	return total / float64(pixels)
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: classifierrpc.HandshakeConfig,
		Plugins:         classifierrpc.PluginMap(&server{}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
