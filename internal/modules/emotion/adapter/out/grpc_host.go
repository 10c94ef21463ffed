package out

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	classifierrpc "mindtrack/internal/modules/emotion/adapter/out/rpc"
	"mindtrack/internal/modules/emotion/domain"
	emotionout "mindtrack/internal/modules/emotion/port/out"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
)

// GRPCHost starts the classifier binary for each call and kills it after.
type GRPCHost struct {
	logger hclog.Logger
}

// NewGRPCHost uses logger for plugin process output; nil silences it.
func NewGRPCHost(logger hclog.Logger) emotionout.Host {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &GRPCHost{logger: logger}
}

func (h *GRPCHost) CheckLifecycle(ctx context.Context, manifest domain.Manifest) error {
	_, err := h.GetMetadata(ctx, manifest)
	return err
}

func (h *GRPCHost) GetMetadata(ctx context.Context, manifest domain.Manifest) (domain.Metadata, error) {
	client, closeFn, err := h.connect(manifest, defaultStartTimeout)
	if err != nil {
		return domain.Metadata{}, err
	}
	defer closeFn()

	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	meta, err := client.GetMetadata(callCtx)
	if err != nil {
		return domain.Metadata{}, fmt.Errorf("get metadata: %w", err)
	}
	return domain.Metadata{Name: meta.Name, Version: meta.Version, Labels: meta.Labels}, nil
}

func (h *GRPCHost) Classify(ctx context.Context, manifest domain.Manifest, frame []byte) (domain.Result, error) {
	client, closeFn, err := h.connect(manifest, defaultStartTimeout)
	if err != nil {
		return domain.Result{}, err
	}
	defer closeFn()

	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	response, err := client.Classify(callCtx, &classifierrpc.ClassifyRequest{Frame: frame})
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return domain.Result{}, fmt.Errorf("%w: %s", domain.ErrClassifierTimeout, manifest.Name)
		}
		return domain.Result{}, fmt.Errorf("classify frame: %w", err)
	}
	return domain.Result{Raw: response.Label, Confidence: response.Confidence}, nil
}

func (h *GRPCHost) connect(manifest domain.Manifest, startTimeout time.Duration) (classifierrpc.ClassifierClient, func(), error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  classifierrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          classifierrpc.PluginMap(nil),
		Cmd:              exec.Command(manifest.Binary),
		Managed:          true,
		StartTimeout:     startTimeout,
		Logger:           h.logger.Named(manifest.Name),
	})
	closeFn := func() { client.Kill() }

	rpcClient, err := client.Client()
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("start classifier: %w", err)
	}
	raw, err := rpcClient.Dispense(classifierrpc.PluginMapKey)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("dispense classifier: %w", err)
	}
	typed, ok := raw.(classifierrpc.ClassifierClient)
	if !ok {
		closeFn()
		return nil, nil, fmt.Errorf("classifier rpc client type mismatch")
	}
	return typed, closeFn, nil
}

func callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
