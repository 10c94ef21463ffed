package out_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	emotionout "mindtrack/internal/modules/emotion/adapter/out"
	"mindtrack/internal/modules/emotion/domain"
)

func TestGRPCHostIntegrationReferenceClassifier(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the reference classifier")
	}
	binPath, checksum := buildReferenceClassifier(t)
	manifest := domain.Manifest{
		Name:    "reference",
		Version: "1.0.0",
		Binary:  binPath,
		SHA256:  checksum,
		Enabled: true,
	}

	host := emotionout.NewGRPCHost(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := host.CheckLifecycle(ctx, manifest); err != nil {
		t.Fatalf("check lifecycle: %v", err)
	}
	meta, err := host.GetMetadata(ctx, manifest)
	if err != nil {
		t.Fatalf("get metadata: %v", err)
	}
	if meta.Name != "reference" || len(meta.Labels) == 0 {
		t.Fatalf("unexpected metadata: %+v", meta)
	}

	dark, err := host.Classify(ctx, manifest, solidPNG(t, 5))
	if err != nil {
		t.Fatalf("classify dark frame: %v", err)
	}
	if domain.MapRaw(dark.Raw) != domain.LabelTired {
		t.Fatalf("dark frame should read as tired, got %q", dark.Raw)
	}
	bright, err := host.Classify(ctx, manifest, solidPNG(t, 200))
	if err != nil {
		t.Fatalf("classify bright frame: %v", err)
	}
	if domain.MapRaw(bright.Raw) != domain.LabelNeutral {
		t.Fatalf("bright frame should read as neutral, got %q", bright.Raw)
	}
	if _, err := host.Classify(ctx, manifest, []byte("not an image")); err == nil {
		t.Fatalf("expected decode error for garbage frame")
	}
}

func solidPNG(t *testing.T, gray uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetGray(x, y, color.Gray{Y: gray})
		}
	}
	buf := bytes.Buffer{}
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func buildReferenceClassifier(t *testing.T) (string, string) {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "classifier-reference")
	cmd := exec.Command("go", "build", "-o", binPath, "./plugins/classifier-reference")
	cmd.Dir = repositoryRoot(t)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build reference classifier: %v\n%s", err, string(out))
	}
	payload, err := os.ReadFile(binPath)
	if err != nil {
		t.Fatalf("read built classifier: %v", err)
	}
	hash := sha256.Sum256(payload)
	return binPath, hex.EncodeToString(hash[:])
}

func repositoryRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller failed")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "../../../../../"))
}
