package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// MaxFrameBytes caps a single uploaded frame.
const MaxFrameBytes = 10 << 20

type Label string

const (
	LabelNeutral   Label = "neutral"
	LabelHappy     Label = "happy"
	LabelSad       Label = "sad"
	LabelTired     Label = "tired"
	LabelSurprised Label = "surprised"
)

var (
	ErrNoClassifier       = errors.New("no classifier configured")
	ErrClassifierDisabled = errors.New("classifier is disabled")
	ErrChecksumMismatch   = errors.New("classifier checksum mismatch")
	ErrClassifierTimeout  = errors.New("classifier timeout")
	ErrEmptyFrame         = errors.New("frame is empty")
	ErrFrameTooLarge      = fmt.Errorf("frame exceeds %d bytes", MaxFrameBytes)
)

var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// rawLabels maps what face-analysis models report onto study labels.
var rawLabels = map[string]Label{
	"sad":       LabelSad,
	"angry":     LabelTired,
	"fear":      LabelTired,
	"disgust":   LabelTired,
	"tired":     LabelTired,
	"happy":     LabelHappy,
	"surprise":  LabelSurprised,
	"surprised": LabelSurprised,
	"neutral":   LabelNeutral,
}

// MapRaw normalizes a classifier label. Unknown labels become neutral.
func MapRaw(raw string) Label {
	if label, ok := rawLabels[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return label
	}
	return LabelNeutral
}

type Manifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Binary  string `json:"binary"`
	SHA256  string `json:"sha256"`
	Enabled bool   `json:"enabled"`
}

func (m Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("classifier name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("classifier version is required")
	}
	if m.Binary == "" {
		return fmt.Errorf("classifier binary path is required")
	}
	if !sha256Pattern.MatchString(m.SHA256) {
		return fmt.Errorf("classifier sha256 must be lowercase 64-char hex")
	}
	return nil
}

type Metadata struct {
	Name    string
	Version string
	Labels  []string
}

// Result is one classification as reported by a classifier.
type Result struct {
	Classifier string
	Raw        string
	Label      Label
	Confidence float64
}

func ValidateFrame(frame []byte) error {
	if len(frame) == 0 {
		return ErrEmptyFrame
	}
	if len(frame) > MaxFrameBytes {
		return ErrFrameTooLarge
	}
	return nil
}
