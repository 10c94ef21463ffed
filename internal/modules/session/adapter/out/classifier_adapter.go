package out

import (
	"context"

	emotionin "mindtrack/internal/modules/emotion/port/in"
	"mindtrack/internal/modules/session/domain"
	sessionout "mindtrack/internal/modules/session/port/out"
)

// PluginClassifier bridges frames to the emotion module's classifier plugins.
type PluginClassifier struct {
	emotion emotionin.Usecase
}

func NewPluginClassifier(emotion emotionin.Usecase) sessionout.EmotionClassifier {
	return &PluginClassifier{emotion: emotion}
}

func (c *PluginClassifier) Classify(ctx context.Context, frame []byte) domain.Emotion {
	emotion, err := domain.ParseEmotion(c.emotion.Detect(ctx, frame))
	if err != nil {
		return domain.EmotionNeutral
	}
	return emotion
}
