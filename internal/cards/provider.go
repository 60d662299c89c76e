// Package cards loads the welcome adaptive-card asset. The card body is an
// opaque JSON value from the bot's perspective: it is parsed only to prove
// it is well-formed and then forwarded unchanged.
package cards

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"welcome-bot/internal/domain"
)

// AdaptiveCardContentType marks an attachment as an adaptive card.
const AdaptiveCardContentType = "application/vnd.microsoft.card.adaptive"

// DefaultWelcomeCardPath is the fixed relative path of the welcome card
// asset shipped with the bot.
const DefaultWelcomeCardPath = "Dialogs/Welcome/Resources/weatherForecast.json"

// FileProvider reads the card from a JSON file on every call. A read or
// parse failure is a configuration error with no fallback.
type FileProvider struct {
	path string
}

// NewFileProvider creates a FileProvider for the given asset path.
func NewFileProvider(path string) (*FileProvider, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("cards: asset path must not be empty")
	}
	return &FileProvider{path: path}, nil
}

// WelcomeCard reads and parses the asset, wrapping it with the adaptive
// card content type.
func (p *FileProvider) WelcomeCard() (domain.Attachment, error) {
	raw, err := os.ReadFile(p.path)
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("cards: read asset %q: %w", p.path, err)
	}

	var content any
	if err := json.Unmarshal(raw, &content); err != nil {
		return domain.Attachment{}, fmt.Errorf("cards: parse asset %q: %w", p.path, err)
	}

	return domain.Attachment{
		ContentType: AdaptiveCardContentType,
		Content:     content,
	}, nil
}
