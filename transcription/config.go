package transcription

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// DecodeConfig fills dst from a factory config map using mapstructure tags.
// Durations may be given as strings ("90s") and numbers may arrive as
// strings, as they do from environment overrides.
func DecodeConfig(src map[string]any, dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           dst,
	})
	if err != nil {
		return fmt.Errorf("build config decoder: %w", err)
	}
	if err := dec.Decode(src); err != nil {
		return fmt.Errorf("decode adapter config: %w", err)
	}
	return nil
}
