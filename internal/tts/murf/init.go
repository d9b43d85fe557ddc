package murf

import "errorhelper/internal/tts"

func init() {
	tts.RegisterSynthesizer(providerName, func() (tts.Synthesizer, error) {
		config, err := NewConfig()
		if err != nil {
			return nil, err
		}
		return NewClient(config, nil), nil
	})
}
