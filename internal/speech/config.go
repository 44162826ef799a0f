package speech

// Playback parameters matching the riff-24khz-16bit-mono-pcm TTS format.
const (
	SampleRate   = 24000
	ChannelCount = 1
)
