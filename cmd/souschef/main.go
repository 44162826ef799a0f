// souschef — a voice-and-camera cooking assistant.
//
// Usage:
//
//	souschef [-verbose] [-quiet] [-voice] [-snapshot path]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/nrehmani/souschef/internal/camera"
	"github.com/nrehmani/souschef/internal/display"
	"github.com/nrehmani/souschef/internal/domain"
	"github.com/nrehmani/souschef/internal/gemini"
	"github.com/nrehmani/souschef/internal/logger"
	"github.com/nrehmani/souschef/internal/session"
	"github.com/nrehmani/souschef/internal/speech"
)

// Environment variable names.
const (
	EnvGeminiKey         = "GEMINI_API_KEY"
	EnvGeminiEndpoint    = "GEMINI_ENDPOINT"
	EnvAzureSpeechKey    = "AZURE_SPEECH_KEY"
	EnvAzureSpeechRegion = "AZURE_SPEECH_REGION"
)

const defaultGeminiEndpoint = "https://generativelanguage.googleapis.com"

func main() {
	_ = godotenv.Load()

	verbose := flag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := flag.Bool("quiet", false, "disable all logging")
	logFile := flag.String("log-file", ".souschef-logs/souschef.log", "file to write logs to (use \"stderr\" to log to console)")
	noSpeech := flag.Bool("no-speech", false, "disable text-to-speech even if Azure keys are set")
	cacheDir := flag.String("cache-dir", ".souschef-cache", "directory for the persistent TTS audio cache (empty disables disk caching)")
	ttsVoice := flag.String("tts-voice", speech.DefaultVoice, "Azure TTS voice name")
	snapshot := flag.String("snapshot", "", "path to a camera snapshot file to watch (empty disables the camera)")
	voice := flag.Bool("voice", false, "enable voice input via local Whisper STT")
	whisperBin := flag.String("whisper-bin", "whisper-cli", "path to the whisper-cpp CLI binary")
	whisperModel := flag.String("whisper-model", "bin/ggml-small.bin", "path to the Whisper GGML model file")
	recordSecs := flag.Int("record-secs", 2, "seconds per voice recording chunk")
	flag.Parse()

	// Configure logger.
	logLevel := logger.LevelNormal
	if *verbose {
		logLevel = logger.LevelVerbose
	}
	if *quiet {
		logLevel = logger.LevelOff
	}

	// Direct logs to a file by default so the REPL stays clean.
	var logOut io.Writer = os.Stderr
	if *logFile != "" && *logFile != "stderr" {
		dir := filepath.Dir(*logFile)
		if dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", *logFile, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}

	// Redirect Go's default log package (used by third-party libs like
	// the whisper transcriber) to the same output so it doesn't spam
	// the terminal.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	log := logger.New(logLevel, logOut)

	// Set up context — cancelled when the UI quits.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// AI backend. The key is mandatory: without it there is no assistant.
	geminiKey := os.Getenv(EnvGeminiKey)
	if geminiKey == "" {
		fmt.Fprintf(os.Stderr, "error: %s is not set\n", EnvGeminiKey)
		os.Exit(1)
	}
	geminiEndpoint := os.Getenv(EnvGeminiEndpoint)
	if geminiEndpoint == "" {
		geminiEndpoint = defaultGeminiEndpoint
	}
	client := gemini.NewClient(geminiEndpoint, geminiKey, log)
	agent := gemini.NewAgent(client, log)

	// Voice input (STT), optional.
	var recognizer speech.Recognizer
	if *voice {
		if _, err := os.Stat(*whisperModel); err != nil {
			fmt.Fprintf(os.Stderr, "error: whisper model not found at %s\n", *whisperModel)
			os.Exit(1)
		}
		rec, err := speech.NewWhisperRecognizer(*whisperBin, *whisperModel, log,
			speech.WithChunkDuration(time.Duration(*recordSecs)*time.Second),
		)
		if err != nil {
			log.Error("voice input disabled: %v", err)
		} else {
			recognizer = rec
			log.Info("voice input enabled (bin=%s, model=%s, chunk=%ds)", *whisperBin, *whisperModel, *recordSecs)
		}
	}

	// Voice output (TTS), optional.
	var synth speech.Synthesizer
	var player speech.AudioPlayer
	azureKey := os.Getenv(EnvAzureSpeechKey)
	azureRegion := os.Getenv(EnvAzureSpeechRegion)
	if azureKey != "" && azureRegion != "" && !*noSpeech {
		azure := speech.NewAzureSynthesizer(azureKey, azureRegion, log, speech.WithVoice(*ttsVoice))
		p, err := speech.NewOtoPlayer(log)
		if err != nil {
			log.Error("audio player init failed, speech output disabled: %v", err)
		} else {
			cache := speech.NewCachingSynthesizer(azure, azure.Voice(), *cacheDir, log)
			// Warm the cache with the short filler lines in the background
			// so startup isn't gated on a dozen TTS round-trips.
			go cache.Prefetch(ctx, append(speech.ThinkingFillers(), speech.ListeningFillers()...)...)
			synth = cache
			player = p
			log.Info("TTS enabled (voice=%s, region=%s)", azure.Voice(), azureRegion)
		}
	} else if !*noSpeech {
		log.Info("TTS disabled: set %s and %s env vars to enable", EnvAzureSpeechKey, EnvAzureSpeechRegion)
	}

	var vox *speech.Voice
	if synth != nil {
		vox = speech.NewVoice(synth, player, recognizer, log)
	} else {
		vox = speech.NewVoice(silentSynth{}, noopPlayer{}, recognizer, log)
	}
	vox.Start(ctx)

	// Camera, optional: an external tool keeps a snapshot file fresh.
	var capturer domain.FrameCapturer
	if *snapshot != "" {
		source, err := camera.NewFileSource(*snapshot, log)
		if err != nil {
			log.Error("camera disabled: %v", err)
		} else {
			defer source.Close()
			capturer = camera.NewCapturer(source, log)
			log.Info("camera enabled (snapshot=%s)", *snapshot)
		}
	}

	orch := session.New(agent, vox, capturer, log)

	ui := display.NewUI(func() display.BarStatus {
		st := orch.Status()
		return display.BarStatus{
			RecipeName:     st.RecipeName,
			Cooking:        st.Cooking,
			Paused:         st.Paused,
			Waiting:        st.Waiting,
			StepIndex:      st.StepIndex,
			StepCount:      st.StepCount,
			CameraEnabled:  st.CameraEnabled,
			CameraCooldown: st.CameraCooldown,
			VoiceState:     vox.State().String(),
		}
	})

	app := &cliApp{
		orch:  orch,
		voice: vox,
		log:   log,
		ui:    ui,
	}

	fmt.Println(display.RenderBanner())
	if recognizer != nil {
		fmt.Println(display.BannerStyle.Render("  Voice mode available — type 'listen' to toggle the microphone."))
	}
	fmt.Println(display.BannerStyle.Render("  Tell me what you want to cook. Type 'quit' to exit."))
	fmt.Println()

	// Run app logic in a background goroutine.
	go func() {
		ui.WaitReady()
		app.run(ctx)
		ui.Quit()
	}()

	// Bubble Tea owns the terminal — blocks until quit.
	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
	}
	cancel()
}

type cliApp struct {
	orch  *session.Orchestrator
	voice *speech.Voice
	log   *logger.Logger
	ui    *display.UI
}

func (a *cliApp) run(ctx context.Context) {
	a.orch.Greet()
	a.ui.PrintChat(speech.LineWelcome())
	a.ui.Println("")

	uiCh := a.ui.InputChan()
	// Nil-safe: receiving on a nil channel blocks forever, so the select
	// simply never takes this case when voice input is off.
	voiceCh := a.voice.Transcripts()

	for {
		var input string
		var ok bool

		select {
		case <-ctx.Done():
			return
		case input, ok = <-uiCh:
			if !ok {
				return
			}
		case input = <-voiceCh:
			// Show what was heard so the user can catch bad transcripts.
			a.ui.PrintVoice(input)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "quit", "exit":
			a.voice.Speak(speech.LineBye())
			a.ui.PrintChat(speech.LineBye())
			return
		case "listen":
			a.toggleListening(ctx)
			continue
		}

		reply, err := a.orch.ProcessUserMessage(ctx, input)
		if err != nil {
			a.log.Error("processing input: %v", err)
			continue
		}
		if reply != "" {
			a.ui.PrintChat(reply)
		}
	}
}

func (a *cliApp) toggleListening(ctx context.Context) {
	listening, err := a.voice.StartListening(ctx)
	if err != nil {
		a.ui.PrintUrgent("Voice input isn't available. Start with -voice and a Whisper model.")
		return
	}
	if listening {
		a.ui.PrintHint(speech.LineListening())
	} else {
		a.ui.PrintHint("Microphone off.")
	}
}

// silentSynth and noopPlayer keep the Voice facade functional when TTS is
// disabled: queue semantics still hold, nothing is audible.
type silentSynth struct{}

func (silentSynth) Synthesize(context.Context, string) ([]byte, error) { return []byte{}, nil }

type noopPlayer struct{}

func (noopPlayer) Play([]byte) error { return nil }
func (noopPlayer) Stop()             {}
