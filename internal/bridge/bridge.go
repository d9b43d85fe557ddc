package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"errorhelper/internal/chat"
	"errorhelper/internal/diagnostics"
	"errorhelper/internal/export"
	"errorhelper/internal/models"
	"errorhelper/internal/tts"
	"errorhelper/internal/voice"
)

var (
	ErrEmptyInput     = errors.New("bridge: empty input")
	ErrUnknownCommand = errors.New("bridge: unknown command")
)

// Texts surfaced through notify.
const (
	msgUnknownCommand = "unknown_command"
	msgNothingToRead  = "Nothing to read aloud."
	msgExportFailed   = "Failed to export explanation."
	msgExported       = "Explanation saved to %s"
)

// Bridge routes webview messages to the coordinators and pushes their results
// back to the panels.
type Bridge struct {
	cache    *diagnostics.Cache
	chat     *chat.Coordinator
	voice    *voice.Coordinator
	exporter export.Exporter
	logger   *zap.Logger

	mu     sync.RWMutex
	panels map[string]*Panel

	wg sync.WaitGroup
}

func New(cache *diagnostics.Cache, chatCoord *chat.Coordinator, voiceCoord *voice.Coordinator, exporter export.Exporter, logger *zap.Logger) *Bridge {
	return &Bridge{
		cache:    cache,
		chat:     chatCoord,
		voice:    voiceCoord,
		exporter: exporter,
		logger:   logger,
		panels:   make(map[string]*Panel),
	}
}

// Open registers a panel. Reopening an id replaces the previous surface but
// keeps its chat transcript. Tree and detail panels receive the current state.
func (b *Bridge) Open(id string, kind Kind, fingerprintID string, sender Sender) *Panel {
	panel := &Panel{ID: id, Kind: kind, FingerprintID: fingerprintID, sender: sender}

	b.mu.Lock()
	if old, ok := b.panels[id]; ok {
		old.close()
		panel.session = old.session
	} else {
		panel.session = chat.NewSession()
	}
	b.panels[id] = panel
	b.mu.Unlock()

	switch kind {
	case KindTree:
		panel.Post(models.Outbound{Command: models.CmdErrorsUpdate, Errors: ErrorViews(b.cache.Records())})
	case KindDetail:
		if record, ok := b.cache.Lookup(fingerprintID); ok && record.Solution.Status == diagnostics.StatusReady {
			panel.Post(loaded(record, record.Solution.Text))
		}
	}
	return panel
}

// Close detaches panel. Late results for it are dropped.
func (b *Bridge) Close(panel *Panel) {
	b.mu.Lock()
	if current, ok := b.panels[panel.ID]; ok && current == panel {
		delete(b.panels, panel.ID)
	}
	b.mu.Unlock()
	panel.close()
}

func (b *Bridge) Panel(id string) (*Panel, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.panels[id]
	return p, ok
}

// Dispatch handles one inbound message. Work that talks to a backend runs on its
// own goroutine; Wait joins them.
func (b *Bridge) Dispatch(ctx context.Context, panel *Panel, msg models.Inbound) error {
	switch msg.Command {
	case models.CmdChatSend:
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			return ErrEmptyInput
		}
		b.goRun(func() { b.chatSend(ctx, panel, text) })

	case models.CmdChatTTS:
		if strings.TrimSpace(msg.Text) == "" {
			panel.Post(notify(models.LevelError, msgNothingToRead))
			return ErrEmptyInput
		}
		b.goRun(func() {
			b.synthesize(ctx, panel, panel.ID+"/"+models.CmdChatTTS, tts.Request{Text: msg.Text}, chatAudioSink{panel})
		})

	case models.CmdSpeak:
		req := tts.Request{Text: msg.Text, VoiceID: msg.Voice, Style: msg.Style}
		b.goRun(func() {
			b.synthesize(ctx, panel, panel.ID+"/"+models.CmdSpeak, req, speakSink{panel})
		})

	case models.CmdDownloadPDF:
		b.goRun(func() { b.export(ctx, panel, msg.Text) })

	default:
		panel.Post(notify(models.LevelError, msgUnknownCommand))
		return fmt.Errorf("%w: %q", ErrUnknownCommand, msg.Command)
	}
	return nil
}

// Wait blocks until every dispatched request has finished.
func (b *Bridge) Wait() { b.wg.Wait() }

// ShowSolution delivers a finished explanation to the detail panels showing it.
func (b *Bridge) ShowSolution(record diagnostics.ErrorRecord, text string) {
	id := record.Fingerprint.ID()
	for _, p := range b.panelsOf(KindDetail) {
		if p.FingerprintID == id {
			p.Post(loaded(record, text))
		}
	}
}

// RenderTree pushes the error list to every tree panel.
func (b *Bridge) RenderTree(records []diagnostics.ErrorRecord) {
	panels := b.panelsOf(KindTree)
	if len(panels) == 0 {
		return
	}
	msg := models.Outbound{Command: models.CmdErrorsUpdate, Errors: ErrorViews(records)}
	for _, p := range panels {
		p.Post(msg)
	}
}

func (b *Bridge) panelsOf(kind Kind) []*Panel {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []*Panel
	for _, p := range b.panels {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

func (b *Bridge) goRun(fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn()
	}()
}

func (b *Bridge) chatSend(ctx context.Context, panel *Panel, text string) {
	err := b.chat.Send(ctx, panel.session, text, func(m chat.Message) {
		panel.Post(models.Outbound{Command: models.CmdChatAppend, Role: string(m.Role), Text: m.Text})
	})
	if err != nil {
		b.logger.Debug("chat send finished with error", zap.String("panel", panel.ID), zap.Error(err))
	}
}

func (b *Bridge) synthesize(ctx context.Context, panel *Panel, control string, req tts.Request, sink voice.Sink) {
	err := b.voice.Synthesize(ctx, control, req, sink)
	if errors.Is(err, voice.ErrBusy) {
		b.logger.Debug("ignoring synthesis while pending", zap.String("panel", panel.ID), zap.String("control", control))
	}
}

func (b *Bridge) export(ctx context.Context, panel *Panel, text string) {
	path, err := b.exporter.Export(ctx, text)
	if err != nil {
		b.logger.Error("export failed", zap.String("panel", panel.ID), zap.Error(err))
		panel.Post(notify(models.LevelError, msgExportFailed))
		return
	}
	panel.Post(notify(models.LevelInfo, fmt.Sprintf(msgExported, path)))
}

func loaded(record diagnostics.ErrorRecord, text string) models.Outbound {
	return models.Outbound{Command: models.CmdExplanationLoaded, Fingerprint: record.Fingerprint.ID(), Text: text}
}

func notify(level, message string) models.Outbound {
	return models.Outbound{Command: models.CmdNotify, Level: level, Message: message}
}

// speak: audio or error, then always speechFinished
type speakSink struct{ panel *Panel }

func (s speakSink) Audio(url string) {
	s.panel.Post(models.Outbound{Command: models.CmdPlayAudio, URL: url})
}

func (s speakSink) Failed(message string) {
	s.panel.Post(notify(models.LevelError, message))
}

func (s speakSink) Finished() {
	s.panel.Post(models.Outbound{Command: models.CmdSpeechFinished})
}

// chat:tts: the audio or the error is the terminal event
type chatAudioSink struct{ panel *Panel }

func (s chatAudioSink) Audio(url string) {
	s.panel.Post(models.Outbound{Command: models.CmdChatPlayAudio, URL: url})
}

func (s chatAudioSink) Failed(message string) {
	s.panel.Post(notify(models.LevelError, message))
}

func (s chatAudioSink) Finished() {}
