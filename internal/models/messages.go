package models

// Webview bridge commands, UI -> host.
const (
	CmdChatSend    = "chat:send"
	CmdChatTTS     = "chat:tts"
	CmdSpeak       = "speak"
	CmdDownloadPDF = "downloadPdf"
)

// Webview bridge commands, host -> UI.
const (
	CmdChatAppend        = "chat:append"
	CmdChatPlayAudio     = "chat:playAudio"
	CmdPlayAudio         = "playAudio"
	CmdSpeechFinished    = "speechFinished"
	CmdExplanationLoaded = "explanationLoaded"
	CmdNotify            = "notify"
	CmdErrorsUpdate      = "errors:update"
)

const (
	RoleUser = "user"
	RoleAI   = "ai"
)

const (
	LevelInfo  = "info"
	LevelError = "error"
)

// Inbound is a message posted by a webview.
type Inbound struct {
	Command string `json:"command"`
	Text    string `json:"text,omitempty"`
	Voice   string `json:"voice,omitempty"`
	Style   string `json:"style,omitempty"`
}

// Outbound is a message posted to a webview.
type Outbound struct {
	Command     string      `json:"command"`
	Role        string      `json:"role,omitempty"`
	Text        string      `json:"text,omitempty"`
	URL         string      `json:"url,omitempty"`
	Fingerprint string      `json:"fingerprint,omitempty"`
	Level       string      `json:"level,omitempty"`
	Message     string      `json:"message,omitempty"`
	Errors      []ErrorView `json:"errors,omitempty"`
}
