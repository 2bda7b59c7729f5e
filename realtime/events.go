package realtime

import "encoding/json"

// Event types exchanged with the realtime API.
const (
	TypeSessionUpdate      = "session.update"
	TypeItemCreate         = "conversation.item.create"
	TypeResponseCreate     = "response.create"
	TypeFunctionCallDone   = "response.function_call_arguments.done"
	TypeError              = "error"
	TypeSpeechStopped      = "input_audio_buffer.speech_stopped"
	TypeResponseDone       = "response.done"
	TypeSessionCreated     = "session.created"
	TypeFunctionCallOutput = "function_call_output"
)

// Event is one server event. Raw holds the complete JSON object.
type Event struct {
	Type string
	Raw  json.RawMessage
}

// Part is one piece of a message item.
type Part struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// TextPart returns an input_text part.
func TextPart(text string) Part { return Part{Type: "input_text", Text: text} }

// ImagePart returns an input_image part holding a data or https URL.
func ImagePart(url string) Part { return Part{Type: "input_image", ImageURL: url} }

// Item is a conversation item.
type Item struct {
	Type    string `json:"type"`
	Role    string `json:"role,omitempty"`
	Content []Part `json:"content,omitempty"`
	CallID  string `json:"call_id,omitempty"`
	Output  string `json:"output,omitempty"`
}

type itemCreate struct {
	Type string `json:"type"`
	Item Item   `json:"item"`
}

type responseCreate struct {
	Type string `json:"type"`
}

// SessionConfig is the body of session.update.
type SessionConfig struct {
	Type             string       `json:"type"`
	Model            string       `json:"model,omitempty"`
	Instructions     string       `json:"instructions,omitempty"`
	OutputModalities []string     `json:"output_modalities,omitempty"`
	Audio            *AudioConfig `json:"audio,omitempty"`
	Tools            []any        `json:"tools,omitempty"`
	ToolChoice       string       `json:"tool_choice,omitempty"`
}

// AudioConfig configures audio input and output.
type AudioConfig struct {
	Input  AudioInput  `json:"input"`
	Output AudioOutput `json:"output"`
}

// AudioInput configures input format and turn detection.
type AudioInput struct {
	Format        AudioFormat   `json:"format"`
	TurnDetection TurnDetection `json:"turn_detection"`
}

// AudioOutput configures the voice.
type AudioOutput struct {
	Format AudioFormat `json:"format"`
	Voice  string      `json:"voice,omitempty"`
}

// AudioFormat is a PCM format descriptor.
type AudioFormat struct {
	Type string `json:"type"`
	Rate int    `json:"rate,omitempty"`
}

// TurnDetection configures voice activity detection. CreateResponse stays false so
// responses are requested explicitly after context delivery.
type TurnDetection struct {
	Type              string `json:"type"`
	Eagerness         string `json:"eagerness,omitempty"`
	CreateResponse    bool   `json:"create_response"`
	InterruptResponse bool   `json:"interrupt_response"`
}

// DefaultSession returns the tutor session configuration: audio output, semantic
// VAD at medium eagerness and no automatic responses.
func DefaultSession(model, voice, instructions string) SessionConfig {
	return SessionConfig{
		Type:             "realtime",
		Model:            model,
		Instructions:     instructions,
		OutputModalities: []string{"audio"},
		Audio: &AudioConfig{
			Input: AudioInput{
				Format:        AudioFormat{Type: "audio/pcm", Rate: 24000},
				TurnDetection: TurnDetection{Type: "semantic_vad", Eagerness: "medium"},
			},
			Output: AudioOutput{Format: AudioFormat{Type: "audio/pcm"}, Voice: voice},
		},
		ToolChoice: "auto",
	}
}

type sessionUpdate struct {
	Type    string        `json:"type"`
	Session SessionConfig `json:"session"`
}

// FunctionCall is the payload of response.function_call_arguments.done.
type FunctionCall struct {
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ServerError is the payload of an error event.
type ServerError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
