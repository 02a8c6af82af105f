package deepgram

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// TranscriptionClient streams audio to Deepgram's live listen API over a
// websocket and reports transcripts through the configured callbacks. The
// zero value is usable; the connection is opened by [TranscriptionClient.Transcribe].
type TranscriptionClient struct {
	conn   *websocket.Conn
	connMu sync.Mutex

	lastMsgTs time.Time

	accumulatedTranscript string
	unendedSegment        bool
}

func NewTranscriptionClient() *TranscriptionClient {
	return &TranscriptionClient{}
}
