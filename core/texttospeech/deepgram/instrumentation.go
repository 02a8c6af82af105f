package deepgram

import (
	"go.opentelemetry.io/otel"
)

const scopeName = "github.com/callumelder/sonus/core/texttospeech/deepgram"

var tracer = otel.Tracer(scopeName)
