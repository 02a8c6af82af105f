package orchestration

import "testing"

func TestDeliverInterimDropsStaleSnapshots(t *testing.T) {
	stt := newSpeechToText()

	for i := 0; i < 2*cap(stt.interims); i++ {
		stt.deliverInterim("snapshot")
	}
	stt.deliverInterim("freshest")

	// The channel never blocks the recognition callback and always holds the
	// freshest snapshot somewhere in the queue.
	var last string
	for {
		select {
		case transcript := <-stt.interims:
			last = transcript
			continue
		default:
		}
		break
	}
	if last != "freshest" {
		t.Fatalf("expected the freshest snapshot to survive, got %q", last)
	}
}

func TestDrainInterimsEmptiesQueue(t *testing.T) {
	stt := newSpeechToText()
	stt.deliverInterim("one")
	stt.deliverInterim("two")

	stt.drainInterims()

	select {
	case transcript := <-stt.interims:
		t.Fatalf("expected no queued interims, got %q", transcript)
	default:
	}
}

func TestFinalTranscriptNeverBlocksRecognition(t *testing.T) {
	stt := newSpeechToText()

	stt.deliverFinal("first")
	// A second final while the first is unconsumed is logged and dropped
	// rather than blocking the recognition callback.
	stt.deliverFinal("second")

	if got := <-stt.finals; got != "first" {
		t.Fatalf("expected the first final to be queued, got %q", got)
	}
	select {
	case got := <-stt.finals:
		t.Fatalf("expected the second final to be dropped, got %q", got)
	default:
	}
}
