// Command sonusd serves voice conversations over a WebSocket endpoint.
// Clients stream microphone audio in and receive synthesized replies,
// live captions and listening cues back.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	orchestration "github.com/callumelder/sonus/core"
	"github.com/callumelder/sonus/core/llms/anthropic"
	"github.com/callumelder/sonus/core/speechtotext/deepgram"
	"github.com/callumelder/sonus/core/texttospeech/elevenlabs"
	"github.com/callumelder/sonus/core/tools/gmail"
	"github.com/callumelder/sonus/gateway"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	address := os.Getenv("SONUSD_ADDRESS")
	if address == "" {
		address = ":8080"
	}

	llm, err := anthropic.NewClient()
	if err != nil {
		log.Fatalf("failed to create anthropic client: %v", err)
	}
	tts, err := elevenlabs.NewSynthesisClient()
	if err != nil {
		log.Fatalf("failed to create elevenlabs client: %v", err)
	}
	mailbox, err := gmail.NewClient()
	if err != nil {
		log.Fatalf("failed to create gmail client: %v", err)
	}

	// Contacts seed the system prompt once at startup; a stale address book
	// only means the agent falls back to search_emails for new contacts.
	contacts, err := mailbox.Contacts(context.Background())
	if err != nil {
		log.Printf("failed to fetch contacts, continuing without: %v", err)
	}
	userName := os.Getenv("SONUSD_USER_NAME")

	server := gateway.NewServer(func(context.Context) (*orchestration.Orchestrator, error) {
		return orchestration.NewOrchestrator(
			orchestration.WithSpeechToText(deepgram.NewTranscriptionClient()),
			orchestration.WithTextToSpeech(tts),
			orchestration.WithLLM(llm),
			orchestration.WithTools(mailbox.Tools()...),
			orchestration.WithSystemPrompt(gateway.SystemPrompt(gateway.PromptConfig{
				UserName: userName,
				Contacts: contacts,
				Now:      time.Now(),
			})),
		), nil
	})

	mux := http.NewServeMux()
	mux.Handle("/ws", server)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	httpServer := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", address)
		serverErrors <- httpServer.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-sigChan:
		log.Printf("shutdown signal received: %v", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		httpServer.Close()
	}
}
