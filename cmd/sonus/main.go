// Command sonus is a terminal client for a sonusd server. It streams the
// microphone to the gateway, plays synthesized replies on the local output
// device and shows live captions while the conversation runs.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/callumelder/sonus/core/audio/miniaudio"
)

func main() {
	url := os.Getenv("SONUS_SERVER_URL")
	if url == "" {
		url = "ws://localhost:8080/ws"
	}

	if err := run(url); err != nil {
		log.Fatal(err)
	}
}

func run(url string) error {
	device, err := miniaudio.NewClient()
	if err != nil {
		return fmt.Errorf("failed to open audio devices: %w", err)
	}
	defer device.Close()

	conn, err := dial(url)
	if err != nil {
		return err
	}
	defer conn.close()

	messages := make(chan serverMessage)
	go func() {
		defer close(messages)
		for {
			message, err := conn.read()
			if err != nil {
				return
			}
			messages <- message
		}
	}()

	if err := conn.startConversation(); err != nil {
		return fmt.Errorf("failed to start conversation: %w", err)
	}

	program := tea.NewProgram(
		newModel(conn, &localAudio{client: device}, messages),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	return nil
}

// localAudio adapts the miniaudio client to the model's device contract.
type localAudio struct {
	client *miniaudio.Client
}

func (a *localAudio) startCapture(onAudio func(audio []byte)) error {
	return a.client.StartCapture(context.Background(), onAudio)
}

func (a *localAudio) stopCapture() error {
	return a.client.StopCapture()
}

func (a *localAudio) play(audio []byte) error {
	return a.client.SendAudio(audio)
}
