package main

import (
	"bufio"
	"bytes"
	"chat-dm/auth"
	"chat-dm/domain"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `env:"CHAT_SERVER_URL,default=http://localhost:3000"`
	Email     string `env:"CHAT_EMAIL,required=true"`
	Password  string `env:"CHAT_PASSWORD,required=true"`
	// SendTo, when set, turns every stdin line into a message to that user id.
	SendTo   string `env:"CHAT_SEND_TO"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`
}

type push struct {
	Event string         `json:"event"`
	Data  domain.Message `json:"data"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run logs in, opens the live connection and prints every pushed message until Ctrl+C.
func run() (int, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token, err := login(ctx, config)
	if err != nil {
		return exitRuntime, err
	}

	wsURL := "ws" + strings.TrimPrefix(config.ServerURL, "http") + "/ws"
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", wsURL, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()
	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	if config.SendTo != "" {
		go sendLines(ctx, log, config, token)
	}

	log.Info(">>> Connected, listening for messages (Ctrl+C to quit)", "server", config.ServerURL)
	for {
		var p push
		if err := conn.ReadJSON(&p); err != nil {
			if ctx.Err() != nil {
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("connection error: %w", err)
		}
		content := p.Data.Text
		if p.Data.Image != "" {
			content = strings.TrimSpace(content + " [image] " + p.Data.Image)
		}
		fmt.Printf("[%s] %s: %s\n", p.Data.CreatedAt.Local().Format(time.TimeOnly), p.Data.SenderID, content)
	}
}

func login(ctx context.Context, config Config) (string, error) {
	body, _ := json.Marshal(map[string]string{"email": config.Email, "password": config.Password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.ServerURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login refused: %s", resp.Status)
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == auth.CookieName {
			return cookie.Value, nil
		}
	}
	return "", fmt.Errorf("login answered without a session cookie")
}

func sendLines(ctx context.Context, log *slog.Logger, config Config, token string) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		body, _ := json.Marshal(map[string]string{"text": text})
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			config.ServerURL+"/api/messages/send/"+config.SendTo, bytes.NewReader(body))
		if err != nil {
			log.Error("Invalid send request", "error", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			log.Warn("Send failed", "error", err)
			continue
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			log.Warn("Send refused", "status", resp.Status)
		}
	}
}
