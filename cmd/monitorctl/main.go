// Command monitorctl drives a running tone monitor through its control API.
//
//	monitorctl state | toggle | watch | flagged | clear-flagged | health
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"

	grpcapi "tone-monitor-service/internal/api/grpc"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
	With().Timestamp().Logger()

func main() {
	httpAddr := flag.String("http", "localhost:8080", "Control API address")
	grpcAddr := flag.String("grpc", "localhost:50051", "gRPC address (health command)")
	flag.Parse()

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "state"
	}
	base := "http://" + *httpAddr

	var err error
	switch cmd {
	case "state":
		err = call(http.MethodGet, base+"/v1/monitor")
	case "toggle":
		err = call(http.MethodPost, base+"/v1/monitor/toggle")
	case "flagged":
		err = call(http.MethodGet, base+"/v1/transcripts/flagged")
	case "clear-flagged":
		err = call(http.MethodDelete, base+"/v1/transcripts/flagged")
	case "watch":
		err = watch(*httpAddr)
	case "health":
		err = health(*grpcAddr)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		logger.Fatal().Err(err).Str("command", cmd).Msg("Command failed")
	}
}

func call(method, target string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s: %s", resp.Status, body)
	}
	fmt.Print(string(body))
	return nil
}

// watch prints every state pushed over the stream until interrupted.
func watch(addr string) error {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/v1/monitor/stream"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Info().Str("url", u.String()).Msg("Watching monitor state")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	interrupted := make(chan struct{})
	go func() {
		<-sig
		close(interrupted)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
	}()

	for {
		var st map[string]any
		if err := conn.ReadJSON(&st); err != nil {
			select {
			case <-interrupted:
				return nil
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		line, _ := json.Marshal(st)
		fmt.Println(string(line))
	}
}

func health(addr string) error {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := grpc_health_v1.NewHealthClient(conn)
	for _, svc := range []string{"", grpcapi.ServiceName} {
		resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: svc})
		if err != nil {
			return err
		}
		name := svc
		if name == "" {
			name = "(process)"
		}
		fmt.Printf("%-32s %s\n", name, resp.GetStatus())
	}
	return nil
}
