package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fitbod/fitcoach/internal/chatclient"
	fitmcp "github.com/fitbod/fitcoach/internal/mcp"
	"github.com/fitbod/fitcoach/internal/paywall"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "FitCoach server URL")
	token := flag.String("token", os.Getenv("FITCOACH_TOKEN"), "bearer token (default $FITCOACH_TOKEN)")
	chatID := flag.String("chat", "default", "chat identifier")
	channel := flag.String("channel", paywall.DefaultChannel, "paywall channel name")
	mcpStdio := flag.Bool("mcp-stdio", false, "serve MCP over stdio against the remote server instead of chatting")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("fitcoach-chat", Version)
		return
	}

	// stdout carries MCP frames in stdio mode, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *token == "" {
		fmt.Fprintf(os.Stderr, "Usage: fitcoach-chat -server <URL> -token <bearer token> [-chat ID] [-mcp-stdio]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *mcpStdio {
		s := fitmcp.New(fitmcp.NewHTTPClient(*serverURL, *token), Version, log)
		if err := mcpserver.ServeStdio(s); err != nil {
			log.Error("mcp stdio server failed", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx := context.Background()
	r := &repl{
		chat:    chatclient.NewClient(*serverURL, *token),
		paywall: paywall.NewClient(*serverURL, *channel, *token),
		chatID:  *chatID,
	}
	if err := r.run(ctx, os.Stdin); err != nil {
		log.Error("chat failed", "error", err)
		os.Exit(1)
	}
}

type repl struct {
	chat    *chatclient.Client
	paywall *paywall.Client
	chatID  string
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	fmt.Println("FitCoach chat. Commands: /clear, /paywall [event], /subscribed, /subscribe on|off, /quit")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return nil
		}
		if err := r.dispatch(ctx, line); err != nil {
			fmt.Println("error:", err)
		}
	}
}

func (r *repl) dispatch(ctx context.Context, line string) error {
	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case "/clear":
		reply, err := r.chat.ClearHistory(ctx, r.chatID)
		if err != nil {
			return err
		}
		fmt.Println(reply.Message)
	case "/paywall":
		ok, err := r.paywall.ShowPaywall(ctx, strings.TrimSpace(arg))
		if err != nil {
			return err
		}
		fmt.Println("paywall shown:", ok)
	case "/subscribed":
		sub, err := r.paywall.IsSubscribed(ctx)
		if err != nil {
			return err
		}
		fmt.Println("subscribed:", sub)
	case "/subscribe":
		var on bool
		switch strings.TrimSpace(arg) {
		case "on":
			on = true
		case "off":
		default:
			return errors.New("usage: /subscribe on|off")
		}
		sub, err := r.paywall.SetSubscribed(ctx, on)
		if err != nil {
			return err
		}
		fmt.Println("subscribed:", sub)
	default:
		reply, err := r.chat.Send(ctx, line, r.chatID)
		if err != nil {
			var se *chatclient.ServerError
			if errors.As(err, &se) {
				return fmt.Errorf("%s", se.Message)
			}
			return err
		}
		fmt.Printf("%s\n[%s, %s]\n", reply.Message, reply.Intent, reply.DetectedLanguage)
	}
	return nil
}
