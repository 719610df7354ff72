package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/AnnaAnvok/chat/internal/client"
	"github.com/AnnaAnvok/chat/internal/config"
	"github.com/AnnaAnvok/chat/internal/protocol"
)

const pollInterval = 100 * time.Millisecond

func main() {
	addr := flag.String("addr", config.DefaultAddr, "chat server address")
	flag.Parse()

	c, err := client.Dial(*addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer c.Close()

	stdin := bufio.NewScanner(os.Stdin)

	route := protocol.RouteLogin
	if !confirm(stdin, "Already registered?", true) {
		route = protocol.RouteRegister
	}

	if !authorize(c, stdin, route) {
		return
	}

	fmt.Println("You are in the chat! Type /exit to leave.")

	// Приём сообщений идёт параллельно с вводом
	go receiveMessages(c)

	for {
		fmt.Print("> ")
		if !stdin.Scan() {
			return
		}
		text := strings.TrimSpace(stdin.Text())
		if text == "/exit" {
			return
		}
		if text == "" {
			continue
		}
		if err := c.Send(text); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

func authorize(c *client.Client, stdin *bufio.Scanner, route string) bool {
	for {
		fmt.Print("Username: ")
		if !stdin.Scan() {
			return false
		}
		username := strings.TrimSpace(stdin.Text())
		password := readPassword(stdin)

		reply, ok, err := c.Authorize(route, username, password)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(reply)
		if ok {
			return true
		}
		if !confirm(stdin, "Try again?", false) {
			return false
		}
	}
}

func receiveMessages(c *client.Client) {
	for {
		time.Sleep(pollInterval)
		messages, err := c.Poll()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		for _, m := range messages {
			fmt.Printf("%s: %s\n", m.User, m.Msg)
		}
	}
}

func readPassword(stdin *bufio.Scanner) string {
	fmt.Print("Password: ")
	if term.IsTerminal(int(os.Stdin.Fd())) {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err == nil {
			return string(b)
		}
	}
	if !stdin.Scan() {
		return ""
	}
	return strings.TrimSpace(stdin.Text())
}

func confirm(stdin *bufio.Scanner, prompt string, def bool) bool {
	hint := "[Y/n]"
	if !def {
		hint = "[y/N]"
	}
	fmt.Printf("%s %s ", prompt, hint)
	if !stdin.Scan() {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(stdin.Text())) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return def
	}
}
