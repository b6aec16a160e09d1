package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	gorillaWS "github.com/gorilla/websocket"
)

const defaultPassword = "testpassword123"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "seed":
		seedCmd(apiURL, args)
	case "sessions":
		sessionsCmd(apiURL, args)
	case "watch":
		watchCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Story Simulator - Development tool for the story feed

USAGE:
  simulator <command> [options]

COMMANDS:
  seed      Register users, post one story each and have everyone view each other
  sessions  Log one user in on several devices, revoke them all and verify
  watch     Print live story feed events until interrupted
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:8080)

EXAMPLES:
  # Five users with a story each
  simulator seed --count=5

  # Three sessions revoked by one logout-all
  simulator sessions --devices=3

  # Tail the feed as a new throwaway user
  simulator watch`)
}

func seedCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	count := fs.Int("count", 5, "Number of users to create")
	skipViews := fs.Bool("skip-views", false, "Do not register views between users")
	fs.Parse(args)

	if *count < 1 {
		fmt.Println("Error: --count must be at least 1")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)
	categories := [][]string{{"music"}, {"coding", "design"}, {"cooking"}, {"languages", "music"}}

	fmt.Println("=== Story Simulator: Seed ===")
	fmt.Println()

	tokens := make([]string, 0, *count)
	for i := 0; i < *count; i++ {
		user, token, err := client.RegisterUser(fmt.Sprintf("Sharer%d", i+1), defaultPassword)
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED to create user: %v\n", i+1, *count, err)
			os.Exit(1)
		}

		if err := client.SaveCategories(token, categories[i%len(categories)]); err != nil {
			fmt.Printf("Warning: Failed to save categories for %s: %v\n", user.Email, err)
		}

		story, err := client.CreateStory(token, fmt.Sprintf("%s is sharing a skill", user.Name))
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED to post story: %v\n", i+1, *count, err)
			os.Exit(1)
		}

		tokens = append(tokens, token)
		fmt.Printf("  [%d/%d] %s posted %s\n", i+1, *count, user.Email, story.ID)
	}

	if !*skipViews {
		fmt.Println()
		fmt.Print("Registering views... ")
		stories, err := client.ListStories(tokens[0])
		if err != nil {
			fmt.Printf("FAILED\n  Error: %v\n", err)
			os.Exit(1)
		}
		for _, token := range tokens {
			for _, s := range stories {
				if err := client.ViewStory(token, s.ID); err != nil {
					fmt.Printf("FAILED\n  Error: %v\n", err)
					os.Exit(1)
				}
			}
		}
		fmt.Println("OK")
	}

	fmt.Println()
	fmt.Printf("Done! %d users seeded. Password for all: %s\n", *count, defaultPassword)
}

func sessionsCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	devices := fs.Int("devices", 2, "Number of concurrent logins")
	fs.Parse(args)

	if *devices < 1 {
		fmt.Println("Error: --devices must be at least 1")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)

	fmt.Println("=== Story Simulator: Sessions ===")
	fmt.Println()

	user, _, err := client.RegisterUser("Traveller", defaultPassword)
	if err != nil {
		fmt.Printf("Failed to create user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("User: %s\n", user.Email)

	tokens := make([]string, 0, *devices)
	for i := 0; i < *devices; i++ {
		token, err := client.Login(user.Email, defaultPassword)
		if err != nil {
			fmt.Printf("  device %d: FAILED to log in: %v\n", i+1, err)
			os.Exit(1)
		}
		tokens = append(tokens, token)
		fmt.Printf("  device %d: logged in\n", i+1)
	}

	fmt.Print("Logging out everywhere... ")
	if err := client.LogoutAll(tokens[0]); err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")

	failed := false
	for i, token := range tokens {
		if _, err := client.Me(token); err == nil {
			fmt.Printf("  device %d: STILL ACCEPTED\n", i+1)
			failed = true
			continue
		}
		fmt.Printf("  device %d: rejected\n", i+1)
	}

	fresh, err := client.Login(user.Email, defaultPassword)
	if err != nil {
		fmt.Printf("Fresh login failed: %v\n", err)
		os.Exit(1)
	}
	if _, err := client.Me(fresh); err != nil {
		fmt.Printf("Fresh token rejected: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("  fresh login: accepted")

	if failed {
		os.Exit(1)
	}
}

func watchCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	email := fs.String("email", "", "Log in as this user instead of registering one")
	password := fs.String("password", defaultPassword, "Password for --email")
	fs.Parse(args)

	client := NewAPIClient(apiURL)

	var token string
	var err error
	if *email != "" {
		token, err = client.Login(*email, *password)
	} else {
		_, token, err = client.RegisterUser("Watcher", defaultPassword)
	}
	if err != nil {
		fmt.Printf("Failed to authenticate: %v\n", err)
		os.Exit(1)
	}

	conn, _, err := gorillaWS.DefaultDialer.Dial(client.WebSocketURL(token), nil)
	if err != nil {
		fmt.Printf("Failed to connect to feed: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		conn.WriteControl(gorillaWS.CloseMessage,
			gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()

	fmt.Println("Watching story feed, Ctrl+C to stop")
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg struct {
			Type      string          `json:"type"`
			Payload   json.RawMessage `json:"payload"`
			Timestamp int64           `json:"timestamp"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			fmt.Printf("  unreadable message: %s\n", string(data))
			continue
		}
		at := time.UnixMilli(msg.Timestamp).Format(time.TimeOnly)
		fmt.Printf("  %s %-14s %s\n", at, msg.Type, string(msg.Payload))
	}
}
