package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/atinyakov/secretshare/internal/client"
)

const defaultScope = "read:user user:email"

var (
	version   string
	buildDate string
)

// main parses command-line flags and dispatches to the client commands.
func main() {
	var (
		cmd     string
		baseURL string
		key     string
		value   string
		target  string
		scope   string
		showVer bool
	)

	flag.StringVar(&cmd, "cmd", "", "command: login | logout | create | get | list | share | delete | ping")
	flag.StringVar(&baseURL, "url", "http://localhost:8080", "server base URL")
	flag.StringVar(&key, "key", "", "secret key")
	flag.StringVar(&value, "value", "", "secret value (create)")
	flag.StringVar(&target, "target", "", "GitHub id to share with")
	flag.StringVar(&scope, "scope", defaultScope, "GitHub OAuth scopes to request")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("secretshare Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	c := client.New(baseURL)

	switch cmd {
	case "login":
		login(c, scope)
	case "logout":
		logout(c)
	case "create":
		if key == "" || value == "" {
			log.Fatal("please provide -key and -value")
		}
		if err := c.CreateSecret(key, value); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Stored secret %q.\n", key)
	case "get":
		if key == "" {
			log.Fatal("please provide -key")
		}
		view, err := c.GetSecret(key)
		if errors.Is(err, client.ErrNotFound) {
			fmt.Printf("Secret %q not found.\n", key)
			os.Exit(1)
		}
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s = %s (owner: %s)\n", view.Key, view.Value, view.OwnerID)
	case "list":
		items, err := c.ListSecrets()
		if err != nil {
			log.Fatal(err)
		}
		if len(items) == 0 {
			fmt.Println("No secrets found.")
			return
		}
		for _, item := range items {
			fmt.Printf("%s = %s (owner: %s)\n", item.Key, item.Value, item.OwnerID)
		}
	case "share":
		if key == "" || target == "" {
			log.Fatal("please provide -key and -target")
		}
		err := c.ShareSecret(key, target)
		if errors.Is(err, client.ErrNotFound) {
			fmt.Printf("Secret %q not found.\n", key)
			os.Exit(1)
		}
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Granted read access to %q for %s.\n", key, target)
	case "delete":
		if key == "" {
			log.Fatal("please provide -key")
		}
		err := c.DeleteSecret(key)
		if errors.Is(err, client.ErrNotFound) {
			fmt.Printf("Secret %q not found.\n", key)
			os.Exit(1)
		}
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Deleted secret %q.\n", key)
	case "ping":
		if err := c.Ping(); err != nil {
			log.Fatal(err)
		}
		fmt.Println("API healthy.")
	default:
		log.Fatalf("unknown command: %s", cmd)
	}
}

// login starts a fresh login, preferring GH_ACCESS_TOKEN when set.
func login(c *client.Client, scope string) {
	if c.Tokens.Load() != nil {
		fmt.Println("Existing session detected; starting fresh login.")
		_ = c.Tokens.Clear()
	}

	if pat := os.Getenv("GH_ACCESS_TOKEN"); pat != "" {
		fmt.Println("Logging in with GH_ACCESS_TOKEN...")
		tok, err := c.LoginWithPersonalToken(pat)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Logged in as %s\n", tok.GithubID)
		return
	}

	fmt.Printf("Starting login (scope: %s)\n", scope)
	tok, err := c.Login(scope)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Logged in as %s\n", tok.GithubID)
}

func logout(c *client.Client) {
	tok := c.Tokens.Load()
	if tok == nil {
		fmt.Println("No session found.")
		return
	}
	fmt.Printf("Logging out %s\n", tok.GithubID)
	if err := c.Tokens.Clear(); err != nil {
		log.Fatal(err)
	}
}
