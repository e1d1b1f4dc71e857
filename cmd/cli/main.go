package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/finance-assistant/internal/app"
	"github.com/dvloznov/finance-assistant/internal/archive"
	"github.com/dvloznov/finance-assistant/internal/assistant"
	"github.com/dvloznov/finance-assistant/internal/command"
	"github.com/dvloznov/finance-assistant/internal/config"
	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/llm"
	"github.com/dvloznov/finance-assistant/internal/logger"
	"github.com/dvloznov/finance-assistant/internal/store"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	switch os.Args[1] {
	case "command":
		runCommand(cfg, log)
	case "chat":
		runChat(cfg, log)
	case "seed-defaults":
		runSeedDefaults(cfg, log)
	case "output":
		runOutput(cfg, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Assistant CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  command        Run (or dry-run) a natural language admin command")
	fmt.Println("  chat           Ask the chatbot a question")
	fmt.Println("  seed-defaults  Create the default categories in the configured store")
	fmt.Println("  output         Print an archived model output by gs:// URI")
	fmt.Println("  help           Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// buildApp wires the application against Gemini.
func buildApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) *app.App {
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	model, err := llm.NewGemini(ctx, llm.GeminiConfig{
		APIKey:          cfg.GeminiAPIKey,
		Model:           cfg.GeminiModel,
		MaxOutputTokens: cfg.ChatMaxOutputTokens,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	a, err := app.New(ctx, cfg, model, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	return a
}

func runCommand(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("command", flag.ExitOnError)
	text := fs.String("text", "", "Natural language admin command")
	dryRun := fs.Bool("dry-run", false, "Classify and validate only, print the parsed action")
	fs.Parse(os.Args[2:])

	if *text == "" {
		log.Fatal().Msg("Error: -text is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a := buildApp(ctx, cfg, log)
	defer a.Close()

	run := a.Commands.Execute
	if *dryRun {
		run = a.Commands.DryRun
	}

	out, err := run(ctx, *text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Command failed (%s, HTTP %d): %s\n",
			command.KindOf(err), command.KindOf(err).HTTPStatus(), command.PublicMessage(err))
		os.Exit(1)
	}

	if *dryRun {
		printJSON(out.Envelope)
		return
	}

	fmt.Println(out.Result.Message)
	fmt.Printf("Record: %s\n", out.RecordID)
}

func runChat(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	message := fs.String("message", "", "Question for the chatbot")
	userID := fs.String("user", "", "Answer as this user ID (anonymous when empty)")
	page := fs.String("page", "cli", "Current page reported to the chatbot")
	fs.Parse(os.Args[2:])

	if *message == "" {
		log.Fatal().Msg("Error: -message is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a := buildApp(ctx, cfg, log)
	defer a.Close()

	req := assistant.ChatRequest{Message: *message, CurrentPage: *page}
	if *userID != "" {
		req.Principal = &domain.Principal{UserID: *userID, Role: domain.RoleUser}
	}

	reply, err := a.Chat.Reply(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("Chat failed")
	}

	fmt.Println(reply.Text)
	if reply.UsedData {
		fmt.Println("\n(answered from the user's transactions)")
	}
}

func runSeedDefaults(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("seed-defaults", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	s, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer s.Close()

	n, err := store.SeedDefaultCategories(ctx, s)
	if err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}
	if n == 0 {
		fmt.Println("Default categories already exist, nothing to do.")
		return
	}
	fmt.Printf("Created %d default categories.\n", n)
}

func runOutput(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("output", flag.ExitOnError)
	uri := fs.String("uri", "", "gs:// URI of an archived model output")
	fs.Parse(os.Args[2:])

	if *uri == "" {
		log.Fatal().Msg("Error: -uri is required")
	}
	bucket, _, err := archive.ParseURI(*uri)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid URI")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	gcs, err := archive.NewGCS(ctx, bucket, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer gcs.Close()

	out, err := gcs.Load(ctx, *uri)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load output")
	}

	fmt.Printf("ID:      %s\n", out.ID)
	fmt.Printf("Model:   %s\n", out.Model)
	fmt.Printf("Created: %s\n", out.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Command: %s\n", out.Command)
	fmt.Printf("\n%s\n", out.RawText)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "encoding output: %v\n", err)
	}
}
