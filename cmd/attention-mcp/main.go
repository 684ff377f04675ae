package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/ironsheep/gaze-attention-mcp/internal/config"
	"github.com/ironsheep/gaze-attention-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("gaze-attention-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("gaze-attention-mcp - MCP server for gaze attention analysis")
			fmt.Println()
			fmt.Println("Usage: gaze-attention-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables (also read from .env):")
			fmt.Println("  ATTENTION_MCP_LOG_LEVEL=debug         Enable debug logging")
			fmt.Println("  ATTENTION_DATA_DIR=<dir>              Artifact directory (default ./attention-data)")
			fmt.Println("  ATTENTION_LEDGER_BACKEND=json|sqlite  Validation ledger backend")
			fmt.Println("  ATTENTION_LEDGER_PATH=<file>          Validation ledger location")
			fmt.Println("  ATTENTION_OVERWRITE[_ACCUMULATION|_DIRECTED_MASKS|_VALIDATION]=true")
			fmt.Println("                                        Recompute cached results")
			fmt.Println("  ATTENTION_GROUPING=cohort|specification")
			fmt.Println("  ATTENTION_DIRECTED_WEIGHT=constant|duration|order|distance")
			fmt.Println("  ATTENTION_HEAT_WEIGHT=constant|duration|order")
			fmt.Println("  ATTENTION_EXTRACTOR=<strategy>        Heat source extraction strategy")
			fmt.Println("  ATTENTION_VALIDITY_THRESHOLD, ATTENTION_VALIDITY_RANGE,")
			fmt.Println("  ATTENTION_TREND_WINDOW, ATTENTION_BLUR_SIGMA")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if cfg.Debug {
		log.Printf("Gaze Attention MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		log.Printf("Data directory %s, %s ledger at %s", cfg.DataDir, cfg.LedgerBackend, cfg.LedgerPath)
	}

	srv := server.New(cfg)
	err = srv.Run()
	if cerr := srv.Close(); cerr != nil {
		log.Printf("Failed to close analysis: %v", cerr)
	}
	if err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
