package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Ebendttl/SwiftEstate/crypto"
)

var (
	rpcEndpoint string
	rpcToken    string
)

func main() {
	rpcEndpoint = defaultRPCEndpoint()
	rpcToken = strings.TrimSpace(os.Getenv("SWIFT_RPC_TOKEN"))

	args, err := applyGlobalFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if len(args) < 1 {
		printUsage()
		return
	}

	switch args[0] {
	case "generate-key":
		os.Exit(generateKey(os.Stdout, os.Stderr))
	case "title-hash":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Error: please provide a document path.")
			os.Exit(1)
		}
		os.Exit(titleHash(args[1], os.Stdout, os.Stderr))
	case "balance":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Error: please provide an address.")
			os.Exit(1)
		}
		os.Exit(getBalance(args[1], os.Stdout, os.Stderr))
	case "events":
		os.Exit(runEventsCommand(args[1:], os.Stdout, os.Stderr))
	case "registry":
		os.Exit(runRegistryCommand(args[1:], os.Stdout, os.Stderr))
	case "escrow":
		os.Exit(runEscrowCommand(args[1:], os.Stdout, os.Stderr))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

// applyGlobalFlags strips leading --rpc/--token flags that apply to every
// subcommand.
func applyGlobalFlags(args []string) ([]string, error) {
	out := args
	for len(out) > 0 {
		switch {
		case out[0] == "--rpc":
			if len(out) < 2 {
				return nil, fmt.Errorf("--rpc requires a value")
			}
			rpcEndpoint = strings.TrimSpace(out[1])
			out = out[2:]
		case strings.HasPrefix(out[0], "--rpc="):
			rpcEndpoint = strings.TrimSpace(strings.TrimPrefix(out[0], "--rpc="))
			out = out[1:]
		case out[0] == "--token":
			if len(out) < 2 {
				return nil, fmt.Errorf("--token requires a value")
			}
			rpcToken = strings.TrimSpace(out[1])
			out = out[2:]
		case strings.HasPrefix(out[0], "--token="):
			rpcToken = strings.TrimSpace(strings.TrimPrefix(out[0], "--token="))
			out = out[1:]
		default:
			return out, nil
		}
	}
	return out, nil
}

func defaultRPCEndpoint() string {
	if env := strings.TrimSpace(os.Getenv("SWIFT_RPC_URL")); env != "" {
		return env
	}
	return "http://127.0.0.1:8645"
}

func generateKey(stdout, stderr io.Writer) int {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to generate key: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Address:     %s\n", key.PubKey().Address().String())
	fmt.Fprintf(stdout, "Private key: %s\n", hex.EncodeToString(key.Bytes()))
	return 0
}

func titleHash(path string, stdout, stderr io.Writer) int {
	doc, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: read %s: %v\n", path, err)
		return 1
	}
	hash := crypto.TitleHash(doc)
	fmt.Fprintf(stdout, "%s\n", hex.EncodeToString(hash[:]))
	return 0
}

func getBalance(address string, stdout, stderr io.Writer) int {
	result, rpcErr, err := cliRPCCall("swift_getBalance", map[string]string{"address": address}, false)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func printUsage() {
	fmt.Println(strings.TrimSpace(`Usage:
  swift-cli [--rpc <url>] [--token <bearer>] <command> [flags]

Commands:
  generate-key  Generate a new keypair and print its address
  title-hash    Print the canonical hash of a title document
  balance       Fetch the balance of a bech32 address
  events        List recent node events
  registry      Property registry operations
  escrow        Escrow lifecycle operations
`))
}
