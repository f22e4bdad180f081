package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

func runRegistryCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, registryUsage())
		return 1
	}

	switch args[0] {
	case "register":
		return runRegistryRegister(args[1:], stdout, stderr)
	case "verify":
		return runRegistryVerify(args[1:], stdout, stderr)
	case "get":
		return runRegistryGet(args[1:], stdout, stderr)
	case "deactivate":
		return runRegistryDeactivate(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown registry subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, registryUsage())
		return 1
	}
}

func runRegistryRegister(args []string, stdout, stderr io.Writer) int {
	fs := newCommandFlagSet("registry register", registryUsage, stderr)
	var (
		owner     string
		titleHash string
		value     string
		location  string
	)
	fs.StringVar(&owner, "owner", "", "owner bech32 address")
	fs.StringVar(&titleHash, "title-hash", "", "hex-encoded 32-byte title document hash")
	fs.StringVar(&value, "value", "", "property value")
	fs.StringVar(&location, "location", "", "property location")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if owner == "" {
		return printCommandError(stderr, "--owner is required")
	}
	if titleHash == "" {
		return printCommandError(stderr, "--title-hash is required")
	}
	if value == "" {
		return printCommandError(stderr, "--value is required")
	}

	params := map[string]interface{}{
		"owner":     owner,
		"titleHash": titleHash,
		"value":     value,
		"location":  location,
	}
	result, rpcErr, err := cliRPCCall("registry_register", params, true)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runRegistryVerify(args []string, stdout, stderr io.Writer) int {
	return runCallerIDCommand("registry verify", "registry_verify", registryUsage, args, stdout, stderr)
}

func runRegistryGet(args []string, stdout, stderr io.Writer) int {
	return runIDCommand("registry get", "registry_get", registryUsage, args, stdout, stderr)
}

func runRegistryDeactivate(args []string, stdout, stderr io.Writer) int {
	return runCallerIDCommand("registry deactivate", "registry_deactivate", registryUsage, args, stdout, stderr)
}

// runCallerIDCommand covers subcommands whose params are a caller address and
// a numeric id.
func runCallerIDCommand(name, method string, usage func() string, args []string, stdout, stderr io.Writer) int {
	fs := newCommandFlagSet(name, usage, stderr)
	var (
		caller string
		id     uint64
	)
	fs.StringVar(&caller, "caller", "", "caller bech32 address")
	fs.Uint64Var(&id, "id", 0, "record id")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if caller == "" {
		return printCommandError(stderr, "--caller is required")
	}
	if id == 0 {
		return printCommandError(stderr, "--id is required")
	}

	result, rpcErr, err := cliRPCCall(method, map[string]interface{}{"caller": caller, "id": id}, true)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runIDCommand(name, method string, usage func() string, args []string, stdout, stderr io.Writer) int {
	fs := newCommandFlagSet(name, usage, stderr)
	var id uint64
	fs.Uint64Var(&id, "id", 0, "record id")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if id == 0 {
		return printCommandError(stderr, "--id is required")
	}

	result, rpcErr, err := cliRPCCall(method, map[string]interface{}{"id": id}, false)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func newCommandFlagSet(name string, usage func() string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, usage())
	}
	return fs
}

func printCommandError(w io.Writer, msg string) int {
	fmt.Fprintf(w, "Error: %s\n", msg)
	return 1
}

func registryUsage() string {
	return strings.TrimSpace(`Usage:
  swift-cli registry <command> [flags]

Commands:
  register    Register a property title
  verify      Verify a registered property (admin only)
  get         Fetch property details by id
  deactivate  Deactivate a property listing
`)
}
