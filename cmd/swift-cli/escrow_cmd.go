package main

import (
	"fmt"
	"io"
	"strings"
)

func runEscrowCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, escrowUsage())
		return 1
	}

	switch args[0] {
	case "create":
		return runEscrowCreate(args[1:], stdout, stderr)
	case "fund":
		return runEscrowFund(args[1:], stdout, stderr)
	case "approve":
		return runEscrowApprove(args[1:], stdout, stderr)
	case "complete":
		return runEscrowComplete(args[1:], stdout, stderr)
	case "dispute":
		return runEscrowDispute(args[1:], stdout, stderr)
	case "get":
		return runEscrowGet(args[1:], stdout, stderr)
	case "get-dispute":
		return runEscrowGetDispute(args[1:], stdout, stderr)
	case "vault":
		return runEscrowVault(stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown escrow subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, escrowUsage())
		return 1
	}
}

func runEscrowCreate(args []string, stdout, stderr io.Writer) int {
	fs := newCommandFlagSet("escrow create", escrowUsage, stderr)
	var (
		caller    string
		assetID   uint64
		buyer     string
		agent     string
		inspector string
		deposit   string
		deadline  int64
	)
	fs.StringVar(&caller, "caller", "", "seller bech32 address")
	fs.Uint64Var(&assetID, "asset", 0, "registered asset id")
	fs.StringVar(&buyer, "buyer", "", "buyer bech32 address")
	fs.StringVar(&agent, "agent", "", "optional agent bech32 address")
	fs.StringVar(&inspector, "inspector", "", "optional inspector bech32 address")
	fs.StringVar(&deposit, "deposit", "", "earnest deposit amount")
	fs.Int64Var(&deadline, "deadline", 0, "unix deadline for completion")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if caller == "" {
		return printCommandError(stderr, "--caller is required")
	}
	if assetID == 0 {
		return printCommandError(stderr, "--asset is required")
	}
	if buyer == "" {
		return printCommandError(stderr, "--buyer is required")
	}
	if deposit == "" {
		return printCommandError(stderr, "--deposit is required")
	}
	if deadline <= 0 {
		return printCommandError(stderr, "--deadline is required")
	}

	params := map[string]interface{}{
		"caller":   caller,
		"assetId":  assetID,
		"buyer":    buyer,
		"deposit":  deposit,
		"deadline": deadline,
	}
	if agent != "" {
		params["agent"] = agent
	}
	if inspector != "" {
		params["inspector"] = inspector
	}
	result, rpcErr, err := cliRPCCall("escrow_create", params, true)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runEscrowFund(args []string, stdout, stderr io.Writer) int {
	return runCallerIDCommand("escrow fund", "escrow_fund", escrowUsage, args, stdout, stderr)
}

func runEscrowApprove(args []string, stdout, stderr io.Writer) int {
	return runCallerIDCommand("escrow approve", "escrow_approve", escrowUsage, args, stdout, stderr)
}

func runEscrowComplete(args []string, stdout, stderr io.Writer) int {
	fs := newCommandFlagSet("escrow complete", escrowUsage, stderr)
	var id uint64
	fs.Uint64Var(&id, "id", 0, "escrow id")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if id == 0 {
		return printCommandError(stderr, "--id is required")
	}

	result, rpcErr, err := cliRPCCall("escrow_complete", map[string]interface{}{"id": id}, true)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runEscrowDispute(args []string, stdout, stderr io.Writer) int {
	fs := newCommandFlagSet("escrow dispute", escrowUsage, stderr)
	var (
		caller    string
		id        uint64
		reason    string
		emergency bool
	)
	fs.StringVar(&caller, "caller", "", "participant bech32 address")
	fs.Uint64Var(&id, "id", 0, "escrow id")
	fs.StringVar(&reason, "reason", "", "dispute reason")
	fs.BoolVar(&emergency, "emergency", false, "cancel immediately and refund the deposit")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if caller == "" {
		return printCommandError(stderr, "--caller is required")
	}
	if id == 0 {
		return printCommandError(stderr, "--id is required")
	}
	if reason == "" {
		return printCommandError(stderr, "--reason is required")
	}

	params := map[string]interface{}{
		"caller":    caller,
		"id":        id,
		"reason":    reason,
		"emergency": emergency,
	}
	result, rpcErr, err := cliRPCCall("escrow_disputeOrCancel", params, true)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runEscrowGet(args []string, stdout, stderr io.Writer) int {
	return runIDCommand("escrow get", "escrow_get", escrowUsage, args, stdout, stderr)
}

func runEscrowGetDispute(args []string, stdout, stderr io.Writer) int {
	return runIDCommand("escrow get-dispute", "escrow_getDispute", escrowUsage, args, stdout, stderr)
}

func runEscrowVault(stdout, stderr io.Writer) int {
	result, rpcErr, err := cliRPCCall("escrow_vaultBalance", nil, false)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runEventsCommand(args []string, stdout, stderr io.Writer) int {
	fs := newCommandFlagSet("events", escrowUsage, stderr)
	var (
		prefix string
		limit  int
	)
	fs.StringVar(&prefix, "prefix", "", "filter events by type prefix")
	fs.IntVar(&limit, "limit", 50, "maximum number of events to return")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	params := map[string]interface{}{"prefix": prefix, "limit": limit}
	result, rpcErr, err := cliRPCCall("swift_listEvents", params, false)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func escrowUsage() string {
	return strings.TrimSpace(`Usage:
  swift-cli escrow <command> [flags]

Commands:
  create       Open an escrow for a verified property
  fund         Deposit the earnest payment (buyer only)
  approve      Record a party approval
  complete     Settle an approved escrow
  dispute      Raise a dispute or emergency-cancel
  get          Fetch escrow details by id
  get-dispute  Fetch the dispute record for an escrow
  vault        Show the custody vault balance
`)
}
