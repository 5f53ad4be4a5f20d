// Command ripcache-cli is a minimal REPL client: it encrypts each typed
// command line with the cluster's pre-shared AES key, sends it as one
// RESP array, and prints the decrypted reply.
package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ripcache/internal/crypto"
	"ripcache/internal/resp"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var keyHex string
	var noColor bool

	cmd := &cobra.Command{
		Use:   "ripcache-cli <ip:port>",
		Short: "Connect to a ripcache node and issue commands interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			color.NoColor = noColor

			key, err := hex.DecodeString(keyHex)
			if err != nil {
				return fmt.Errorf("ripcache-cli: --key: %w", err)
			}
			framer, err := crypto.NewFramer(key)
			if err != nil {
				return err
			}

			conn, err := net.Dial("tcp", args[0])
			if err != nil {
				return fmt.Errorf("ripcache-cli: connecting to %s: %w", args[0], err)
			}
			defer conn.Close()

			return repl(conn, framer, args[0])
		},
	}

	cmd.Flags().StringVar(&keyHex, "key", "", "hex-encoded pre-shared AES key (required)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func repl(conn net.Conn, framer *crypto.Framer, addr string) error {
	reader := bufio.NewReader(conn)
	scanner := bufio.NewScanner(os.Stdin)
	prompt := color.New(color.FgCyan).Sprintf("%s> ", addr)

	for {
		fmt.Print(prompt)
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "q" || line == "quit" || line == "exit" {
			return nil
		}

		if err := sendCommand(conn, framer, line); err != nil {
			fmt.Println(color.RedString("error: %v", err))
			continue
		}
		reply, err := crypto.ReadFrame(reader, framer)
		if err != nil {
			fmt.Println(color.RedString("error: %v", err))
			continue
		}
		v, err := resp.Decode(bufio.NewReader(strings.NewReader(string(reply))))
		if err != nil {
			fmt.Println(color.RedString("error: decoding reply: %v", err))
			continue
		}
		printValue(v, 0)
	}
}

func sendCommand(conn net.Conn, framer *crypto.Framer, line string) error {
	tokens := splitArgs(line)
	items := make([]resp.Value, len(tokens))
	for i, t := range tokens {
		items[i] = resp.Bulk(t)
	}
	var buf strings.Builder
	if err := resp.Encode(&buf, resp.Array(items)); err != nil {
		return err
	}
	return framer.WriteFrame(conn, []byte(buf.String()))
}

// splitArgs tokenizes a command line on whitespace, honoring double quotes
// the way redis-cli's own argument splitting does.
func splitArgs(line string) []string {
	var tokens []string
	var cur strings.Builder
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ' ' && !inQuotes:
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

func printValue(v resp.Value, depth int) {
	indent := strings.Repeat("  ", depth)
	switch v.Kind {
	case resp.KindSimpleString:
		fmt.Printf("%s%s\n", indent, color.GreenString(v.Str))
	case resp.KindSimpleError:
		fmt.Printf("%s%s\n", indent, color.RedString("(%s) %s", v.ErrKind, v.ErrMsg))
	case resp.KindInteger:
		fmt.Printf("%s(integer) %d\n", indent, v.Int)
	case resp.KindBulkString, resp.KindVerbatimString:
		if v.Null {
			fmt.Printf("%s(nil)\n", indent)
			return
		}
		fmt.Printf("%s\"%s\"\n", indent, v.Str)
	case resp.KindNull:
		fmt.Printf("%s(nil)\n", indent)
	case resp.KindArray, resp.KindSet:
		if v.Null {
			fmt.Printf("%s(nil)\n", indent)
			return
		}
		if len(v.Items) == 0 {
			fmt.Printf("%s(empty array)\n", indent)
			return
		}
		for i, item := range v.Items {
			fmt.Printf("%s%d) ", indent, i+1)
			printValue(item, 0)
		}
	case resp.KindMap:
		for _, p := range v.Pairs {
			printValue(p.Key, depth)
			printValue(p.Value, depth+1)
		}
	case resp.KindMoved:
		fmt.Printf("%s%s\n", indent, color.YellowString("(MOVED) slot %d -> %s", v.MovedSlot, v.MovedAddr))
	default:
		fmt.Printf("%s%+v\n", indent, v)
	}
}
