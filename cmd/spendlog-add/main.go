// Command spendlog-add records an expense from the terminal. The amount
// prompt filters input incrementally the same way the web client does:
// partial decimals are tolerated while typing, full-width digits are
// accepted, and submission requires a strictly positive value.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"spendlog/internal/cli"
	"spendlog/internal/core"
	"spendlog/internal/entry"
	applog "spendlog/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentEntry)

	server := flag.String("server", "http://localhost:8080", "spendlog server base URL")
	income := flag.Bool("income", false, "record income instead of an expense")
	flag.Parse()

	in := bufio.NewScanner(os.Stdin)

	amount, amountText, ok := promptAmount(in)
	if !ok {
		fmt.Fprintln(os.Stderr, "aborted")
		os.Exit(1)
	}

	date := promptLine(in, "date (YYYY-MM-DD, empty for today)")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	category := promptLine(in, "category (optional)")
	notes := promptLine(in, "notes (optional)")
	currency := promptLine(in, "currency (optional)")

	payload := map[string]any{
		"amount":     amount,
		"amountText": amountText,
		"date":       date,
	}
	if *income {
		payload["type"] = string(core.TypeIncome)
	}
	if category != "" {
		payload["category"] = category
	}
	if notes != "" {
		payload["notes"] = notes
	}
	if currency != "" {
		payload["currency"] = currency
	}

	rec, err := postRecord(*server, payload)
	if err != nil {
		logger.Error("Failed to save record", "error", err, "server", *server)
		os.Exit(1)
	}

	fmt.Printf("saved #%d: %s %s on %s\n", rec.ID, rec.Type, amountText, rec.Date)
}

// promptAmount reads amount input line by line until the guard accepts a
// committable value. Rejected input leaves the last valid buffer in place,
// mirroring an inline edit field.
func promptAmount(in *bufio.Scanner) (float64, string, bool) {
	var field entry.Field

	for {
		fmt.Printf("amount [%s]> ", field.Text())
		if !in.Scan() {
			return 0, "", false
		}
		text := strings.TrimSpace(in.Text())

		if !field.Input(text) {
			fmt.Fprintf(os.Stderr, "  %v (keeping %q)\n", field.Err(), field.Text())
			continue
		}

		value, err := field.Commit()
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %v\n", err)
			continue
		}
		return value, field.Text(), true
	}
}

func promptLine(in *bufio.Scanner, label string) string {
	fmt.Printf("%s> ", label)
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}

func postRecord(server string, payload map[string]any) (core.Record, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return core.Record{}, fmt.Errorf("encode record: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(server, "/")+"/expenses", bytes.NewReader(body))
	if err != nil {
		return core.Record{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return core.Record{}, fmt.Errorf("post record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return core.Record{}, fmt.Errorf("server answered %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var rec core.Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return core.Record{}, fmt.Errorf("decode response: %w", err)
	}
	return rec, nil
}
