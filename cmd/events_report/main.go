package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
)

const summarySQL = `SELECT outcome, count(*), coalesce(avg(duration_ms), 0)::float8, coalesce(sum(text_length), 0)::bigint
	FROM extraction_events
	WHERE created_at >= $1
	GROUP BY outcome
	ORDER BY outcome`

func main() {
	since := flag.Duration("since", 24*time.Hour, "report window ending now")
	flag.Parse()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "DB_DSN not set; export and retry")
		os.Exit(2)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	from := time.Now().Add(-*since)
	rows, err := conn.Query(ctx, summarySQL, from)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query: %v\n", err)
		os.Exit(1)
	}
	defer rows.Close()

	fmt.Printf("extraction events since %s\n", from.Format(time.RFC3339))
	fmt.Printf("%-12s %8s %12s %12s\n", "outcome", "count", "avg_ms", "text_chars")
	var total int64
	for rows.Next() {
		var (
			outcome string
			count   int64
			avgMS   float64
			chars   int64
		)
		if err := rows.Scan(&outcome, &count, &avgMS, &chars); err != nil {
			fmt.Fprintf(os.Stderr, "scan: %v\n", err)
			os.Exit(1)
		}
		total += count
		fmt.Printf("%-12s %8d %12.1f %12d\n", outcome, count, avgMS, chars)
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "rows: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%-12s %8d\n", "total", total)
}
