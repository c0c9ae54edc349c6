// Command kitchen is a terminal kitchen display: it polls the kitchen feed and
// prints the open orders.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"restoran-pos/internal/logger"
	"restoran-pos/internal/storage"
	"restoran-pos/pkg/posclient"

	"github.com/rs/zerolog/log"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "POS server base URL")
	token := flag.String("token", os.Getenv("POS_TOKEN"), "bearer token")
	email := flag.String("email", "", "login email, used when no token is given")
	password := flag.String("password", os.Getenv("POS_PASSWORD"), "login password")
	interval := flag.Duration("interval", posclient.DefaultPollInterval, "refresh interval")
	flag.Parse()

	logger.Setup(os.Getenv("LOG_LEVEL"), "console")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := posclient.New(*baseURL, posclient.WithToken(*token))
	if *token == "" {
		if *email == "" {
			log.Fatal().Msg("either -token or -email is required")
		}
		if _, err := client.Login(ctx, *email, *password); err != nil {
			log.Fatal().Err(err).Msg("login failed")
		}
	}

	p := &posclient.Poller{
		Client:   client,
		Interval: *interval,
		OnUpdate: func(feed []storage.KitchenOrder) { render(os.Stdout, feed, time.Now()) },
		OnError:  func(err error) { log.Warn().Err(err).Msg("kitchen feed refresh failed") },
	}
	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("poller stopped")
	}
}

func render(w io.Writer, feed []storage.KitchenOrder, now time.Time) {
	fmt.Fprintf(w, "\n== kitchen %s, %d open ==\n", now.Format("15:04:05"), len(feed))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tTABLE\tSTATUS\tWAITING\tITEMS")
	for _, o := range feed {
		items := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, fmt.Sprintf("%dx %s", it.Quantity, it.Name))
		}
		fmt.Fprintf(tw, "#%d\t%d\t%s\t%s\t%s\n",
			o.ID, o.TableNumber, o.Status,
			now.Sub(o.CreatedAt).Truncate(time.Minute), strings.Join(items, ", "))
	}
	_ = tw.Flush()
}
