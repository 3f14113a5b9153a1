// gateway-probe sends one text through every request variant in the catalog and
// reports which ones the gateway accepts. Use it to pick GATEWAY_VARIANT.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/practicedesk/secretary/environments"
	"github.com/practicedesk/secretary/pkg/gateway"
	"github.com/practicedesk/secretary/pkg/logger"
	"github.com/practicedesk/secretary/pkg/phone"
)

func main() {
	to := flag.String("to", os.Getenv("PROBE_TO"), "recipient phone number")
	message := flag.String("message", "gateway probe", "text to send with every variant")
	variantsFile := flag.String("variants", "", "YAML variants file (defaults to GATEWAY_VARIANTS_FILE, then the built-in catalog)")
	only := flag.String("only", "", "comma-separated variant names or labels to probe")
	list := flag.Bool("list", false, "print the catalog and exit without sending")
	flag.Parse()

	logger.Init()
	defer logger.Sync()

	cfg := environments.Load()

	catalog, err := loadCatalog(*variantsFile, cfg.Gateway.VariantsFile)
	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
	catalog = filter(catalog, *only)

	if *list {
		printCatalog(catalog)
		return
	}

	resolved, err := cfg.Gateway.Resolve()
	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}

	recipient, err := phone.Normalize(*to, resolved.CountryCode)
	if err != nil {
		color.Red("Error: -to %q: %v\n", *to, err)
		os.Exit(1)
	}

	cyan := color.New(color.FgCyan)
	cyan.Printf("Probing %s (token %s, client token %s)\n",
		resolved.BaseURL, environments.Masked(resolved.Token), environments.Masked(resolved.ClientToken))
	fmt.Printf("Recipient %s, %d variants\n\n", recipient, len(catalog))

	client := gateway.NewClient(resolved)
	accepted := run(client, catalog, gateway.Payload{Phone: recipient, Message: *message}, resolved.Timeout)

	fmt.Println()
	if len(accepted) == 0 {
		color.Red("No variant was accepted.\n")
		os.Exit(1)
	}
	color.Green("Accepted: %s\n", strings.Join(accepted, ", "))
	fmt.Printf("Set GATEWAY_VARIANT=%s\n", accepted[0])
}

func loadCatalog(flagPath, envPath string) ([]gateway.Variant, error) {
	path := flagPath
	if path == "" {
		path = envPath
	}
	if path == "" {
		return gateway.BuiltinCatalog(), nil
	}
	return gateway.LoadCatalog(path)
}

func filter(catalog []gateway.Variant, only string) []gateway.Variant {
	if strings.TrimSpace(only) == "" {
		return catalog
	}

	wanted := map[string]bool{}
	for _, name := range strings.Split(only, ",") {
		wanted[strings.TrimSpace(name)] = true
	}

	var out []gateway.Variant
	for _, v := range catalog {
		if wanted[v.Name] || wanted[v.Label()] {
			out = append(out, v)
		}
	}
	return out
}

// run sends sequentially so the gateway sees one request at a time.
func run(client *gateway.Client, catalog []gateway.Variant, p gateway.Payload, timeout time.Duration) []string {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tTARGET\tRESULT\tSTATUS\tDETAIL")

	var accepted []string
	for _, v := range catalog {
		ctx, cancel := context.WithTimeout(context.Background(), timeout+time.Second)
		target, err := client.MaskedTarget(gateway.OpSendText, v, p)
		if err != nil {
			target = "-"
		}

		resp := client.Send(ctx, gateway.OpSendText, v, p)
		cancel()

		result := red.Sprint("FAIL")
		detail := resp.ErrorMessage
		if resp.Success {
			result = green.Sprint("OK")
			detail = resp.MessageID
			accepted = append(accepted, v.Label())
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", v.Label(), target, result, resp.StatusCode, truncate(detail, 60))
	}
	w.Flush()

	return accepted
}

func printCatalog(catalog []gateway.Variant) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tURL\tHEADER\tBODY")
	for _, v := range catalog {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.Label(), v.URL, v.Header, v.Body)
	}
	w.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
